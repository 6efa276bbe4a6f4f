// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package config loads and validates Parley configuration from file and
// environment.
package config

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	parleyerr "github.com/parley-dev/parley/pkg/errors"
)

// Config is the top-level Parley configuration.
type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Models    ModelsConfig              `mapstructure:"models"`
	RAG       RAGConfig                 `mapstructure:"rag"`
	Memory    MemoryConfig              `mapstructure:"memory"`
	Storage   StorageConfig             `mapstructure:"storage"`
}

// ServerConfig controls how Parley listens for connections.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// ProviderConfig holds credentials and endpoint for an LLM provider.
type ProviderConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
}

// ModelsConfig selects the generation and embedding models.
type ModelsConfig struct {
	Generation string `mapstructure:"generation"`
	Embedding  string `mapstructure:"embedding"`
}

// RAGConfig tunes the retrieval pipeline.
type RAGConfig struct {
	ChunkSize int `mapstructure:"chunk_size"`
	TopK      int `mapstructure:"top_k"`
}

// MemoryConfig bounds per-session conversation history.
type MemoryConfig struct {
	Window     int `mapstructure:"window"`
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

// TTL returns the session expiry as a duration.
func (m MemoryConfig) TTL() time.Duration {
	return time.Duration(m.TTLSeconds) * time.Second
}

// StorageConfig selects the vector and session backends.
type StorageConfig struct {
	VectorBackend  string `mapstructure:"vector_backend"`
	SessionBackend string `mapstructure:"session_backend"`
	SQLitePath     string `mapstructure:"sqlite_path"`
	RedisAddr      string `mapstructure:"redis_addr"`
	RedisPassword  string `mapstructure:"redis_password"`
	RedisDB        int    `mapstructure:"redis_db"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix PARLEY_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.listen", "127.0.0.1:8080")
	v.SetDefault("models.generation", "openai/gpt-4o")
	v.SetDefault("models.embedding", "text-embedding-3-small")
	v.SetDefault("rag.chunk_size", 1000)
	v.SetDefault("rag.top_k", 3)
	v.SetDefault("memory.window", 20)
	v.SetDefault("memory.ttl_seconds", 3600)
	v.SetDefault("storage.vector_backend", "memory")
	v.SetDefault("storage.session_backend", "memory")

	// Environment
	v.SetEnvPrefix("PARLEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, parleyerr.Errorf(parleyerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, parleyerr.Errorf(parleyerr.CodeConfigLoadReadFailure, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, parleyerr.Errorf(parleyerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns all
// validation errors found rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateModels()...)
	errs = append(errs, c.validateRAG()...)
	errs = append(errs, c.validateMemory()...)
	errs = append(errs, c.validateStorage()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, parleyerr.Errorf(parleyerr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, parleyerr.Errorf(parleyerr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w",
			c.Server.Listen, err,
		))
		return errs
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, parleyerr.Errorf(parleyerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be a number, got %q",
			portStr,
		))
	} else if port < 1 || port > 65535 {
		errs = append(errs, parleyerr.Errorf(parleyerr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be between 1 and 65535, got %d",
			port,
		))
	}

	return errs
}

func (c *Config) validateModels() []error {
	var errs []error

	if c.Models.Generation == "" {
		errs = append(errs, parleyerr.Errorf(parleyerr.CodeConfigValidateInvalidValue, "config: models.generation must not be empty"))
	} else if !strings.Contains(c.Models.Generation, "/") {
		errs = append(errs, parleyerr.Errorf(parleyerr.CodeConfigValidateInvalidValue,
			"config: models.generation must be in \"vendor/model\" format, got %q",
			c.Models.Generation,
		))
	} else if c.Providers != nil {
		// Only cross-reference providers when the providers section exists
		// in config. A nil map means no providers section was configured,
		// which is valid for a defaults-only setup.
		vendor := vendorFromModel(c.Models.Generation)
		if _, ok := c.Providers[vendor]; !ok {
			errs = append(errs, parleyerr.Errorf(parleyerr.CodeConfigValidateInvalidValue,
				"config: models.generation %q references provider %q which is not configured",
				c.Models.Generation, vendor,
			))
		}
	}

	if c.Models.Embedding == "" {
		errs = append(errs, parleyerr.Errorf(parleyerr.CodeConfigValidateInvalidValue, "config: models.embedding must not be empty"))
	}

	return errs
}

func (c *Config) validateRAG() []error {
	var errs []error

	if c.RAG.ChunkSize <= 0 {
		errs = append(errs, parleyerr.Errorf(parleyerr.CodeConfigValidateInvalidValue,
			"config: rag.chunk_size must be greater than 0, got %d",
			c.RAG.ChunkSize,
		))
	}

	if c.RAG.TopK <= 0 {
		errs = append(errs, parleyerr.Errorf(parleyerr.CodeConfigValidateInvalidValue,
			"config: rag.top_k must be greater than 0, got %d",
			c.RAG.TopK,
		))
	}

	return errs
}

func (c *Config) validateMemory() []error {
	var errs []error

	if c.Memory.Window <= 0 {
		errs = append(errs, parleyerr.Errorf(parleyerr.CodeConfigValidateInvalidValue,
			"config: memory.window must be greater than 0, got %d",
			c.Memory.Window,
		))
	}

	if c.Memory.TTLSeconds <= 0 {
		errs = append(errs, parleyerr.Errorf(parleyerr.CodeConfigValidateInvalidValue,
			"config: memory.ttl_seconds must be greater than 0, got %d",
			c.Memory.TTLSeconds,
		))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	validVector := map[string]bool{"memory": true, "sqlite": true}
	if !validVector[c.Storage.VectorBackend] {
		errs = append(errs, parleyerr.Errorf(parleyerr.CodeConfigValidateInvalidValue,
			"config: storage.vector_backend must be one of [memory, sqlite], got %q",
			c.Storage.VectorBackend,
		))
	}
	if c.Storage.VectorBackend == "sqlite" && c.Storage.SQLitePath == "" {
		errs = append(errs, parleyerr.Errorf(parleyerr.CodeConfigValidateInvalidValue,
			"config: storage.sqlite_path must be set when storage.vector_backend is sqlite"))
	}

	validSession := map[string]bool{"memory": true, "redis": true}
	if !validSession[c.Storage.SessionBackend] {
		errs = append(errs, parleyerr.Errorf(parleyerr.CodeConfigValidateInvalidValue,
			"config: storage.session_backend must be one of [memory, redis], got %q",
			c.Storage.SessionBackend,
		))
	}
	if c.Storage.SessionBackend == "redis" && c.Storage.RedisAddr == "" {
		errs = append(errs, parleyerr.Errorf(parleyerr.CodeConfigValidateInvalidValue,
			"config: storage.redis_addr must be set when storage.session_backend is redis"))
	}

	return errs
}

// vendorFromModel extracts the vendor prefix from a "vendor/model" string.
func vendorFromModel(model string) string {
	if idx := strings.Index(model, "/"); idx > 0 {
		return model[:idx]
	}
	return model
}
