// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package main

import (
	"errors"
	"log/slog"

	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/embeddings"
	sessionmem "github.com/parley-dev/parley/internal/memory"
	"github.com/parley-dev/parley/internal/orchestrator"
	"github.com/parley-dev/parley/internal/provider"
	anthropicprov "github.com/parley-dev/parley/internal/provider/anthropic"
	openaiprov "github.com/parley-dev/parley/internal/provider/openai"
	"github.com/parley-dev/parley/internal/rag"
	"github.com/parley-dev/parley/internal/server"
	"github.com/parley-dev/parley/internal/store"
	_ "github.com/parley-dev/parley/internal/store/memory" // register memory backends
	_ "github.com/parley-dev/parley/internal/store/redis"  // register redis session backend
	_ "github.com/parley-dev/parley/internal/store/sqlite" // register sqlite vector backend
	parleyerr "github.com/parley-dev/parley/pkg/errors"
)

// App holds all wired subsystems and manages their lifecycle.
type App struct {
	Server     *server.Server
	Vectors    store.VectorStore
	SessionLog store.SessionLog
	Registry   *provider.Registry
}

// WireApp creates all subsystems and wires them together.
func WireApp(cfg *config.Config) (*App, error) {
	storeCfg := &store.StorageConfig{
		VectorBackend:  cfg.Storage.VectorBackend,
		SessionBackend: cfg.Storage.SessionBackend,
		SQLitePath:     cfg.Storage.SQLitePath,
		RedisAddr:      cfg.Storage.RedisAddr,
		RedisPassword:  cfg.Storage.RedisPassword,
		RedisDB:        cfg.Storage.RedisDB,
	}

	vectors, err := store.NewVectorStore(storeCfg)
	if err != nil {
		return nil, parleyerr.Errorf(parleyerr.CodeCLISetupFailure, "creating vector store: %w", err)
	}

	sessions, err := store.NewSessionLog(storeCfg)
	if err != nil {
		_ = vectors.Close()
		return nil, parleyerr.Errorf(parleyerr.CodeCLISetupFailure, "creating session log: %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		_ = vectors.Close()
		_ = sessions.Close()
		return nil, err
	}

	registry := provider.NewRegistry()
	registerBuiltinGenerators(cfg, registry)

	chunker := rag.NewChunker(cfg.RAG.ChunkSize)
	ingestor := rag.NewIngestor(chunker, embedder, vectors, nil)
	retriever := rag.NewRetriever(embedder, vectors, cfg.RAG.TopK, nil)
	memory := sessionmem.New(sessions, cfg.Memory.Window, cfg.Memory.TTL(), nil)

	assistant := orchestrator.New(retriever, ingestor, memory, registry, cfg.Models.Generation, nil)

	srv, err := server.New(server.Config{ListenAddr: cfg.Server.Listen})
	if err != nil {
		_ = vectors.Close()
		_ = sessions.Close()
		return nil, parleyerr.Errorf(parleyerr.CodeCLISetupFailure, "creating server: %w", err)
	}
	srv.RegisterServices(&server.Services{Assistant: assistant, Providers: registry})

	return &App{
		Server:     srv,
		Vectors:    vectors,
		SessionLog: sessions,
		Registry:   registry,
	}, nil
}

// Close releases all resources held by the app.
func (a *App) Close() error {
	var errs []error
	if a.Vectors != nil {
		if err := a.Vectors.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.SessionLog != nil {
		if err := a.SessionLog.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newEmbedder builds the OpenAI embedding gateway from provider config.
func newEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	pc, ok := cfg.Providers["openai"]
	if !ok || pc.APIKey == "" {
		return nil, parleyerr.New(parleyerr.CodeCLISetupFailure,
			"providers.openai.api_key is required for embeddings")
	}
	return embeddings.NewOpenAI(embeddings.Config{
		APIKey:  pc.APIKey,
		BaseURL: pc.Endpoint,
		Model:   cfg.Models.Embedding,
	})
}

// generatorFactory builds a provider.Generator from a ProviderConfig.
// Declared as a variable so tests can inject failing factories.
type generatorFactory func(config.ProviderConfig) (provider.Generator, error)

var builtinGeneratorFactories = map[string]generatorFactory{
	"openai": func(pc config.ProviderConfig) (provider.Generator, error) {
		return openaiprov.New(openaiprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint})
	},
	"anthropic": func(pc config.ProviderConfig) (provider.Generator, error) {
		return anthropicprov.New(anthropicprov.Config{APIKey: pc.APIKey, BaseURL: pc.Endpoint})
	},
}

// registerBuiltinGenerators iterates configured providers and registers
// matching built-in implementations. Unknown names or empty API keys are
// logged and skipped, neither is fatal at startup.
func registerBuiltinGenerators(cfg *config.Config, reg *provider.Registry) {
	for name, pc := range cfg.Providers {
		if pc.APIKey == "" {
			slog.Warn("skipping provider with empty API key", "provider", name)
			continue
		}
		factory, ok := builtinGeneratorFactories[name]
		if !ok {
			slog.Warn("unknown provider in config, skipping", "provider", name)
			continue
		}
		gen, err := factory(pc)
		if err != nil {
			slog.Warn("failed to create provider", "provider", name, "error", err)
			continue
		}
		if err := reg.Register(gen); err != nil {
			slog.Warn("failed to register provider", "provider", name, "error", err)
			continue
		}
		slog.Info("registered provider", "provider", name)
	}
}
