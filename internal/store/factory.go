// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package store

import (
	"fmt"
	"sync"
)

// StorageConfig selects and parameterizes the storage backends.
type StorageConfig struct {
	VectorBackend  string // "memory" (default) or "sqlite"
	SessionBackend string // "memory" (default) or "redis"

	// sqlite vector backend
	SQLitePath string

	// redis session backend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// VectorFactory creates a vector store from config.
type VectorFactory func(cfg *StorageConfig) (VectorStore, error)

// SessionFactory creates a session log from config.
type SessionFactory func(cfg *StorageConfig) (SessionLog, error)

var (
	vectorFactories  = map[string]VectorFactory{}
	sessionFactories = map[string]SessionFactory{}
	factoriesMu      sync.RWMutex
)

// RegisterVectorBackend registers a vector store factory under name.
// Backend packages call this from init(). Goroutine-safe.
func RegisterVectorBackend(name string, f VectorFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	vectorFactories[name] = f
}

// RegisterSessionBackend registers a session log factory under name.
func RegisterSessionBackend(name string, f SessionFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	sessionFactories[name] = f
}

func resolveBackend(name string) string {
	if name == "" {
		return "memory"
	}
	return name
}

// NewVectorStore builds the configured vector store backend.
func NewVectorStore(cfg *StorageConfig) (VectorStore, error) {
	backend := resolveBackend(cfg.VectorBackend)

	factoriesMu.RLock()
	factory, ok := vectorFactories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported vector backend: %q", backend)
	}

	return factory(cfg)
}

// NewSessionLog builds the configured session log backend.
func NewSessionLog(cfg *StorageConfig) (SessionLog, error) {
	backend := resolveBackend(cfg.SessionBackend)

	factoriesMu.RLock()
	factory, ok := sessionFactories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported session backend: %q", backend)
	}

	return factory(cfg)
}
