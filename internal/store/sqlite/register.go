// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package sqlite

import (
	"fmt"

	"github.com/parley-dev/parley/internal/store"
)

func init() {
	store.RegisterVectorBackend("sqlite", func(cfg *store.StorageConfig) (store.VectorStore, error) {
		path := cfg.SQLitePath
		if path == "" {
			return nil, fmt.Errorf("sqlite vector backend requires storage.sqlite_path")
		}
		return NewVectorStore(path)
	})
}
