// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package memory

import "github.com/parley-dev/parley/internal/store"

func init() {
	store.RegisterVectorBackend("memory", func(_ *store.StorageConfig) (store.VectorStore, error) {
		return NewVectorStore(), nil
	})
	store.RegisterSessionBackend("memory", func(_ *store.StorageConfig) (store.SessionLog, error) {
		return NewSessionLog(), nil
	})
}
