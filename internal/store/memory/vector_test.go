// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/parley-dev/parley/internal/store"
	"github.com/parley-dev/parley/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorStore_AppendAndSearch(t *testing.T) {
	ctx := context.Background()
	vs := memory.NewVectorStore()

	require.NoError(t, vs.Append(ctx, "t1", store.Chunk{Vector: []float32{1, 0}, Text: "east", Source: "doc-a"}))
	require.NoError(t, vs.Append(ctx, "t1", store.Chunk{Vector: []float32{0, 1}, Text: "north", Source: "doc-b"}))

	results, err := vs.Search(ctx, "t1", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "east", results[0].Text)
	assert.Equal(t, "doc-a", results[0].Source)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "north", results[1].Text)
	assert.InDelta(t, 0.0, results[1].Score, 1e-9)
}

func TestVectorStore_TopKBoundedByPartitionSize(t *testing.T) {
	ctx := context.Background()
	vs := memory.NewVectorStore()

	for i := 0; i < 3; i++ {
		require.NoError(t, vs.Append(ctx, "t1", store.Chunk{
			Vector: []float32{1, float32(i)},
			Text:   fmt.Sprintf("chunk-%d", i),
			Source: "doc",
		}))
	}

	results, err := vs.Search(ctx, "t1", []float32{1, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	// Scores are non-increasing across the returned sequence.
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}

	results, err = vs.Search(ctx, "t1", []float32{1, 1}, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestVectorStore_TieBreakLaterInsertionWins(t *testing.T) {
	ctx := context.Background()
	vs := memory.NewVectorStore()

	// Identical vectors: identical scores against any query.
	require.NoError(t, vs.Append(ctx, "t1", store.Chunk{Vector: []float32{1, 1}, Text: "first", Source: "a"}))
	require.NoError(t, vs.Append(ctx, "t1", store.Chunk{Vector: []float32{1, 1}, Text: "second", Source: "b"}))
	require.NoError(t, vs.Append(ctx, "t1", store.Chunk{Vector: []float32{1, 1}, Text: "third", Source: "c"}))

	results, err := vs.Search(ctx, "t1", []float32{1, 1}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "third", results[0].Text)
	assert.Equal(t, "second", results[1].Text)
	assert.Equal(t, "first", results[2].Text)
}

func TestVectorStore_TieBreakWithinMixedScores(t *testing.T) {
	ctx := context.Background()
	vs := memory.NewVectorStore()

	require.NoError(t, vs.Append(ctx, "t1", store.Chunk{Vector: []float32{1, 0}, Text: "tied-early", Source: "a"}))
	require.NoError(t, vs.Append(ctx, "t1", store.Chunk{Vector: []float32{0, 1}, Text: "orthogonal", Source: "b"}))
	require.NoError(t, vs.Append(ctx, "t1", store.Chunk{Vector: []float32{1, 0}, Text: "tied-late", Source: "c"}))

	results, err := vs.Search(ctx, "t1", []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "tied-late", results[0].Text)
	assert.Equal(t, "tied-early", results[1].Text)
	assert.Equal(t, "orthogonal", results[2].Text)
}

func TestVectorStore_EmptyAndZeroGuards(t *testing.T) {
	ctx := context.Background()
	vs := memory.NewVectorStore()

	// Unknown tenant.
	results, err := vs.Search(ctx, "nobody", []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Zero-magnitude query.
	require.NoError(t, vs.Append(ctx, "t1", store.Chunk{Vector: []float32{1, 0}, Text: "x", Source: "s"}))
	results, err = vs.Search(ctx, "t1", []float32{0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Non-positive k.
	results, err = vs.Search(ctx, "t1", []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestVectorStore_RejectsZeroLengthVector(t *testing.T) {
	ctx := context.Background()
	vs := memory.NewVectorStore()

	err := vs.Append(ctx, "t1", store.Chunk{Vector: nil, Text: "x", Source: "s"})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestVectorStore_RejectsDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	vs := memory.NewVectorStore()

	require.NoError(t, vs.Append(ctx, "t1", store.Chunk{Vector: []float32{1, 0, 0}, Text: "x", Source: "s"}))
	err := vs.Append(ctx, "t1", store.Chunk{Vector: []float32{1, 0}, Text: "y", Source: "s"})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrDimensionMismatch)

	// A different tenant fixes its own dimension independently.
	require.NoError(t, vs.Append(ctx, "t2", store.Chunk{Vector: []float32{1, 0}, Text: "y", Source: "s"}))
}

func TestVectorStore_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	vs := memory.NewVectorStore()

	require.NoError(t, vs.Append(ctx, "t1", store.Chunk{Vector: []float32{1, 0}, Text: "tenant-one", Source: "a"}))
	require.NoError(t, vs.Append(ctx, "t2", store.Chunk{Vector: []float32{1, 0}, Text: "tenant-two", Source: "b"}))

	results, err := vs.Search(ctx, "t1", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tenant-one", results[0].Text)
}

func TestVectorStore_ConcurrentAppendAndSearch(t *testing.T) {
	ctx := context.Background()
	vs := memory.NewVectorStore()

	const writers = 8
	const perWriter = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				err := vs.Append(ctx, "t1", store.Chunk{
					Vector: []float32{1, float32(w)},
					Text:   fmt.Sprintf("w%d-%d", w, i),
					Source: "load",
				})
				assert.NoError(t, err)
			}
		}(w)
	}

	// Concurrent readers must only ever see fully appended records.
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				results, err := vs.Search(ctx, "t1", []float32{1, 1}, 5)
				assert.NoError(t, err)
				for _, res := range results {
					assert.NotEmpty(t, res.Text)
					assert.Equal(t, "load", res.Source)
				}
			}
		}()
	}
	wg.Wait()

	results, err := vs.Search(ctx, "t1", []float32{1, 1}, writers*perWriter)
	require.NoError(t, err)
	assert.Len(t, results, writers*perWriter)
}
