// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package rag implements the document ingestion and retrieval pipeline:
// fixed-size chunking, embedding, tenant-scoped vector search, and
// context block formatting for prompt assembly.
package rag

// DefaultChunkSize is the rune length of a chunk when no size is configured.
const DefaultChunkSize = 1000

// Chunker splits text into fixed-size, non-overlapping pieces.
type Chunker struct {
	size int
}

// NewChunker returns a chunker producing pieces of at most size runes.
// Non-positive sizes fall back to DefaultChunkSize.
func NewChunker(size int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &Chunker{size: size}
}

// Split cuts text into consecutive rune slices. Every rune of the input
// lands in exactly one chunk and order is preserved. The final chunk may
// be shorter than the configured size. Empty input yields no chunks.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+c.size-1)/c.size)
	for i := 0; i < len(runes); i += c.size {
		end := i + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
