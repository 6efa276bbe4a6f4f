// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package store

// Chunk is one embedded document segment owned by a tenant partition.
// Chunks are immutable once appended.
type Chunk struct {
	Vector []float32
	Text   string
	Source string
}

// SearchResult is one ranked hit from a vector search.
type SearchResult struct {
	Text   string
	Source string
	Score  float64
}

// MessageRole identifies the sender of a message in a session log.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// Message is a single conversation turn entry. The JSON shape is the
// stored unit in session backends.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// SessionKey addresses one session log: distinct sessions for the same
// tenant are fully independent.
type SessionKey struct {
	TenantID  string
	SessionID string
}

// String renders the backing-store key for the session log.
func (k SessionKey) String() string {
	return "memory:" + k.TenantID + ":" + k.SessionID
}
