// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/parley-dev/parley/internal/store"
)

// Compile-time interface check.
var _ store.SessionLog = (*SessionLog)(nil)

type logEntry struct {
	msgs      []store.Message
	expiresAt time.Time // zero = no expiry
}

func (e *logEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// SessionLog implements store.SessionLog in process memory. Expiry is
// enforced lazily on access rather than by a background sweeper, which is
// indistinguishable from an external store's expiry through this interface.
type SessionLog struct {
	mu      sync.Mutex
	entries map[string]*logEntry
	now     func() time.Time
}

// NewSessionLog creates an empty in-memory session log.
func NewSessionLog() *SessionLog {
	return NewSessionLogWithClock(time.Now)
}

// NewSessionLogWithClock creates a session log with an injected clock so
// TTL behavior is testable without sleeping.
func NewSessionLogWithClock(now func() time.Time) *SessionLog {
	return &SessionLog{
		entries: make(map[string]*logEntry),
		now:     now,
	}
}

// Append pushes, trims to window, and refreshes the TTL under one lock
// acquisition, so History never observes a partially applied append.
func (s *SessionLog) Append(_ context.Context, key store.SessionKey, msg store.Message, window int, ttl time.Duration) error {
	if key.TenantID == "" || key.SessionID == "" {
		return fmt.Errorf("appending message: incomplete session key: %w", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	k := key.String()
	e := s.entries[k]
	if e == nil || e.expired(now) {
		e = &logEntry{}
		s.entries[k] = e
	}

	e.msgs = append(e.msgs, msg)
	if window > 0 && len(e.msgs) > window {
		trimmed := make([]store.Message, window)
		copy(trimmed, e.msgs[len(e.msgs)-window:])
		e.msgs = trimmed
	}

	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	} else {
		e.expiresAt = time.Time{}
	}
	return nil
}

// History returns the log oldest-first; missing or expired keys yield nil.
func (s *SessionLog) History(_ context.Context, key store.SessionKey) ([]store.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	e := s.entries[k]
	if e == nil {
		return nil, nil
	}
	if e.expired(s.now()) {
		delete(s.entries, k)
		return nil, nil
	}

	out := make([]store.Message, len(e.msgs))
	copy(out, e.msgs)
	return out, nil
}

// Clear deletes the key outright.
func (s *SessionLog) Clear(_ context.Context, key store.SessionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key.String())
	return nil
}

// Close is a no-op for the in-memory backend.
func (s *SessionLog) Close() error { return nil }
