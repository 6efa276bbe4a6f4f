// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package memory provides bounded, expiring conversation history on top
// of a session log backend.
package memory

import (
	"context"
	"log/slog"
	"time"

	"github.com/parley-dev/parley/internal/store"
	parleyerr "github.com/parley-dev/parley/pkg/errors"
)

const (
	// DefaultWindow is the number of messages retained per session.
	DefaultWindow = 20
	// DefaultTTL is how long an idle session survives before expiring.
	DefaultTTL = time.Hour
)

// SessionMemory records conversation turns per tenant and session,
// keeping only the most recent window of messages and refreshing the
// expiry on every write.
type SessionMemory struct {
	log    store.SessionLog
	window int
	ttl    time.Duration
	logger *slog.Logger
}

// New wires session memory over a backend. Non-positive window or ttl
// fall back to the defaults; a nil logger falls back to slog.Default.
func New(log store.SessionLog, window int, ttl time.Duration, logger *slog.Logger) *SessionMemory {
	if window <= 0 {
		window = DefaultWindow
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionMemory{log: log, window: window, ttl: ttl, logger: logger}
}

// Append records one message, trims the session to the window, and
// refreshes the TTL.
func (m *SessionMemory) Append(ctx context.Context, tenantID, sessionID string, role store.MessageRole, content string) error {
	key := store.SessionKey{TenantID: tenantID, SessionID: sessionID}
	msg := store.Message{Role: role, Content: content}
	if err := m.log.Append(ctx, key, msg, m.window, m.ttl); err != nil {
		return parleyerr.Wrap(err, parleyerr.CodeMemoryAppendFailure, "recording turn",
			parleyerr.FieldTenantID(tenantID), parleyerr.FieldSessionID(sessionID))
	}
	return nil
}

// History returns the retained messages in order, oldest first. A backend
// failure degrades to an empty history; a chat turn must not fail because
// memory is unavailable.
func (m *SessionMemory) History(ctx context.Context, tenantID, sessionID string) []store.Message {
	key := store.SessionKey{TenantID: tenantID, SessionID: sessionID}
	msgs, err := m.log.History(ctx, key)
	if err != nil {
		m.logger.Warn("session history unavailable, continuing without it",
			"tenant_id", tenantID,
			"session_id", sessionID,
			"error", err,
		)
		return nil
	}
	return msgs
}

// Clear removes the session's history entirely.
func (m *SessionMemory) Clear(ctx context.Context, tenantID, sessionID string) error {
	key := store.SessionKey{TenantID: tenantID, SessionID: sessionID}
	if err := m.log.Clear(ctx, key); err != nil {
		return parleyerr.Wrap(err, parleyerr.CodeMemoryAppendFailure, "clearing session",
			parleyerr.FieldTenantID(tenantID), parleyerr.FieldSessionID(sessionID))
	}
	return nil
}
