// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package redis provides a session log backed by a Redis list per session
// key. The push, trim, and expiry refresh run in a single MULTI/EXEC
// pipeline so readers never observe a partially applied append.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"time"

	"github.com/redis/go-redis/v9"

	"github.com/parley-dev/parley/internal/store"
)

func init() {
	store.RegisterSessionBackend("redis", func(cfg *store.StorageConfig) (store.SessionLog, error) {
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis session backend requires storage.redis_addr")
		}
		return NewSessionLog(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})), nil
	})
}

// Compile-time interface check.
var _ store.SessionLog = (*SessionLog)(nil)

// SessionLog implements store.SessionLog on a Redis list per session key.
// Key expiry is owned by Redis; History on an expired key simply finds no
// list.
type SessionLog struct {
	client *redis.Client
}

// NewSessionLog wraps an existing Redis client.
func NewSessionLog(client *redis.Client) *SessionLog {
	return &SessionLog{client: client}
}

// Append pushes the message, trims the list to the last window entries, and
// resets the key's TTL, atomically via a transactional pipeline.
func (s *SessionLog) Append(ctx context.Context, key store.SessionKey, msg store.Message, window int, ttl time.Duration) error {
	if key.TenantID == "" || key.SessionID == "" {
		return fmt.Errorf("appending message: incomplete session key: %w", store.ErrInvalidInput)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshalling message: %w", err)
	}

	k := key.String()
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, k, payload)
	if window > 0 {
		pipe.LTrim(ctx, k, int64(-window), -1)
	}
	if ttl > 0 {
		pipe.Expire(ctx, k, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending message to %s: %w", k, err)
	}
	return nil
}

// History returns the full list oldest-first. A missing key yields nil.
func (s *SessionLog) History(ctx context.Context, key store.SessionKey) ([]store.Message, error) {
	k := key.String()
	items, err := s.client.LRange(ctx, k, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading history from %s: %w", k, err)
	}

	msgs := make([]store.Message, 0, len(items))
	for _, item := range items {
		var m store.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("decoding message from %s: %w", k, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Clear deletes the key outright.
func (s *SessionLog) Clear(ctx context.Context, key store.SessionKey) error {
	if err := s.client.Del(ctx, key.String()).Err(); err != nil {
		return fmt.Errorf("clearing session %s: %w", key.String(), err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (s *SessionLog) Close() error {
	return s.client.Close()
}
