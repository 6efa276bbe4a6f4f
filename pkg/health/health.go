// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

// Package health tracks point-in-time generation health per provider for
// monitoring and operator visibility.
package health

import (
	"sync"
	"time"
)

// Metrics exposes the current health state of a provider. All fields are
// snapshots safe to serialize to JSON.
type Metrics struct {
	FailureCount  int64      `json:"failure_count"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
	Available     bool       `json:"available"`
}

// Tracker records generation outcomes per vendor. A vendor is considered
// available while its consecutive failure count is zero; any success
// resets the count.
type Tracker struct {
	mu    sync.Mutex
	state map[string]*vendorState
	now   func() time.Time
}

type vendorState struct {
	failures int64
	lastFail time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		state: make(map[string]*vendorState),
		now:   time.Now,
	}
}

func (t *Tracker) vendor(name string) *vendorState {
	vs, ok := t.state[name]
	if !ok {
		vs = &vendorState{}
		t.state[name] = vs
	}
	return vs
}

// RecordSuccess marks a completed generation for vendor and resets its
// consecutive failure count.
func (t *Tracker) RecordSuccess(vendor string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.vendor(vendor).failures = 0
}

// RecordFailure marks a failed generation for vendor.
func (t *Tracker) RecordFailure(vendor string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	vs := t.vendor(vendor)
	vs.failures++
	vs.lastFail = t.now()
}

// Snapshot returns the current metrics for every vendor seen so far.
func (t *Tracker) Snapshot() map[string]Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]Metrics, len(t.state))
	for name, vs := range t.state {
		m := Metrics{
			FailureCount: vs.failures,
			Available:    vs.failures == 0,
		}
		if !vs.lastFail.IsZero() {
			at := vs.lastFail
			m.LastFailureAt = &at
		}
		out[name] = m
	}
	return out
}
