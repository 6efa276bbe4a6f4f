// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package provider

import (
	"strings"
	"sync"

	parleyerr "github.com/parley-dev/parley/pkg/errors"
	"github.com/parley-dev/parley/pkg/health"
)

// Registry resolves model references of the form "vendor/model" to a
// registered Generator and the bare model name, and tracks per-vendor
// generation health.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
	health     *health.Tracker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
		health:     health.NewTracker(),
	}
}

// Register adds a generator under its vendor name. Registering the same
// vendor twice is an error.
func (r *Registry) Register(gen Generator) error {
	if gen == nil || gen.Name() == "" {
		return parleyerr.New(parleyerr.CodeProviderRequestInvalid, "generator must have a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.generators[gen.Name()]; exists {
		return parleyerr.Errorf(parleyerr.CodeProviderRequestInvalid,
			"vendor %q is already registered", gen.Name())
	}
	r.generators[gen.Name()] = gen
	return nil
}

// RecordSuccess notes a completed generation for vendor.
func (r *Registry) RecordSuccess(vendor string) {
	r.health.RecordSuccess(vendor)
}

// RecordFailure notes a failed generation for vendor.
func (r *Registry) RecordFailure(vendor string) {
	r.health.RecordFailure(vendor)
}

// Health snapshots generation health for every vendor seen so far.
func (r *Registry) Health() map[string]health.Metrics {
	return r.health.Snapshot()
}

// Resolve splits modelRef ("openai/gpt-4o") and returns the vendor's
// generator with the bare model name.
func (r *Registry) Resolve(modelRef string) (Generator, string, error) {
	vendor, model, ok := strings.Cut(modelRef, "/")
	if !ok || vendor == "" || model == "" {
		return nil, "", parleyerr.Errorf(parleyerr.CodeProviderInvalidModelRef,
			"model reference %q must be vendor/model", modelRef)
	}

	r.mu.RLock()
	gen, ok := r.generators[vendor]
	r.mu.RUnlock()
	if !ok {
		return nil, "", parleyerr.Errorf(parleyerr.CodeProviderNotFound,
			"no generator registered for vendor %q", vendor)
	}

	return gen, model, nil
}

// Vendors lists registered vendor names.
func (r *Registry) Vendors() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	return names
}
