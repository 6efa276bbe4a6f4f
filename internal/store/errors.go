// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package store

import "errors"

// Sentinel errors for store operations.
// These errors can be checked using errors.Is() for classification.
var (
	// ErrInvalidInput indicates the input parameters are invalid or malformed
	// (empty tenant ID, zero-length vector, blank role).
	ErrInvalidInput = errors.New("invalid input")

	// ErrDimensionMismatch indicates a vector whose dimension differs from
	// the one fixed by the tenant partition's first append.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
