// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-03-03
// Last Modified: 2026-03-10

// Package reasoning wraps the single external text-completion call used to
// augment the heuristics. Every failure mode of that call is reported as a
// *triage.ExternalServiceError so callers can fall back uniformly.
package reasoning

import (
	"context"
	"fmt"
)

// CompletionOptions bounds a completion request.
type CompletionOptions struct {
	Temperature float64
	MaxTokens   int
}

// Backend is a text-completion service. It is the only network boundary of
// the recommendation engine.
type Backend interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}

// BackendError is returned by backends that know the status code of a failed
// call (HTTP status or the equivalent of a gRPC code).
type BackendError struct {
	StatusCode int
	Err        error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned status %d: %v", e.StatusCode, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
