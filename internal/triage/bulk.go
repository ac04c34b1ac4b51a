// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/kavirubc
// Created: 2026-03-04
// Last Modified: 2026-03-11

package triage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// MaxBulkConcurrency caps the worker pool used by RunBulk so that the
// reasoning backend and the issue store are never flooded.
const MaxBulkConcurrency = 5

// BulkResult maps input identifiers to per-item results. It only contains
// identifiers that succeeded, in input order. Failed identifiers are absent;
// their errors are kept on the side for reporting.
type BulkResult[T any] struct {
	ids      []string
	items    map[string]T
	failures map[string]error
}

// NewBulkResult creates an empty result.
func NewBulkResult[T any]() *BulkResult[T] {
	return &BulkResult[T]{
		ids:      []string{},
		items:    make(map[string]T),
		failures: make(map[string]error),
	}
}

// Set records a successful item. Re-setting an id keeps its original position.
func (r *BulkResult[T]) Set(id string, v T) {
	if _, ok := r.items[id]; !ok {
		r.ids = append(r.ids, id)
	}
	r.items[id] = v
}

// Get returns the result for id.
func (r *BulkResult[T]) Get(id string) (T, bool) {
	v, ok := r.items[id]
	return v, ok
}

// IDs returns the successful identifiers in input order.
func (r *BulkResult[T]) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// Len returns the number of successful items.
func (r *BulkResult[T]) Len() int {
	return len(r.ids)
}

// Failure returns the error recorded for an id that did not succeed.
func (r *BulkResult[T]) Failure(id string) error {
	return r.failures[id]
}

// Failures returns the number of failed items.
func (r *BulkResult[T]) Failures() int {
	return len(r.failures)
}

// MarshalJSON encodes the result as a JSON object whose keys keep input order.
func (r *BulkResult[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range r.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.items[id])
		if err != nil {
			return nil, fmt.Errorf("failed to encode bulk item %s: %w", id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// uniqueIDs drops empty and repeated identifiers, keeping first occurrences.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// RunBulk drives perItem over ids with at most concurrency items in flight.
// A failing item is logged and left out of the result; the batch never aborts
// and RunBulk itself never fails. Concurrency below 1 runs sequentially and
// values above MaxBulkConcurrency are capped.
func RunBulk[T any](ctx context.Context, ids []string, concurrency int, perItem func(ctx context.Context, id string) (T, error)) *BulkResult[T] {
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > MaxBulkConcurrency {
		concurrency = MaxBulkConcurrency
	}

	unique := uniqueIDs(ids)

	type outcome struct {
		value T
		err   error
	}
	outcomes := make([]outcome, len(unique))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, id := range unique {
		i, id := i, id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i].err = err
				return nil
			}
			v, err := perItem(ctx, id)
			outcomes[i] = outcome{value: v, err: err}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	result := NewBulkResult[T]()
	for i, id := range unique {
		if err := outcomes[i].err; err != nil {
			log.Printf("[bulk] Item %s failed: %v (skipped)", id, err)
			result.failures[id] = err
			continue
		}
		result.Set(id, outcomes[i].value)
	}
	return result
}

// BulkApplyResult reports how many recommendations a bulk apply wrote.
type BulkApplyResult struct {
	Applied    int      `json:"applied"`
	Skipped    int      `json:"skipped"`
	AppliedIDs []string `json:"applied_ids"`
	SkippedIDs []string `json:"skipped_ids"`
	Errors     []string `json:"errors,omitempty"`

	errs *multierror.Error
}

// Err returns the aggregated per-item errors, or nil.
func (r *BulkApplyResult) Err() error {
	return r.errs.ErrorOrNil()
}

func (r *BulkApplyResult) markApplied(id string) {
	r.Applied++
	r.AppliedIDs = append(r.AppliedIDs, id)
}

func (r *BulkApplyResult) markSkipped(id string, err error) {
	r.Skipped++
	r.SkippedIDs = append(r.SkippedIDs, id)
	if err != nil {
		wrapped := fmt.Errorf("%s: %w", id, err)
		r.errs = multierror.Append(r.errs, wrapped)
		r.Errors = append(r.Errors, wrapped.Error())
	}
}

// ApplyBulk writes each recommendation in recs using apply, walking ids in
// input order. Ids with no recommendation (fetch failure) or an empty one, as
// judged by isEmpty, are skipped, as are ids whose apply call fails.
func ApplyBulk[T any](ctx context.Context, ids []string, recs *BulkResult[T], isEmpty func(T) bool, apply func(ctx context.Context, id string, rec T) error) *BulkApplyResult {
	res := &BulkApplyResult{
		AppliedIDs: []string{},
		SkippedIDs: []string{},
	}

	for _, id := range uniqueIDs(ids) {
		rec, ok := recs.Get(id)
		if !ok {
			res.markSkipped(id, recs.Failure(id))
			continue
		}
		if isEmpty(rec) {
			res.markSkipped(id, nil)
			continue
		}
		if err := apply(ctx, id, rec); err != nil {
			log.Printf("[bulk] Failed to apply recommendation to %s: %v", id, err)
			res.markSkipped(id, err)
			continue
		}
		res.markApplied(id)
	}

	return res
}
