// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-03-05
// Last Modified: 2026-03-11

// Package tagging suggests labels for an issue by merging keyword pattern
// matches with tags proposed by the reasoning backend.
package tagging

import (
	"context"
	"fmt"
	"log"

	"github.com/similigh/simili-triage/internal/heuristics"
	"github.com/similigh/simili-triage/internal/reasoning"
	"github.com/similigh/simili-triage/internal/triage"
)

// DefaultMinConfidence is the confidence floor for suggested tags.
const DefaultMinConfidence = 60

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	MinConfidence float64
	Concurrency   int
}

// Service produces and applies tag suggestions.
type Service struct {
	issues        triage.IssueStore
	reasoning     *reasoning.Client
	minConfidence float64
	concurrency   int
}

// NewService creates a tagging service. rc may be nil.
func NewService(issues triage.IssueStore, rc *reasoning.Client, opts Options) *Service {
	s := &Service{
		issues:        issues,
		reasoning:     rc,
		minConfidence: opts.MinConfidence,
		concurrency:   opts.Concurrency,
	}
	if s.minConfidence <= 0 {
		s.minConfidence = DefaultMinConfidence
	}
	if s.concurrency <= 0 {
		s.concurrency = 1
	}
	return s
}

// SuggestTags loads the issue and suggests tags for it.
func (s *Service) SuggestTags(ctx context.Context, issueID string) (*triage.AutoTaggingResult, error) {
	issue, err := s.load(ctx, issueID)
	if err != nil {
		return nil, err
	}
	return s.Suggest(ctx, triage.ExtractContext(issue)), nil
}

// Suggest computes tag suggestions for an already extracted issue.
func (s *Service) Suggest(ctx context.Context, ic triage.IssueContext) *triage.AutoTaggingResult {
	merged := heuristics.ExtractPatternTags(ic.Text(), ic.Type)

	if s.reasoning != nil {
		aiTags, err := s.reasoning.SuggestTags(ctx, ic)
		if err != nil {
			reasoning.LogFallback("tagging", ic.ID, err)
		} else {
			for _, t := range aiTags {
				merged = triage.MergeTag(merged, t)
			}
		}
	}

	suggested := triage.RankTags(merged, s.minConfidence)

	toAdd := []string{}
	total := 0.0
	for _, t := range suggested {
		total += t.Confidence
		if !ic.HasLabel(t.Tag) {
			toAdd = append(toAdd, t.Tag)
		}
	}

	overall := 0.0
	if len(suggested) > 0 {
		overall = total / float64(len(suggested))
	}

	current := append([]string{}, ic.Labels...)
	log.Printf("[tagging] %s: %d suggested, %d new (overall confidence %.1f)", ic.ID, len(suggested), len(toAdd), overall)

	return &triage.AutoTaggingResult{
		IssueID:           ic.ID,
		Suggested:         suggested,
		CurrentTags:       current,
		TagsToAdd:         toAdd,
		OverallConfidence: overall,
	}
}

// ApplyTags adds tags to the issue's labels. The resulting label set is the
// de-duplicated union of the existing and new labels, so applying twice is a
// no-op. Nothing is written when no label changes.
func (s *Service) ApplyTags(ctx context.Context, issueID string, tags []string) ([]string, error) {
	issue, err := s.load(ctx, issueID)
	if err != nil {
		return nil, err
	}

	labels, changed := UnionLabels(issue.Labels, tags)
	if !changed {
		return labels, nil
	}

	issue.Labels = labels
	if err := s.issues.Save(ctx, issue); err != nil {
		return nil, fmt.Errorf("failed to save labels for %s: %w", issueID, err)
	}
	log.Printf("[tagging] Applied labels to %s: %v", issueID, labels)
	return labels, nil
}

// UnionLabels returns existing followed by the tags not already present, and
// whether anything was added.
func UnionLabels(existing, tags []string) ([]string, bool) {
	out := make([]string, 0, len(existing)+len(tags))
	seen := make(map[string]bool, len(existing)+len(tags))
	for _, l := range existing {
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}

	changed := false
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		changed = true
	}
	return out, changed
}

// BulkSuggest runs SuggestTags over ids. Failed ids are absent from the result.
func (s *Service) BulkSuggest(ctx context.Context, ids []string) (*triage.BulkResult[*triage.AutoTaggingResult], error) {
	if len(ids) == 0 {
		return nil, triage.NewValidationError("no issue ids given")
	}
	return triage.RunBulk(ctx, ids, s.concurrency, s.SuggestTags), nil
}

// BulkApply suggests and applies tags for each issue. Issues that fail to
// load or have no new tags are counted as skipped.
func (s *Service) BulkApply(ctx context.Context, ids []string) (*triage.BulkApplyResult, error) {
	recs, err := s.BulkSuggest(ctx, ids)
	if err != nil {
		return nil, err
	}

	res := triage.ApplyBulk(ctx, ids, recs,
		func(r *triage.AutoTaggingResult) bool { return r == nil || len(r.TagsToAdd) == 0 },
		func(ctx context.Context, id string, r *triage.AutoTaggingResult) error {
			_, err := s.ApplyTags(ctx, id, r.TagsToAdd)
			return err
		})
	log.Printf("[tagging] Bulk apply: %d applied, %d skipped", res.Applied, res.Skipped)
	return res, nil
}

func (s *Service) load(ctx context.Context, id string) (*triage.Issue, error) {
	if id == "" {
		return nil, triage.NewValidationError("issue id is required")
	}
	issue, err := s.issues.Get(ctx, id)
	if err != nil {
		if triage.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load issue %s: %w", id, err)
	}
	if issue == nil {
		return nil, triage.NewNotFoundError("issue", id)
	}
	return issue, nil
}
