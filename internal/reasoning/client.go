// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-03-03
// Last Modified: 2026-03-11

package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/similigh/simili-triage/internal/triage"
	"github.com/similigh/simili-triage/internal/utils/text"
)

// Defaults applied by NewClient.
const (
	DefaultTimeout     = 5 * time.Second
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 1024
)

// ErrNoBackend is reported when no reasoning backend is configured.
var ErrNoBackend = errors.New("no reasoning backend configured")

// Options configures a Client. Zero values select the defaults; a nil
// Temperature selects DefaultTemperature while an explicit 0 is kept.
type Options struct {
	Timeout     time.Duration
	Temperature *float64
	MaxTokens   int
}

// Client issues single-attempt, time-bounded calls to a Backend and parses the
// first JSON value out of the reply. A nil *Client is valid and always fails
// with ErrNoBackend.
type Client struct {
	backend     Backend
	timeout     time.Duration
	temperature float64
	maxTokens   int
}

// NewClient creates a client over backend. A nil backend yields a nil client.
func NewClient(backend Backend, opts Options) *Client {
	if backend == nil {
		return nil
	}

	c := &Client{
		backend:     backend,
		timeout:     opts.Timeout,
		temperature: DefaultTemperature,
		maxTokens:   opts.MaxTokens,
	}
	if opts.Temperature != nil {
		c.temperature = min(max(*opts.Temperature, 0), 1)
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	return c
}

// Analyze builds the prompt for kind from issue, calls the backend once and
// returns the first JSON value of the reply. Every failure is an
// *triage.ExternalServiceError.
func (c *Client) Analyze(ctx context.Context, kind PromptKind, issue triage.IssueContext) (json.RawMessage, error) {
	prompt, err := BuildIssuePrompt(kind, issue)
	if err != nil {
		return nil, serviceError(kind, err)
	}
	return c.complete(ctx, kind, prompt)
}

func (c *Client) complete(ctx context.Context, kind PromptKind, prompt string) (json.RawMessage, error) {
	if c == nil || c.backend == nil {
		return nil, serviceError(kind, ErrNoBackend)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		out, err := c.backend.Complete(ctx, prompt, CompletionOptions{
			Temperature: c.temperature,
			MaxTokens:   c.maxTokens,
		})
		done <- reply{out, err}
	}()

	var r reply
	select {
	case r = <-done:
	case <-ctx.Done():
		return nil, serviceError(kind, fmt.Errorf("reasoning call timed out: %w", ctx.Err()))
	}
	if r.err != nil {
		return nil, serviceError(kind, r.err)
	}

	raw, err := ExtractFirstJSON(r.text)
	if err != nil {
		return nil, serviceError(kind, err)
	}
	if !json.Valid([]byte(raw)) {
		return nil, serviceError(kind, fmt.Errorf("invalid JSON in response: %s", truncateForLog(raw)))
	}
	return json.RawMessage(raw), nil
}

func serviceError(kind PromptKind, err error) *triage.ExternalServiceError {
	es := &triage.ExternalServiceError{Kind: string(kind), Err: err}
	var be *BackendError
	if errors.As(err, &be) {
		es.StatusCode = be.StatusCode
	}
	return es
}

func truncateForLog(s string) string {
	return text.Truncate(s, 120)
}

// AssignmentInsight is the validated reply to an assignment-analysis prompt.
// Zero fields mean the backend gave no usable value for them.
type AssignmentInsight struct {
	Complexity     triage.Complexity
	RequiredSkills []string
	EstimatedHours float64
}

// AnalyzeAssignment asks the backend to estimate the issue.
func (c *Client) AnalyzeAssignment(ctx context.Context, issue triage.IssueContext) (*AssignmentInsight, error) {
	raw, err := c.Analyze(ctx, KindAssignmentAnalysis, issue)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Complexity     string   `json:"complexity"`
		RequiredSkills []string `json:"requiredSkills"`
		EstimatedHours *float64 `json:"estimatedHours"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, serviceError(KindAssignmentAnalysis, fmt.Errorf("unexpected response shape: %w", err))
	}

	insight := &AssignmentInsight{RequiredSkills: cleanStrings(resp.RequiredSkills)}
	if cx := triage.Complexity(strings.ToLower(strings.TrimSpace(resp.Complexity))); cx.Valid() {
		insight.Complexity = cx
	}
	if resp.EstimatedHours != nil && *resp.EstimatedHours > 0 {
		insight.EstimatedHours = *resp.EstimatedHours
	}

	if insight.Complexity == "" && insight.EstimatedHours == 0 && len(insight.RequiredSkills) == 0 {
		return nil, serviceError(KindAssignmentAnalysis, errors.New("response has no usable fields"))
	}
	return insight, nil
}

type tagEntry struct {
	Tag        string   `json:"tag"`
	Confidence *float64 `json:"confidence"`
	Reason     string   `json:"reason"`
	Category   string   `json:"category"`
}

// SuggestTags asks the backend for tag suggestions. The reply may be a bare
// array or an object with a "tags" array. Entries without a tag are dropped,
// confidences are clamped and unknown categories become functional.
func (c *Client) SuggestTags(ctx context.Context, issue triage.IssueContext) ([]triage.TagSuggestion, error) {
	raw, err := c.Analyze(ctx, KindTagSuggestion, issue)
	if err != nil {
		return nil, err
	}

	var entries []tagEntry
	if len(raw) > 0 && raw[0] == '{' {
		var wrapped struct {
			Tags []tagEntry `json:"tags"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, serviceError(KindTagSuggestion, fmt.Errorf("unexpected response shape: %w", err))
		}
		if wrapped.Tags == nil {
			return nil, serviceError(KindTagSuggestion, errors.New(`response object has no "tags" array`))
		}
		entries = wrapped.Tags
	} else if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, serviceError(KindTagSuggestion, fmt.Errorf("unexpected response shape: %w", err))
	}

	tags := make([]triage.TagSuggestion, 0, len(entries))
	for _, e := range entries {
		tag := strings.TrimSpace(e.Tag)
		if tag == "" || e.Confidence == nil {
			continue
		}
		reason := strings.TrimSpace(e.Reason)
		if reason == "" {
			reason = "Suggested by AI analysis"
		}
		tags = append(tags, triage.TagSuggestion{
			Tag:        tag,
			Confidence: triage.Clamp(*e.Confidence),
			Reason:     reason,
			Category:   triage.ParseTagCategory(e.Category),
		})
	}
	return tags, nil
}

// EmailInsight is the validated reply to an email-parsing prompt.
type EmailInsight struct {
	Summary     string
	Description string
	Type        triage.IssueType
	Priority    triage.Priority
	Labels      []string
}

// ParseEmail asks the backend to turn an email into an issue draft.
func (c *Client) ParseEmail(ctx context.Context, email EmailInput) (*EmailInsight, error) {
	raw, err := c.complete(ctx, KindEmailParsing, BuildEmailPrompt(email))
	if err != nil {
		return nil, err
	}

	var resp struct {
		Summary     string   `json:"summary"`
		Description string   `json:"description"`
		Type        string   `json:"type"`
		Priority    string   `json:"priority"`
		Labels      []string `json:"labels"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, serviceError(KindEmailParsing, fmt.Errorf("unexpected response shape: %w", err))
	}

	summary := strings.TrimSpace(resp.Summary)
	if summary == "" {
		return nil, serviceError(KindEmailParsing, errors.New("response has no summary"))
	}

	insight := &EmailInsight{
		Summary:     summary,
		Description: strings.TrimSpace(resp.Description),
		Labels:      cleanStrings(resp.Labels),
	}
	switch t := triage.IssueType(strings.ToLower(strings.TrimSpace(resp.Type))); t {
	case triage.TypeBug, triage.TypeStory, triage.TypeTask, triage.TypeEpic, triage.TypeSubtask:
		insight.Type = t
	}
	switch p := triage.Priority(strings.ToLower(strings.TrimSpace(resp.Priority))); p {
	case triage.PriorityHighest, triage.PriorityHigh, triage.PriorityMedium, triage.PriorityLow, triage.PriorityLowest:
		insight.Priority = p
	}
	return insight, nil
}

// cleanStrings trims, drops empties and de-duplicates, keeping order.
func cleanStrings(in []string) []string {
	out := []string{}
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// LogFallback records a degraded call in the standard format.
func LogFallback(component string, issueID string, err error) {
	log.Printf("[%s] Reasoning unavailable for %s, falling back to heuristics (non-blocking): %v", component, issueID, err)
}
