// Package intake turns inbound emails into issue drafts.
package intake

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/similigh/simili-triage/internal/heuristics"
	"github.com/similigh/simili-triage/internal/notify"
	"github.com/similigh/simili-triage/internal/reasoning"
	"github.com/similigh/simili-triage/internal/triage"
	"github.com/similigh/simili-triage/internal/utils/text"
)

// Draft sources.
const (
	SourceReasoning = "reasoning"
	SourceHeuristic = "heuristic"
)

// maxSummaryLen bounds a summary taken from a subject line.
const maxSummaryLen = 120

// Email is an inbound message.
type Email = reasoning.EmailInput

// IssueDraft is a proposed issue built from an email. It is not saved.
type IssueDraft struct {
	ProjectID   string           `json:"project_id,omitempty"`
	Summary     string           `json:"summary"`
	Description string           `json:"description"`
	Type        triage.IssueType `json:"type"`
	Priority    triage.Priority  `json:"priority"`
	Labels      []string         `json:"labels"`
	Reporter    string           `json:"reporter,omitempty"`
	Source      string           `json:"source"`
}

var (
	replyPrefix = regexp.MustCompile(`(?i)^\s*((re|fw|fwd)\s*:\s*)+`)

	bugWords     = []string{"bug", "error", "broken", "crash", "crashes", "fails", "failing", "exception", "500", "not working"}
	featureWords = []string{"feature", "feature request", "would like", "add support", "enhancement", "it would be nice"}
)

// Parser builds issue drafts from emails.
type Parser struct {
	reasoning   *reasoning.Client
	prioritizer *notify.Prioritizer
}

// NewParser creates a parser. rc may be nil.
func NewParser(rc *reasoning.Client) *Parser {
	return &Parser{reasoning: rc, prioritizer: notify.NewPrioritizer()}
}

// ParseEmail drafts an issue for projectID from email. The reasoning backend
// is tried first; missing fields and backend failures fall back to keyword
// heuristics.
func (p *Parser) ParseEmail(ctx context.Context, projectID string, email Email) (*IssueDraft, error) {
	if strings.TrimSpace(email.Subject) == "" && strings.TrimSpace(email.Body) == "" {
		return nil, triage.NewValidationError("email has no subject or body")
	}

	fallback := p.heuristicDraft(email)
	fallback.ProjectID = projectID

	if p.reasoning == nil {
		return fallback, nil
	}

	insight, err := p.reasoning.ParseEmail(ctx, email)
	if err != nil {
		reasoning.LogFallback("intake", email.Subject, err)
		return fallback, nil
	}

	draft := &IssueDraft{
		ProjectID:   projectID,
		Summary:     insight.Summary,
		Description: insight.Description,
		Type:        insight.Type,
		Priority:    insight.Priority,
		Labels:      insight.Labels,
		Reporter:    fallback.Reporter,
		Source:      SourceReasoning,
	}
	if draft.Description == "" {
		draft.Description = fallback.Description
	}
	if draft.Type == "" {
		draft.Type = fallback.Type
	}
	if draft.Priority == "" {
		draft.Priority = fallback.Priority
	}
	if len(draft.Labels) == 0 {
		draft.Labels = fallback.Labels
	}
	log.Printf("[intake] Drafted %q from email by %s", draft.Summary, draft.Reporter)
	return draft, nil
}

func (p *Parser) heuristicDraft(email Email) *IssueDraft {
	summary := strings.TrimSpace(replyPrefix.ReplaceAllString(email.Subject, ""))
	body := strings.TrimSpace(email.Body)
	if summary == "" {
		summary = firstLine(body)
	}
	summary = text.Truncate(summary, maxSummaryLen)

	s := summary + " " + body
	issueType := triage.TypeTask
	switch {
	case text.ContainsAny(s, bugWords):
		issueType = triage.TypeBug
	case text.ContainsAny(s, featureWords):
		issueType = triage.TypeStory
	}

	priority := triage.PriorityMedium
	switch p.prioritizer.Classify(notify.Notification{Title: summary, Message: body}) {
	case notify.PriorityCritical:
		priority = triage.PriorityHighest
	case notify.PriorityHigh:
		priority = triage.PriorityHigh
	}

	labels := []string{}
	for _, t := range triage.RankTags(heuristics.ExtractPatternTags(strings.ToLower(s), issueType), 60) {
		labels = append(labels, t.Tag)
	}

	return &IssueDraft{
		Summary:     summary,
		Description: body,
		Type:        issueType,
		Priority:    priority,
		Labels:      labels,
		Reporter:    strings.TrimSpace(email.From),
		Source:      SourceHeuristic,
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
