package triage

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// FeedbackKind names the recommender a feedback event is about.
type FeedbackKind string

const (
	FeedbackAssignment FeedbackKind = "assignment"
	FeedbackTagging    FeedbackKind = "tagging"
)

// FeedbackEvent records whether a user accepted a recommendation.
type FeedbackEvent struct {
	ID         string       `json:"id"`
	IssueID    string       `json:"issue_id"`
	Kind       FeedbackKind `json:"kind"`
	Accepted   bool         `json:"accepted"`
	Suggested  []string     `json:"suggested,omitempty"`
	Chosen     []string     `json:"chosen,omitempty"`
	Note       string       `json:"note,omitempty"`
	RecordedAt time.Time    `json:"recorded_at"`
}

// RecordFeedback accepts a feedback event and logs it. Events are not stored
// and do not influence later recommendations.
func RecordFeedback(ctx context.Context, ev FeedbackEvent) FeedbackEvent {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.RecordedAt.IsZero() {
		ev.RecordedAt = time.Now().UTC()
	}
	log.Printf("[feedback] %s %s on %s: accepted=%t suggested=%v chosen=%v",
		ev.ID, ev.Kind, ev.IssueID, ev.Accepted, ev.Suggested, ev.Chosen)
	return ev
}
