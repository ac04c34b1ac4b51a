// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-03-02
// Last Modified: 2026-03-09

// Package triage holds the data model shared by the recommendation engine:
// issue snapshots, team member profiles, score breakdowns, tag suggestions
// and the bulk result containers.
package triage

import (
	"strings"
	"time"
)

// IssueType is the workflow type of an issue.
type IssueType string

const (
	TypeEpic    IssueType = "epic"
	TypeStory   IssueType = "story"
	TypeTask    IssueType = "task"
	TypeBug     IssueType = "bug"
	TypeSubtask IssueType = "subtask"
)

// Priority is the tracker priority of an issue.
type Priority string

const (
	PriorityHighest Priority = "highest"
	PriorityHigh    Priority = "high"
	PriorityMedium  Priority = "medium"
	PriorityLow     Priority = "low"
	PriorityLowest  Priority = "lowest"
)

// Complexity is the estimated effort class of an issue.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Valid reports whether c is one of the known complexity classes.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
		return true
	}
	return false
}

// TagCategory groups tag suggestions.
type TagCategory string

const (
	CategoryTechnical  TagCategory = "technical"
	CategoryFunctional TagCategory = "functional"
	CategoryPriority   TagCategory = "priority"
	CategoryTeam       TagCategory = "team"
	CategoryStatus     TagCategory = "status"
)

// ParseTagCategory normalizes a category string. Unknown values map to functional.
func ParseTagCategory(s string) TagCategory {
	switch c := TagCategory(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryTechnical, CategoryFunctional, CategoryPriority, CategoryTeam, CategoryStatus:
		return c
	}
	return CategoryFunctional
}

// Issue is the stored issue record as returned by an IssueStore.
type Issue struct {
	ID          string    `json:"id"`
	Key         string    `json:"key,omitempty"`
	ProjectID   string    `json:"project_id"`
	Type        IssueType `json:"type"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Priority    Priority  `json:"priority"`
	Labels      []string  `json:"labels"`
	AssigneeID  string    `json:"assignee_id,omitempty"`
	Status      string    `json:"status,omitempty"`
	Done        bool      `json:"done"` // status category is terminal
	StoryPoints float64   `json:"story_points,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IssueContext is the immutable snapshot of an issue taken at recommendation time.
type IssueContext struct {
	ID          string    `json:"id"`
	Type        IssueType `json:"type"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	Labels      []string  `json:"labels"`
	ProjectID   string    `json:"project_id"`
}

// Text returns the lower-cased concatenation of summary, description and labels
// used by keyword analysis.
func (c IssueContext) Text() string {
	parts := []string{c.Summary, c.Description, strings.Join(c.Labels, " ")}
	return strings.ToLower(strings.Join(parts, " "))
}

// HasLabel reports whether the issue already carries label (case-sensitive).
func (c IssueContext) HasLabel(label string) bool {
	for _, l := range c.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// TeamMember is an entry returned by a TeamMemberStore.
type TeamMember struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// TeamMemberProfile is a team member plus a bounded, most-recent-first slice of
// issues previously assigned to them.
type TeamMemberProfile struct {
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	IsActive   bool    `json:"is_active"`
	PastIssues []Issue `json:"past_issues"`
}

// MaxPastIssues bounds TeamMemberProfile.PastIssues.
const MaxPastIssues = 50

// Analysis is the complexity estimate for an issue.
type Analysis struct {
	Complexity     Complexity `json:"complexity"`
	RequiredSkills []string   `json:"required_skills"`
	EstimatedHours float64    `json:"estimated_hours"`
}

// ScoreBreakdown is the explained score of one candidate assignee.
type ScoreBreakdown struct {
	UserID       string   `json:"user_id"`
	UserName     string   `json:"user_name"`
	Score        float64  `json:"score"`
	Expertise    float64  `json:"expertise"`
	Workload     float64  `json:"workload"`
	Availability float64  `json:"availability"`
	Reasons      []string `json:"reasons"`
}

// Recommendation is the summary of the top-ranked candidate.
type Recommendation struct {
	UserID   string   `json:"user_id"`
	UserName string   `json:"user_name"`
	Score    float64  `json:"score"`
	Reasons  []string `json:"reasons"`
}

// AutoAssignmentResult is the outcome of an auto-assignment recommendation.
type AutoAssignmentResult struct {
	IssueID      string           `json:"issue_id"`
	Recommended  *Recommendation  `json:"recommended"`
	Alternatives []ScoreBreakdown `json:"alternatives"`
	Analysis     Analysis         `json:"analysis"`
}

// TagSuggestion is one suggested tag.
type TagSuggestion struct {
	Tag        string      `json:"tag"`
	Confidence float64     `json:"confidence"`
	Reason     string      `json:"reason"`
	Category   TagCategory `json:"category"`
}

// AutoTaggingResult is the outcome of an auto-tagging recommendation.
type AutoTaggingResult struct {
	IssueID           string          `json:"issue_id"`
	Suggested         []TagSuggestion `json:"suggested"`
	CurrentTags       []string        `json:"current_tags"`
	TagsToAdd         []string        `json:"tags_to_add"`
	OverallConfidence float64         `json:"overall_confidence"`
}

// Clamp limits a score or confidence value to [0,100].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
