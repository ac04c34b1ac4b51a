// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-03-06
// Last Modified: 2026-03-10

// Package notify classifies notifications by urgency and routes a user's
// batch into critical, important, batched and suppressed buckets.
package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Priority is the urgency of a notification.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank orders priorities; higher is more urgent. Unknown values rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	}
	return 0
}

// MaxPriority returns the more urgent of a and b.
func MaxPriority(a, b Priority) Priority {
	if b.Rank() > a.Rank() {
		return b
	}
	if a.Rank() == 0 {
		return PriorityLow
	}
	return a
}

// Notification is a message destined for one user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IssueKey  string    `json:"issue_key,omitempty"`
	Priority  Priority  `json:"priority,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// Clock is a wall-clock time of day in minutes since midnight.
type Clock int

// ParseClock parses "HH:MM" in 24-hour form.
func ParseClock(s string) (Clock, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 || len(m) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return Clock(hour*60 + minute), nil
}

// ClockOf returns the time of day of t in t's location.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// QuietHours is a [Start, End) window of the day that may wrap past midnight.
type QuietHours struct {
	Enabled bool
	Start   Clock
	End     Clock
}

// Contains reports whether c falls inside the window. A window whose start
// equals its end is empty.
func (q QuietHours) Contains(c Clock) bool {
	if !q.Enabled || q.Start == q.End {
		return false
	}
	if q.Start < q.End {
		return c >= q.Start && c < q.End
	}
	return c >= q.Start || c < q.End
}

// InQuietHours reports whether t falls inside q.
func InQuietHours(t time.Time, q QuietHours) bool {
	return q.Contains(ClockOf(t))
}

// Preferences are a user's delivery settings.
type Preferences struct {
	QuietHours      QuietHours
	BatchNonUrgent  bool
	SuppressedTypes []string
}

func (p Preferences) suppresses(notificationType string) bool {
	for _, t := range p.SuppressedTypes {
		if strings.EqualFold(t, notificationType) {
			return true
		}
	}
	return false
}

// Digest summarizes the batched bucket.
type Digest struct {
	Count   int            `json:"count"`
	ByType  map[string]int `json:"by_type"`
	Summary string         `json:"summary"`
	Items   []Notification `json:"items"`
}

// FilteredNotifications is the routed batch.
type FilteredNotifications struct {
	Critical   []Notification `json:"critical"`
	Important  []Notification `json:"important"`
	Batched    []Notification `json:"batched"`
	Suppressed []Notification `json:"suppressed"`
	Digest     Digest         `json:"digest"`
}
