package notify

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/similigh/simili-triage/internal/utils/text"
)

// DefaultDigestSize is the number of items kept in a digest.
const DefaultDigestSize = 10

// tier is one row of the ordered classification table.
type tier struct {
	priority Priority
	keywords []string
}

var tiers = []tier{
	{PriorityCritical, []string{"critical", "urgent", "emergency", "outage", "production down", "security breach", "data loss", "blocker"}},
	{PriorityHigh, []string{"high priority", "assigned to you", "mentioned you", "deadline", "overdue", "failed", "failure", "escalated"}},
	{PriorityMedium, []string{"comment", "commented", "updated", "status changed", "review", "replied"}},
	{PriorityLow, []string{"fyi", "digest", "reminder", "watching", "newsletter"}},
}

// Prioritizer classifies and routes notifications.
type Prioritizer struct {
	now        func() time.Time
	digestSize int
}

// Option configures a Prioritizer.
type Option func(*Prioritizer)

// WithClock overrides the time source used for quiet hours.
func WithClock(now func() time.Time) Option {
	return func(p *Prioritizer) { p.now = now }
}

// WithDigestSize overrides DefaultDigestSize.
func WithDigestSize(n int) Option {
	return func(p *Prioritizer) {
		if n > 0 {
			p.digestSize = n
		}
	}
}

// NewPrioritizer creates a Prioritizer.
func NewPrioritizer(opts ...Option) *Prioritizer {
	p := &Prioritizer{now: time.Now, digestSize: DefaultDigestSize}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Classify returns the priority of the first tier with a keyword in the
// notification's title or message, or low when nothing matches.
func (p *Prioritizer) Classify(n Notification) Priority {
	s := n.Title + " " + n.Message
	for _, t := range tiers {
		if text.ContainsAny(s, t.keywords) {
			return t.priority
		}
	}
	return PriorityLow
}

// FilterBatch routes userID's notifications according to prefs. Notifications
// addressed to another user are dropped. Suppressed types are routed before
// classification. Each routed notification carries its effective priority:
// the more urgent of its declared and classified priorities.
func (p *Prioritizer) FilterBatch(userID string, notifications []Notification, prefs Preferences) FilteredNotifications {
	out := FilteredNotifications{
		Critical:   []Notification{},
		Important:  []Notification{},
		Batched:    []Notification{},
		Suppressed: []Notification{},
	}
	quiet := InQuietHours(p.now(), prefs.QuietHours)

	for _, n := range notifications {
		if n.UserID != "" && userID != "" && n.UserID != userID {
			log.Printf("[notify] Dropping %s: addressed to %s, not %s", n.ID, n.UserID, userID)
			continue
		}
		if prefs.suppresses(n.Type) {
			out.Suppressed = append(out.Suppressed, n)
			continue
		}

		n.Priority = MaxPriority(n.Priority, p.Classify(n))

		switch {
		case n.Priority == PriorityCritical:
			out.Critical = append(out.Critical, n)
		case quiet:
			out.Batched = append(out.Batched, n)
		case n.Priority == PriorityHigh:
			out.Important = append(out.Important, n)
		case prefs.BatchNonUrgent:
			out.Batched = append(out.Batched, n)
		default:
			out.Important = append(out.Important, n)
		}
	}

	out.Digest = p.Digest(out.Batched)
	log.Printf("[notify] %s: %d critical, %d important, %d batched, %d suppressed (quiet hours: %t)",
		userID, len(out.Critical), len(out.Important), len(out.Batched), len(out.Suppressed), quiet)
	return out
}

// Digest summarizes batched notifications. Items holds the most recent ones,
// up to the digest size, in their input order.
func (p *Prioritizer) Digest(batched []Notification) Digest {
	d := Digest{
		Count:  len(batched),
		ByType: make(map[string]int),
		Items:  []Notification{},
	}
	if len(batched) == 0 {
		d.Summary = "No batched notifications"
		return d
	}

	for _, n := range batched {
		d.ByType[n.Type]++
	}

	types := make([]string, 0, len(d.ByType))
	for t := range d.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = fmt.Sprintf("%d %s", d.ByType[t], t)
	}
	noun := "notifications"
	if d.Count == 1 {
		noun = "notification"
	}
	d.Summary = fmt.Sprintf("%d batched %s: %s", d.Count, noun, strings.Join(parts, ", "))

	d.Items = mostRecent(batched, p.digestSize)
	return d
}

// mostRecent keeps the limit newest notifications, preserving input order.
// Equal timestamps favour earlier input positions.
func mostRecent(ns []Notification, limit int) []Notification {
	if len(ns) <= limit {
		return append([]Notification{}, ns...)
	}

	idx := make([]int, len(ns))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return ns[idx[a]].CreatedAt.After(ns[idx[b]].CreatedAt)
	})
	keep := idx[:limit]
	sort.Ints(keep)

	out := make([]Notification, len(keep))
	for i, k := range keep {
		out[i] = ns[k]
	}
	return out
}

// BatchSimilarNotifications collapses notifications sharing an issue key into
// one synthetic notification per key, placed where the key first appeared.
// Notifications without a key, and keys seen only once, pass through as is.
func (p *Prioritizer) BatchSimilarNotifications(notifications []Notification) []Notification {
	groups := make(map[string][]Notification)
	for _, n := range notifications {
		if n.IssueKey != "" {
			groups[n.IssueKey] = append(groups[n.IssueKey], n)
		}
	}

	out := make([]Notification, 0, len(notifications))
	emitted := make(map[string]bool)
	for _, n := range notifications {
		if n.IssueKey == "" || len(groups[n.IssueKey]) == 1 {
			out = append(out, n)
			continue
		}
		if emitted[n.IssueKey] {
			continue
		}
		emitted[n.IssueKey] = true
		out = append(out, p.collapse(n.IssueKey, groups[n.IssueKey]))
	}
	return out
}

// collapse merges a group. Members without a declared priority count with
// their classified one.
func (p *Prioritizer) collapse(key string, group []Notification) Notification {
	first := group[0]
	merged := Notification{
		ID:        uuid.NewString(),
		UserID:    first.UserID,
		Type:      first.Type,
		Title:     fmt.Sprintf("%d updates on %s", len(group), key),
		IssueKey:  key,
		Priority:  PriorityLow,
		CreatedAt: first.CreatedAt,
		Read:      true,
	}

	titles := make([]string, 0, len(group))
	for _, n := range group {
		pr := n.Priority
		if pr == "" {
			pr = p.Classify(n)
		}
		merged.Priority = MaxPriority(merged.Priority, pr)
		if n.CreatedAt.After(merged.CreatedAt) {
			merged.CreatedAt = n.CreatedAt
		}
		if !n.Read {
			merged.Read = false
		}
		if n.Type != first.Type {
			merged.Type = "mixed"
		}
		titles = append(titles, n.Title)
	}
	merged.Message = strings.Join(titles, "; ")
	return merged
}
