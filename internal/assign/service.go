package assign

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/similigh/simili-triage/internal/heuristics"
	"github.com/similigh/simili-triage/internal/reasoning"
	"github.com/similigh/simili-triage/internal/triage"
)

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	HistoryLimit    int
	MaxAlternatives int
	Concurrency     int
}

// Service produces and applies assignment recommendations.
type Service struct {
	issues          triage.IssueStore
	members         triage.TeamMemberStore
	reasoning       *reasoning.Client
	historyLimit    int
	maxAlternatives int
	concurrency     int
}

// NewService creates an assignment service. rc may be nil, in which case only
// the heuristics are used.
func NewService(issues triage.IssueStore, members triage.TeamMemberStore, rc *reasoning.Client, opts Options) *Service {
	s := &Service{
		issues:          issues,
		members:         members,
		reasoning:       rc,
		historyLimit:    opts.HistoryLimit,
		maxAlternatives: opts.MaxAlternatives,
		concurrency:     opts.Concurrency,
	}
	if s.historyLimit <= 0 || s.historyLimit > triage.MaxPastIssues {
		s.historyLimit = triage.MaxPastIssues
	}
	if s.maxAlternatives <= 0 {
		s.maxAlternatives = triage.DefaultMaxAlternatives
	}
	if s.concurrency <= 0 {
		s.concurrency = 1
	}
	return s
}

// Recommend scores every active member of the issue's project and returns the
// best candidate plus alternatives.
func (s *Service) Recommend(ctx context.Context, issueID string) (*triage.AutoAssignmentResult, error) {
	issue, err := loadIssue(ctx, s.issues, issueID)
	if err != nil {
		return nil, err
	}

	ic := triage.ExtractContext(issue)
	if ic.ProjectID == "" {
		return nil, triage.NewValidationError("issue %s has no project", ic.ID)
	}

	analysis := s.analyze(ctx, ic)

	members, err := s.members.ListActiveMembers(ctx, ic.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	if countActive(members) == 0 {
		return nil, triage.NewValidationError("no team members")
	}

	candidates := make([]triage.ScoreBreakdown, 0, len(members))
	for _, m := range members {
		profile, err := s.profile(ctx, m, ic.ID)
		if err != nil {
			return nil, err
		}
		workload, err := s.workload(ctx, m.UserID, ic)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, ScoreCandidate(profile, ic, analysis, workload))
	}

	rec, alternatives := triage.Aggregate(candidates, s.maxAlternatives)
	if rec != nil {
		log.Printf("[assign] Recommended %s for %s (score %.1f, %d alternatives)", rec.UserID, ic.ID, rec.Score, len(alternatives))
	}

	return &triage.AutoAssignmentResult{
		IssueID:      ic.ID,
		Recommended:  rec,
		Alternatives: alternatives,
		Analysis:     analysis,
	}, nil
}

// analyze runs the heuristics and, when available, lets the reasoning backend
// refine them. Backend failures only cost the refinement.
func (s *Service) analyze(ctx context.Context, ic triage.IssueContext) triage.Analysis {
	analysis := heuristics.AnalyzeIssueComplexity(ic)
	if s.reasoning == nil {
		return analysis
	}

	insight, err := s.reasoning.AnalyzeAssignment(ctx, ic)
	if err != nil {
		reasoning.LogFallback("assign", ic.ID, err)
		return analysis
	}

	if insight.Complexity != "" {
		analysis.Complexity = insight.Complexity
	}
	if insight.EstimatedHours > 0 {
		analysis.EstimatedHours = insight.EstimatedHours
	}
	analysis.RequiredSkills = unionStrings(analysis.RequiredSkills, insight.RequiredSkills)
	return analysis
}

// profile builds the member's recent history, excluding the issue being assigned.
func (s *Service) profile(ctx context.Context, m triage.TeamMember, issueID string) (triage.TeamMemberProfile, error) {
	all, err := s.issues.FindByAssignee(ctx, m.UserID, "")
	if err != nil {
		return triage.TeamMemberProfile{}, fmt.Errorf("failed to load history for %s: %w", m.UserID, err)
	}

	past := make([]triage.Issue, 0, len(all))
	for _, is := range all {
		if is.ID != issueID {
			past = append(past, is)
		}
	}
	sort.SliceStable(past, func(i, j int) bool {
		return past[i].UpdatedAt.After(past[j].UpdatedAt)
	})
	if len(past) > s.historyLimit {
		past = past[:s.historyLimit]
	}

	return triage.TeamMemberProfile{
		UserID:     m.UserID,
		Name:       m.Name,
		IsActive:   m.IsActive,
		PastIssues: past,
	}, nil
}

func (s *Service) workload(ctx context.Context, userID string, ic triage.IssueContext) (Workload, error) {
	open, err := s.issues.FindByAssignee(ctx, userID, ic.ProjectID)
	if err != nil {
		return Workload{}, fmt.Errorf("failed to load workload for %s: %w", userID, err)
	}

	var w Workload
	for _, is := range open {
		if is.Done || is.ID == ic.ID {
			continue
		}
		w.ActiveIssues++
		w.ActivePoints += is.StoryPoints
	}
	return w, nil
}

// Apply assigns the issue to userID.
func (s *Service) Apply(ctx context.Context, issueID, userID string) error {
	if userID == "" {
		return triage.NewValidationError("no assignee given for %s", issueID)
	}
	issue, err := loadIssue(ctx, s.issues, issueID)
	if err != nil {
		return err
	}

	issue.AssigneeID = userID
	if err := s.issues.Save(ctx, issue); err != nil {
		return fmt.Errorf("failed to save assignment for %s: %w", issueID, err)
	}
	log.Printf("[assign] Assigned %s to %s", issueID, userID)
	return nil
}

// BulkRecommend runs Recommend over ids. Failed ids are absent from the result.
func (s *Service) BulkRecommend(ctx context.Context, ids []string) (*triage.BulkResult[*triage.AutoAssignmentResult], error) {
	if len(ids) == 0 {
		return nil, triage.NewValidationError("no issue ids given")
	}
	return triage.RunBulk(ctx, ids, s.concurrency, s.Recommend), nil
}

// BulkApply recommends and assigns each issue. Issues that fail to load or
// get no recommendation are counted as skipped.
func (s *Service) BulkApply(ctx context.Context, ids []string) (*triage.BulkApplyResult, error) {
	recs, err := s.BulkRecommend(ctx, ids)
	if err != nil {
		return nil, err
	}

	res := triage.ApplyBulk(ctx, ids, recs,
		func(r *triage.AutoAssignmentResult) bool { return r == nil || r.Recommended == nil },
		func(ctx context.Context, id string, r *triage.AutoAssignmentResult) error {
			return s.Apply(ctx, id, r.Recommended.UserID)
		})
	log.Printf("[assign] Bulk apply: %d applied, %d skipped", res.Applied, res.Skipped)
	return res, nil
}

func loadIssue(ctx context.Context, store triage.IssueStore, id string) (*triage.Issue, error) {
	if id == "" {
		return nil, triage.NewValidationError("issue id is required")
	}
	issue, err := store.Get(ctx, id)
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

func unionStrings(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// countActive returns how many members are active. Inactive members are still
// scored, but only as low-availability candidates next to an active one.
func countActive(members []triage.TeamMember) int {
	n := 0
	for _, m := range members {
		if m.IsActive {
			n++
		}
	}
	return n
}
