package assign

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/similigh/simili-triage/internal/reasoning"
	"github.com/similigh/simili-triage/internal/store/memory"
	"github.com/similigh/simili-triage/internal/triage"
)

var loginBug = triage.IssueContext{
	ID:        "P-100",
	Type:      triage.TypeBug,
	Priority:  triage.PriorityHighest,
	Summary:   "Login API throwing 500",
	Labels:    []string{},
	ProjectID: "p",
}

var loginAnalysis = triage.Analysis{
	Complexity:     triage.ComplexityHigh,
	RequiredSkills: []string{"Node.js"},
	EstimatedHours: 8,
}

func TestScoreCandidateNoHistory(t *testing.T) {
	got := ScoreCandidate(triage.TeamMemberProfile{UserID: "u", Name: "New", IsActive: true}, loginBug, loginAnalysis, Workload{})

	if got.Expertise != 50 {
		t.Errorf("expertise = %v, want 50", got.Expertise)
	}
	found := false
	for _, r := range got.Reasons {
		if strings.Contains(strings.ToLower(r), "no history") {
			found = true
		}
	}
	if !found {
		t.Errorf("reasons do not mention missing history: %v", got.Reasons)
	}
}

func TestScoreWorkloadTiers(t *testing.T) {
	tests := []struct {
		name   string
		w      Workload
		want   float64
		reason string
	}{
		{"idle", Workload{}, 100, "No active issues"},
		{"light", Workload{ActiveIssues: 3}, 80, "Light workload"},
		{"moderate", Workload{ActiveIssues: 6}, 60, "Moderate workload"},
		{"heavy", Workload{ActiveIssues: 10}, 30, "Heavy workload"},
		{"overloaded", Workload{ActiveIssues: 11}, 10, "Overloaded"},
		{"points penalty", Workload{ActiveIssues: 2, ActivePoints: 41}, 60, "exceeds 40"},
		{"points at threshold", Workload{ActiveIssues: 2, ActivePoints: 40}, 80, "Light workload"},
		{"both penalties floor at zero", Workload{ActiveIssues: 12, ActivePoints: 45}, 0, "exceeds 40"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, why := scoreWorkload(tt.w, nil)
			if got != tt.want {
				t.Errorf("workload = %v, want %v", got, tt.want)
			}
			if len(why) == 0 || !strings.Contains(strings.Join(why, "|"), tt.reason) {
				t.Errorf("reasons %v missing %q", why, tt.reason)
			}
		})
	}
}

func TestScoreExpertiseComponents(t *testing.T) {
	history := []triage.Issue{
		{Type: triage.TypeBug, Summary: "Fix API timeout", Done: true},
		{Type: triage.TypeBug, Summary: "Crash in settings", Done: false},
		{Type: triage.TypeTask, Summary: "Write docs", Done: true},
		{Type: "BUG", Summary: "Button misaligned", Done: true},
	}
	analysis := triage.Analysis{RequiredSkills: []string{"Node.js", "Security"}}

	got, why := scoreExpertise(history, loginBug, analysis, nil)
	// 30*3/4 + 40/2 + 30*3/4
	want := 22.5 + 20 + 22.5
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expertise = %v, want %v", got, want)
	}
	if len(why) != 3 {
		t.Errorf("expected one reason per component, got %v", why)
	}
}

func TestScoreExpertiseNoRequiredSkills(t *testing.T) {
	history := []triage.Issue{{Type: triage.TypeBug, Done: true}}
	got, why := scoreExpertise(history, loginBug, triage.Analysis{}, nil)
	if got != 60 {
		t.Errorf("expertise = %v, want 60", got)
	}
	if !strings.Contains(strings.Join(why, "|"), "No specific skills required") {
		t.Errorf("reasons = %v", why)
	}
}

func TestScoreCandidateFormula(t *testing.T) {
	profiles := []triage.TeamMemberProfile{
		{UserID: "a", IsActive: true},
		{UserID: "b", IsActive: false, PastIssues: []triage.Issue{{Type: triage.TypeBug, Summary: "api", Done: true}}},
		{UserID: "c", IsActive: true, PastIssues: []triage.Issue{{Type: triage.TypeStory, Summary: "css"}}},
	}
	loads := []Workload{{}, {ActiveIssues: 4}, {ActiveIssues: 20, ActivePoints: 100}}

	for _, p := range profiles {
		for _, w := range loads {
			got := ScoreCandidate(p, loginBug, loginAnalysis, w)
			want := 0.4*got.Expertise + 0.4*got.Workload + 0.2*got.Availability
			if math.Abs(got.Score-want) > 1e-9 {
				t.Errorf("%s/%+v: score %v != %v", p.UserID, w, got.Score, want)
			}
			if got.Score < 0 || got.Score > 100 {
				t.Errorf("%s/%+v: score %v out of range", p.UserID, w, got.Score)
			}
			if got.Reasons == nil {
				t.Errorf("%s/%+v: nil reasons", p.UserID, w)
			}
		}
	}
}

func TestScoreCandidateInactive(t *testing.T) {
	got := ScoreCandidate(triage.TeamMemberProfile{UserID: "x"}, loginBug, loginAnalysis, Workload{})
	if got.Availability != 0 {
		t.Errorf("availability = %v, want 0", got.Availability)
	}
	if math.Abs(got.Score-60) > 1e-9 {
		t.Errorf("score = %v", got.Score)
	}
}

// fixture builds a project with an expert (u1), a newcomer (u2) and an
// inactive member (u3).
func fixture() *memory.Store {
	day := func(d int) time.Time { return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC) }
	return memory.FromSnapshot(memory.Snapshot{
		Issues: []triage.Issue{
			{ID: "P-100", ProjectID: "p", Type: "Bug", Priority: "Highest", Summary: "Login API throwing 500", UpdatedAt: day(10)},
			{ID: "P-1", ProjectID: "p", Type: triage.TypeBug, Summary: "API returns 404", AssigneeID: "u1", Done: true, UpdatedAt: day(1)},
			{ID: "P-2", ProjectID: "p", Type: triage.TypeBug, Summary: "Server crash on API call", AssigneeID: "u1", Done: true, UpdatedAt: day(2)},
			{ID: "P-3", ProjectID: "", Summary: "orphan"},
		},
		Members: map[string][]triage.TeamMember{
			"p": {
				{UserID: "u2", Name: "Newcomer", IsActive: true},
				{UserID: "u3", Name: "Away", IsActive: false},
				{UserID: "u1", Name: "Expert", IsActive: true},
			},
		},
	})
}

func TestRecommendRanksCandidates(t *testing.T) {
	store := fixture()
	svc := NewService(store, store, nil, Options{})

	res, err := svc.Recommend(context.Background(), "P-100")
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}

	if res.Recommended == nil || res.Recommended.UserID != "u1" {
		t.Fatalf("recommended = %+v, want u1", res.Recommended)
	}
	if math.Abs(res.Recommended.Score-100) > 1e-9 {
		t.Errorf("u1 score = %v, want 100", res.Recommended.Score)
	}

	var alts []string
	for _, a := range res.Alternatives {
		alts = append(alts, a.UserID)
		if a.UserID == res.Recommended.UserID {
			t.Error("recommended member listed as alternative")
		}
	}
	if !reflect.DeepEqual(alts, []string{"u2", "u3"}) {
		t.Errorf("alternatives = %v, want [u2 u3]", alts)
	}
	if res.Analysis.Complexity != triage.ComplexityHigh || res.Analysis.EstimatedHours != 8 {
		t.Errorf("analysis = %+v", res.Analysis)
	}
}

func TestRecommendErrors(t *testing.T) {
	store := fixture()
	empty := memory.New()
	allAway := memory.FromSnapshot(memory.Snapshot{
		Issues: []triage.Issue{{ID: "P-1", ProjectID: "p", Type: triage.TypeTask, Summary: "Rotate keys"}},
		Members: map[string][]triage.TeamMember{
			"p": {
				{UserID: "u1", Name: "Away", IsActive: false},
				{UserID: "u2", Name: "Gone", IsActive: false},
			},
		},
	})

	tests := []struct {
		name    string
		svc     *Service
		id      string
		checkFn func(error) bool
	}{
		{"missing issue", NewService(store, store, nil, Options{}), "P-999", triage.IsNotFound},
		{"empty id", NewService(store, store, nil, Options{}), "", triage.IsValidation},
		{"no project", NewService(store, store, nil, Options{}), "P-3", triage.IsValidation},
		{"no team members", NewService(store, empty, nil, Options{}), "P-100", triage.IsValidation},
		{"only inactive members", NewService(allAway, allAway, nil, Options{}), "P-1", triage.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.svc.Recommend(context.Background(), tt.id)
			if res != nil {
				t.Errorf("expected no result, got %+v", res)
			}
			if !tt.checkFn(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	_, err := NewService(store, empty, nil, Options{}).Recommend(context.Background(), "P-100")
	if err == nil || !strings.Contains(err.Error(), "no team members") {
		t.Errorf("error = %v", err)
	}
	_, err = NewService(allAway, allAway, nil, Options{}).Recommend(context.Background(), "P-1")
	if err == nil || !strings.Contains(err.Error(), "no team members") {
		t.Errorf("inactive-only error = %v", err)
	}
}

type stubBackend struct {
	reply string
	err   error
}

func (b stubBackend) Complete(ctx context.Context, prompt string, opts reasoning.CompletionOptions) (string, error) {
	return b.reply, b.err
}

func TestRecommendReasoningAugmentsAnalysis(t *testing.T) {
	store := fixture()
	rc := reasoning.NewClient(stubBackend{reply: `{"complexity":"low","requiredSkills":["Security","Node.js"],"estimatedHours":2}`}, reasoning.Options{})

	res, err := NewService(store, store, rc, Options{}).Recommend(context.Background(), "P-100")
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	want := triage.Analysis{
		Complexity:     triage.ComplexityLow,
		RequiredSkills: []string{"Node.js", "Security"},
		EstimatedHours: 2,
	}
	if !reflect.DeepEqual(res.Analysis, want) {
		t.Errorf("analysis = %+v, want %+v", res.Analysis, want)
	}
}

func TestRecommendFallsBackWhenReasoningFails(t *testing.T) {
	store := fixture()
	backends := []stubBackend{
		{err: errors.New("503 from upstream")},
		{reply: "not json at all"},
		{reply: `{"complexity":`},
	}

	for _, b := range backends {
		rc := reasoning.NewClient(b, reasoning.Options{})
		res, err := NewService(store, store, rc, Options{}).Recommend(context.Background(), "P-100")
		if err != nil {
			t.Fatalf("reasoning failure leaked to caller: %v", err)
		}
		if res.Analysis.Complexity != triage.ComplexityHigh || !reflect.DeepEqual(res.Analysis.RequiredSkills, []string{"Node.js"}) {
			t.Errorf("expected heuristic analysis, got %+v", res.Analysis)
		}
	}
}

func TestBulkRecommendAndApply(t *testing.T) {
	ctx := context.Background()
	store := fixture()
	svc := NewService(store, store, nil, Options{Concurrency: 3})

	if _, err := svc.BulkRecommend(ctx, nil); !triage.IsValidation(err) {
		t.Errorf("expected ValidationError for empty ids, got %v", err)
	}

	recs, err := svc.BulkRecommend(ctx, []string{"P-100", "P-999", "P-3"})
	if err != nil {
		t.Fatalf("BulkRecommend failed: %v", err)
	}
	if !reflect.DeepEqual(recs.IDs(), []string{"P-100"}) {
		t.Errorf("bulk ids = %v", recs.IDs())
	}

	res, err := svc.BulkApply(ctx, []string{"P-100", "P-999"})
	if err != nil {
		t.Fatalf("BulkApply failed: %v", err)
	}
	if res.Applied != 1 || res.Skipped != 1 {
		t.Errorf("applied=%d skipped=%d", res.Applied, res.Skipped)
	}

	got, _ := store.Get(ctx, "P-100")
	if got.AssigneeID != "u1" {
		t.Errorf("assignee = %q, want u1", got.AssigneeID)
	}
}

func TestApplyRequiresUser(t *testing.T) {
	store := fixture()
	if err := NewService(store, store, nil, Options{}).Apply(context.Background(), "P-100", ""); !triage.IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}
