package steps

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/similigh/simili-triage/internal/assign"
	"github.com/similigh/simili-triage/internal/core/config"
	"github.com/similigh/simili-triage/internal/core/pipeline"
	"github.com/similigh/simili-triage/internal/store/memory"
	"github.com/similigh/simili-triage/internal/tagging"
	"github.com/similigh/simili-triage/internal/triage"
)

type fakeCommenter struct {
	err      error
	comments map[string]string
}

func (c *fakeCommenter) Comment(ctx context.Context, issueID, body string) error {
	if c.err != nil {
		return c.err
	}
	if c.comments == nil {
		c.comments = map[string]string{}
	}
	c.comments[issueID] = body
	return nil
}

func newFixture() *memory.Store {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := memory.FromSnapshot(memory.Snapshot{
		Issues: []triage.Issue{
			{ID: "acme/api#1", ProjectID: "acme/api", Type: triage.TypeBug, Summary: "Login API throwing 500", Labels: []string{"bug"}, UpdatedAt: now},
			{ID: "acme/api#2", ProjectID: "acme/api", Type: triage.TypeTask, Summary: "Improve things", Labels: []string{}, UpdatedAt: now},
			{ID: "acme/api#3", ProjectID: "acme/api", Type: triage.TypeBug, Summary: "Old crash", Done: true, UpdatedAt: now},
			{ID: "acme/api#4", ProjectID: "acme/api", Type: triage.TypeBug, Summary: "Crash on save", Labels: []string{"WontFix"}, UpdatedAt: now},
			{ID: "acme/api#9", ProjectID: "acme/api", Type: triage.TypeBug, Summary: "Fix token refresh", AssigneeID: "alice", Done: true, UpdatedAt: now.Add(-time.Hour)},
			{ID: "solo/app#1", ProjectID: "solo/app", Type: triage.TypeBug, Summary: "Login API throwing 500", Labels: []string{"bug"}, UpdatedAt: now},
		},
	})
	s.AddMember("acme/api", triage.TeamMember{UserID: "alice", Name: "Alice", IsActive: true})
	s.AddMember("acme/api", triage.TeamMember{UserID: "bob", Name: "Bob", IsActive: true})
	return s
}

func newDeps(store *memory.Store, commenter pipeline.Commenter, dryRun bool) *pipeline.Dependencies {
	deps := &pipeline.Dependencies{
		Issues:   store,
		Assigner: assign.NewService(store, store, nil, assign.Options{}),
		Tagger:   tagging.NewService(store, nil, tagging.Options{}),
		DryRun:   dryRun,
	}
	if commenter != nil {
		deps.Commenter = commenter
	}
	return deps
}

func runWorkflow(t *testing.T, store *memory.Store, deps *pipeline.Dependencies, workflow, issueID string) *pipeline.Context {
	t.Helper()

	reg := pipeline.NewRegistry()
	RegisterAll(reg)

	cfg := config.Default()
	cfg.SkipLabels = []string{"wontfix"}

	p, err := reg.BuildFromNames(pipeline.ResolveSteps(nil, workflow), deps)
	if err != nil {
		t.Fatalf("BuildFromNames failed: %v", err)
	}

	issue, err := store.Get(context.Background(), issueID)
	if err != nil {
		t.Fatalf("Get(%s) failed: %v", issueID, err)
	}
	ctx := pipeline.NewContext(context.Background(), issue, cfg)
	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return ctx
}

func TestFullTriageAppliesRecommendations(t *testing.T) {
	store := newFixture()
	commenter := &fakeCommenter{}

	ctx := runWorkflow(t, store, newDeps(store, commenter, false), "full-triage", "acme/api#1")

	if ctx.Result.Skipped {
		t.Fatalf("unexpected skip: %s", ctx.Result.SkipReason)
	}
	if ctx.Result.AssigneeApplied != "alice" {
		t.Errorf("AssigneeApplied = %q, want alice", ctx.Result.AssigneeApplied)
	}
	if !reflect.DeepEqual(ctx.Result.LabelsApplied, []string{"backend", "api", "authentication"}) {
		t.Errorf("LabelsApplied = %v", ctx.Result.LabelsApplied)
	}
	if !ctx.Result.CommentPosted {
		t.Error("expected comment to be posted")
	}

	saved, _ := store.Get(context.Background(), "acme/api#1")
	if saved.AssigneeID != "alice" {
		t.Errorf("stored assignee = %q", saved.AssigneeID)
	}
	if !reflect.DeepEqual(saved.Labels, []string{"bug", "backend", "api", "authentication"}) {
		t.Errorf("stored labels = %v", saved.Labels)
	}

	body := commenter.comments["acme/api#1"]
	for _, want := range []string{"### Triage suggestions", "@alice", "Alternatives: @bob", "`backend`"} {
		if !strings.Contains(body, want) {
			t.Errorf("comment missing %q:\n%s", want, body)
		}
	}
}

func TestDryRunChangesNothing(t *testing.T) {
	store := newFixture()
	commenter := &fakeCommenter{}

	ctx := runWorkflow(t, store, newDeps(store, commenter, true), "full-triage", "acme/api#1")

	if ctx.Result.Assignment == nil || ctx.Result.Tagging == nil {
		t.Fatal("expected recommendations in dry run")
	}
	if ctx.Result.AssigneeApplied != "" || len(ctx.Result.LabelsApplied) != 0 || ctx.Result.CommentPosted {
		t.Errorf("dry run applied actions: %+v", ctx.Result)
	}
	saved, _ := store.Get(context.Background(), "acme/api#1")
	if saved.AssigneeID != "" || len(saved.Labels) != 1 {
		t.Errorf("dry run modified issue: %+v", saved)
	}
	if len(commenter.comments) != 0 {
		t.Error("dry run posted a comment")
	}
}

func TestGatekeeperSkips(t *testing.T) {
	tests := []struct {
		id     string
		reason string
	}{
		{"acme/api#3", "issue is closed"},
		{"acme/api#4", "issue carries label WontFix"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			store := newFixture()
			ctx := runWorkflow(t, store, newDeps(store, nil, false), "full-triage", tt.id)

			if !ctx.Result.Skipped || ctx.Result.SkipReason != tt.reason {
				t.Errorf("skipped=%v reason=%q, want %q", ctx.Result.Skipped, ctx.Result.SkipReason, tt.reason)
			}
			if ctx.Result.Assignment != nil || ctx.Result.Tagging != nil {
				t.Error("steps after the gatekeeper should not run")
			}
		})
	}
}

func TestAutoAssignSkipsAssignedIssues(t *testing.T) {
	store := newFixture()
	issue, _ := store.Get(context.Background(), "acme/api#1")
	issue.AssigneeID = "bob"
	_ = store.Save(context.Background(), issue)

	ctx := runWorkflow(t, store, newDeps(store, nil, false), "assign-only", "acme/api#1")

	if ctx.Result.Assignment != nil {
		t.Errorf("expected no recommendation for an assigned issue, got %+v", ctx.Result.Assignment)
	}
	saved, _ := store.Get(context.Background(), "acme/api#1")
	if saved.AssigneeID != "bob" {
		t.Errorf("assignee changed to %q", saved.AssigneeID)
	}
}

func TestAutoAssignWithoutTeamIsNonBlocking(t *testing.T) {
	store := newFixture()
	ctx := runWorkflow(t, store, newDeps(store, nil, false), "full-triage", "solo/app#1")

	if len(ctx.Result.Errors) != 1 || !triage.IsValidation(ctx.Result.Errors[0]) {
		t.Errorf("expected one validation error, got %v", ctx.Result.Errors)
	}
	if ctx.Result.Tagging == nil || len(ctx.Result.LabelsApplied) == 0 {
		t.Error("tagging should still run and apply")
	}
}

func TestCommentFailureIsNonBlocking(t *testing.T) {
	store := newFixture()
	commenter := &fakeCommenter{err: errors.New("rate limited")}

	ctx := runWorkflow(t, store, newDeps(store, commenter, false), "tag-only", "acme/api#1")

	if ctx.Result.CommentPosted {
		t.Error("comment should not be marked posted")
	}
	if len(ctx.Result.Errors) != 1 {
		t.Errorf("expected the comment error to be recorded, got %v", ctx.Result.Errors)
	}
	if len(ctx.Result.LabelsApplied) != 3 {
		t.Errorf("labels should still be applied, got %v", ctx.Result.LabelsApplied)
	}
}

func TestNothingToSayPostsNoComment(t *testing.T) {
	store := newFixture()
	commenter := &fakeCommenter{}

	ctx := runWorkflow(t, store, newDeps(store, commenter, false), "tag-only", "acme/api#2")

	if _, ok := ctx.Metadata["comment"]; ok {
		t.Error("expected no comment for an issue with no new tags")
	}
	if ctx.Result.CommentPosted || len(commenter.comments) != 0 {
		t.Error("no comment should be posted")
	}
}

func TestStepFactoriesRequireServices(t *testing.T) {
	reg := pipeline.NewRegistry()
	RegisterAll(reg)

	for _, name := range []string{"auto_assign", "auto_tag"} {
		if _, err := reg.BuildFromNames([]string{name}, &pipeline.Dependencies{}); err == nil {
			t.Errorf("expected %s to fail without its service", name)
		}
	}
	for _, name := range []string{"gatekeeper", "response_builder", "action_executor"} {
		if _, err := reg.BuildFromNames([]string{name}, &pipeline.Dependencies{}); err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
		}
	}
}
