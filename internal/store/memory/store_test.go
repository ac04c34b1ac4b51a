package memory

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/similigh/simili-triage/internal/triage"
)

const snapshotJSON = `{
  "issues": [
    {"id": "P-1", "project_id": "p", "type": "bug", "summary": "old", "assignee_id": "u1", "updated_at": "2026-01-01T00:00:00Z"},
    {"id": "P-2", "project_id": "p", "type": "task", "summary": "new", "assignee_id": "u1", "updated_at": "2026-02-01T00:00:00Z"},
    {"id": "Q-1", "project_id": "q", "type": "task", "summary": "other", "assignee_id": "u1", "updated_at": "2026-03-01T00:00:00Z"}
  ],
  "members": {"p": [{"user_id": "u1", "name": "Ada", "is_active": true}]}
}`

func TestLoadAndQuery(t *testing.T) {
	ctx := context.Background()
	s, err := Load(strings.NewReader(snapshotJSON))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	all, _ := s.FindByAssignee(ctx, "u1", "")
	if len(all) != 3 || all[0].ID != "Q-1" || all[2].ID != "P-1" {
		t.Errorf("expected most recent first, got %v", ids(all))
	}

	inP, _ := s.FindByAssignee(ctx, "u1", "p")
	if len(inP) != 2 {
		t.Errorf("expected 2 issues in project p, got %v", ids(inP))
	}

	members, _ := s.ListActiveMembers(ctx, "p")
	if len(members) != 1 || members[0].Name != "Ada" {
		t.Errorf("members = %+v", members)
	}

	if _, err := s.Get(ctx, "nope"); !triage.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestSaveDoesNotAlias(t *testing.T) {
	ctx := context.Background()
	s := New()

	is := &triage.Issue{ID: "X-1", Labels: []string{"a"}, UpdatedAt: time.Now()}
	if err := s.Save(ctx, is); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	is.Labels[0] = "mutated"

	got, _ := s.Get(ctx, "X-1")
	if got.Labels[0] != "a" {
		t.Errorf("store aliased caller memory: %v", got.Labels)
	}

	if err := s.Save(ctx, &triage.Issue{}); !triage.IsValidation(err) {
		t.Errorf("expected ValidationError for missing id, got %v", err)
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	s, err := Load(strings.NewReader(snapshotJSON))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "data.json")
	if err := s.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	again, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if got := ids(again.Snapshot().Issues); strings.Join(got, ",") != "P-1,P-2,Q-1" {
		t.Errorf("issues after round trip = %v", got)
	}
}

func ids(issues []triage.Issue) []string {
	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.ID
	}
	return out
}
