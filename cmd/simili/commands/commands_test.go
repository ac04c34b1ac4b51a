package commands

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/similigh/simili-triage/internal/assign"
	"github.com/similigh/simili-triage/internal/core/config"
	"github.com/similigh/simili-triage/internal/core/pipeline"
	"github.com/similigh/simili-triage/internal/notify"
	"github.com/similigh/simili-triage/internal/store/memory"
	"github.com/similigh/simili-triage/internal/tagging"
	"github.com/similigh/simili-triage/internal/triage"
	"github.com/similigh/simili-triage/internal/tui"
)

func TestParseFeedbackKind(t *testing.T) {
	tests := []struct {
		in      string
		want    triage.FeedbackKind
		wantErr bool
	}{
		{"assign", triage.FeedbackAssignment, false},
		{" Tagging ", triage.FeedbackTagging, false},
		{"tag", triage.FeedbackTagging, false},
		{"priority", "", true},
	}
	for _, tt := range tests {
		got, err := parseFeedbackKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseFeedbackKind(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestLoadNotificationsAndRoute(t *testing.T) {
	content := `[
		{"id": "1", "user_id": "u1", "type": "comment", "title": "New comment", "issue_key": "API-1", "created_at": "2026-03-01T10:00:00Z"},
		{"id": "2", "user_id": "u1", "type": "comment", "title": "Another comment", "issue_key": "API-1", "created_at": "2026-03-01T10:05:00Z"},
		{"id": "3", "user_id": "u1", "type": "incident", "title": "Production outage", "message": "service down", "created_at": "2026-03-01T10:06:00Z"},
		{"id": "4", "user_id": "u2", "type": "comment", "title": "Not mine", "issue_key": "API-1", "created_at": "2026-03-01T10:07:00Z"}
	]`
	path := filepath.Join(t.TempDir(), "notifications.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	ns, err := loadNotifications(path)
	if err != nil {
		t.Fatalf("loadNotifications() error = %v", err)
	}
	if len(ns) != 4 {
		t.Fatalf("expected 4 notifications, got %d", len(ns))
	}

	noon := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := notify.NewPrioritizer(notify.WithClock(func() time.Time { return noon }))

	plain := routeNotifications(p, "u1", ns, notify.Preferences{}, false)
	grouped := routeNotifications(p, "u1", ns, notify.Preferences{}, true)

	count := func(f notify.FilteredNotifications) int {
		return len(f.Critical) + len(f.Important) + len(f.Batched) + len(f.Suppressed)
	}
	if count(plain) != 3 {
		t.Errorf("expected 3 routed notifications for u1, got %d", count(plain))
	}
	if count(grouped) != 2 {
		t.Errorf("expected the two API-1 comments to collapse, got %d", count(grouped))
	}

	found := false
	for _, bucket := range [][]notify.Notification{grouped.Critical, grouped.Important, grouped.Batched} {
		for _, n := range bucket {
			if n.Title == "2 updates on API-1" {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("expected a collapsed notification, got %+v", grouped)
	}
}

func TestLoadNotificationsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"id": 1}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadNotifications(path); err == nil {
		t.Error("expected error for a non-array document")
	}
}

func TestReadBody(t *testing.T) {
	if body, err := readBody("", strings.NewReader("ignored")); err != nil || body != "" {
		t.Errorf("empty path: %q, %v", body, err)
	}
	if body, err := readBody("-", strings.NewReader("from stdin")); err != nil || body != "from stdin" {
		t.Errorf("stdin: %q, %v", body, err)
	}
	if _, err := readBody("/nonexistent/body.txt", nil); err == nil {
		t.Error("expected error for missing body file")
	}
}

func TestRunPipelineReportsSteps(t *testing.T) {
	store := memory.FromSnapshot(memory.Snapshot{
		Issues: []triage.Issue{
			{ID: "p#1", ProjectID: "p", Type: triage.TypeBug, Summary: "Login API throwing 500", Labels: []string{"bug"}},
		},
	})
	deps := &pipeline.Dependencies{
		Issues:   store,
		Assigner: assign.NewService(store, store, nil, assign.Options{}),
		Tagger:   tagging.NewService(store, nil, tagging.Options{}),
		DryRun:   true,
	}
	issue, _ := store.Get(context.Background(), "p#1")

	var reported []string
	res, out, err := runPipeline(context.Background(), deps, pipeline.Presets["tag-only"], issue, config.Default(), func(msg tui.PipelineStatusMsg) {
		reported = append(reported, msg.Step+":"+msg.Status)
	})
	if err != nil {
		t.Fatalf("runPipeline() error = %v", err)
	}
	if res.Tagging == nil || !reflect.DeepEqual(res.Tagging.TagsToAdd, []string{"backend", "api", "authentication"}) {
		t.Errorf("unexpected tagging result %+v", res.Tagging)
	}
	if !strings.Contains(out, `"issue_id": "p#1"`) {
		t.Errorf("output missing issue id:\n%s", out)
	}

	want := []string{
		"gatekeeper:started", "gatekeeper:success",
		"auto_tag:started", "auto_tag:success",
		"response_builder:started", "response_builder:success",
		"action_executor:started", "action_executor:success",
	}
	if !reflect.DeepEqual(reported, want) {
		t.Errorf("reported = %v", reported)
	}
}

func TestRunPipelineUnknownStep(t *testing.T) {
	issue := &triage.Issue{ID: "p#1"}
	if _, _, err := runPipeline(context.Background(), &pipeline.Dependencies{}, []string{"nope"}, issue, config.Default(), nil); err == nil {
		t.Error("expected error for unknown step")
	}
}
