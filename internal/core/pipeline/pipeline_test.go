package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/similigh/simili-triage/internal/core/config"
	"github.com/similigh/simili-triage/internal/triage"
)

type recordingStep struct {
	name string
	err  error
	log  *[]string
}

func (s recordingStep) Name() string { return s.name }

func (s recordingStep) Run(ctx *Context) error {
	*s.log = append(*s.log, s.name)
	return s.err
}

func newTestContext() *Context {
	return NewContext(context.Background(), &triage.Issue{ID: "org/repo#1"}, config.Default())
}

func TestPipelineRun(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		errs    []error
		wantRan []string
		wantErr bool
	}{
		{"all steps run", []error{nil, nil, nil}, []string{"a", "b", "c"}, false},
		{"skip stops gracefully", []error{nil, ErrSkipPipeline, nil}, []string{"a", "b"}, false},
		{"error stops with step name", []error{boom, nil, nil}, []string{"a"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ran []string
			p := New()
			for i, n := range []string{"a", "b", "c"} {
				p.AddStep(recordingStep{name: n, err: tt.errs[i], log: &ran})
			}

			err := p.Run(newTestContext())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, boom) {
				t.Errorf("expected wrapped cause, got %v", err)
			}
			if !reflect.DeepEqual(ran, tt.wantRan) {
				t.Errorf("ran %v, want %v", ran, tt.wantRan)
			}
		})
	}
}

func TestNewContextSeedsResult(t *testing.T) {
	ctx := newTestContext()
	if ctx.Result.IssueID != "org/repo#1" {
		t.Errorf("IssueID = %q", ctx.Result.IssueID)
	}
	if ctx.Metadata == nil {
		t.Error("expected metadata map")
	}
}

func TestResolveSteps(t *testing.T) {
	if got := ResolveSteps([]string{"gatekeeper"}, "tag-only"); !reflect.DeepEqual(got, []string{"gatekeeper"}) {
		t.Errorf("explicit steps should win, got %v", got)
	}
	if got := ResolveSteps(nil, "assign-only"); !reflect.DeepEqual(got, Presets["assign-only"]) {
		t.Errorf("expected assign-only preset, got %v", got)
	}
	if got := ResolveSteps(nil, "no-such-workflow"); !reflect.DeepEqual(got, Presets["full-triage"]) {
		t.Errorf("expected full-triage fallback, got %v", got)
	}
}

func TestRegistryBuildFromNames(t *testing.T) {
	var ran []string
	r := NewRegistry()
	r.Register("a", func(*Dependencies) (Step, error) { return recordingStep{name: "a", log: &ran}, nil })
	r.Register("broken", func(*Dependencies) (Step, error) { return nil, errors.New("missing dependency") })

	p, err := r.BuildFromNames([]string{"a"}, &Dependencies{})
	if err != nil {
		t.Fatalf("BuildFromNames failed: %v", err)
	}
	if len(p.Steps()) != 1 {
		t.Errorf("expected 1 step, got %d", len(p.Steps()))
	}

	if _, err := r.BuildFromNames([]string{"a", "missing"}, &Dependencies{}); err == nil {
		t.Error("expected error for unknown step")
	}
	if _, err := r.BuildFromNames([]string{"broken"}, &Dependencies{}); err == nil {
		t.Error("expected factory error to propagate")
	}
	if !reflect.DeepEqual(r.Names(), []string{"a", "broken"}) {
		t.Errorf("Names() = %v", r.Names())
	}
}
