package reasoning

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/similigh/simili-triage/internal/triage"
)

// scriptedBackend replies with a fixed text, error or delay.
type scriptedBackend struct {
	reply string
	err   error
	delay time.Duration

	calls    atomic.Int32
	lastOpts CompletionOptions
	prompt   string
}

func (b *scriptedBackend) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	b.calls.Add(1)
	b.lastOpts = opts
	b.prompt = prompt
	if b.delay > 0 {
		// ignores ctx on purpose so the client's own timeout is exercised
		time.Sleep(b.delay)
	}
	return b.reply, b.err
}

var loginIssue = triage.IssueContext{
	ID:       "PROJ-7",
	Type:     triage.TypeBug,
	Priority: triage.PriorityHighest,
	Summary:  "Login API throwing 500",
	Labels:   []string{},
}

func TestExtractFirstJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, nil},
		{"prose around", "Sure! Here you go:\n```json\n{\"a\": [1, 2]}\n```\nHope that helps.", `{"a": [1, 2]}`, nil},
		{"array first", `[{"tag":"x"}] and {"b":2}`, `[{"tag":"x"}]`, nil},
		{"braces in strings", `{"reason":"uses } and { and \"quoted ]\""}`, `{"reason":"uses } and { and \"quoted ]\""}`, nil},
		{"nested", `x {"a":{"b":[{"c":1}]}} y`, `{"a":{"b":[{"c":1}]}}`, nil},
		{"first of many", `{"a":1}{"b":2}`, `{"a":1}`, nil},
		{"no json", "I cannot help with that.", "", ErrNoJSON},
		{"truncated", `{"tags": [{"tag": "api"`, "", ErrTruncatedJSON},
		{"unterminated string", `{"a": "open`, "", ErrTruncatedJSON},
		{"mismatched", `{"a": [1, 2}`, "", ErrMismatchedJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractFirstJSON(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientDefaultsAndClamping(t *testing.T) {
	b := &scriptedBackend{reply: `{"complexity":"low"}`}
	hot := 3.0
	c := NewClient(b, Options{Temperature: &hot})

	if _, err := c.AnalyzeAssignment(context.Background(), loginIssue); err != nil {
		t.Fatalf("AnalyzeAssignment failed: %v", err)
	}
	if b.lastOpts.Temperature != 1 || b.lastOpts.MaxTokens != DefaultMaxTokens {
		t.Errorf("opts = %+v", b.lastOpts)
	}
	if c.timeout != DefaultTimeout {
		t.Errorf("timeout = %v", c.timeout)
	}
	if !strings.Contains(b.prompt, "Login API throwing 500") {
		t.Errorf("prompt missing summary: %s", b.prompt)
	}
}

func TestClientTemperature(t *testing.T) {
	zero, negative, warm := 0.0, -0.5, 0.7
	tests := []struct {
		name string
		in   *float64
		want float64
	}{
		{"unset uses default", nil, DefaultTemperature},
		{"explicit zero kept", &zero, 0},
		{"negative clamped to zero", &negative, 0},
		{"in range kept", &warm, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &scriptedBackend{reply: `{"complexity":"low"}`}
			if _, err := NewClient(b, Options{Temperature: tt.in}).AnalyzeAssignment(context.Background(), loginIssue); err != nil {
				t.Fatalf("AnalyzeAssignment failed: %v", err)
			}
			if b.lastOpts.Temperature != tt.want {
				t.Errorf("temperature = %v, want %v", b.lastOpts.Temperature, tt.want)
			}
		})
	}
}

func TestTruncateForLogKeepsUTF8(t *testing.T) {
	s := strings.Repeat("a", 119) + "\u00e9\u00e9"
	got := truncateForLog(s)
	if !utf8.ValidString(got) {
		t.Errorf("truncateForLog produced invalid UTF-8: %q", got)
	}
	if got != strings.Repeat("a", 119)+"..." {
		t.Errorf("truncateForLog = %q", got)
	}
}

func TestClientFailuresAreExternalServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		backend    *scriptedBackend
		timeout    time.Duration
		wantStatus int
	}{
		{"backend error", &scriptedBackend{err: errors.New("connection refused")}, 0, 0},
		{"status error", &scriptedBackend{err: &BackendError{StatusCode: 503, Err: errors.New("overloaded")}}, 0, 503},
		{"timeout", &scriptedBackend{reply: `{"complexity":"low"}`, delay: 200 * time.Millisecond}, 20 * time.Millisecond, 0},
		{"malformed", &scriptedBackend{reply: `{"complexity": "low",`}, 0, 0},
		{"prose only", &scriptedBackend{reply: "The issue looks hard."}, 0, 0},
		{"invalid json", &scriptedBackend{reply: `{complexity: low}`}, 0, 0},
		{"wrong shape", &scriptedBackend{reply: `["low"]`}, 0, 0},
		{"no usable fields", &scriptedBackend{reply: `{"complexity":"enormous"}`}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.backend, Options{Timeout: tt.timeout})
			_, err := c.AnalyzeAssignment(context.Background(), loginIssue)

			var es *triage.ExternalServiceError
			if !errors.As(err, &es) {
				t.Fatalf("expected ExternalServiceError, got %v", err)
			}
			if es.Kind != string(KindAssignmentAnalysis) {
				t.Errorf("kind = %q", es.Kind)
			}
			if es.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", es.StatusCode, tt.wantStatus)
			}
			if tt.backend.delay == 0 && tt.backend.calls.Load() != 1 {
				t.Errorf("backend called %d times, want exactly 1", tt.backend.calls.Load())
			}
		})
	}
}

func TestNilClient(t *testing.T) {
	var c *Client
	_, err := c.SuggestTags(context.Background(), loginIssue)
	if !errors.Is(err, ErrNoBackend) || !triage.IsExternalService(err) {
		t.Errorf("expected ErrNoBackend wrapped in ExternalServiceError, got %v", err)
	}
	if NewClient(nil, Options{}) != nil {
		t.Error("NewClient(nil) should return nil")
	}
}

func TestAnalyzeAssignmentValidates(t *testing.T) {
	b := &scriptedBackend{reply: `Analysis: {"complexity":"HIGH","requiredSkills":[" Node.js ","","Node.js","Security"],"estimatedHours":-3}`}
	got, err := NewClient(b, Options{}).AnalyzeAssignment(context.Background(), loginIssue)
	if err != nil {
		t.Fatalf("AnalyzeAssignment failed: %v", err)
	}
	want := &AssignmentInsight{
		Complexity:     triage.ComplexityHigh,
		RequiredSkills: []string{"Node.js", "Security"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestSuggestTagsShapes(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []triage.TagSuggestion
	}{
		{
			name:  "array",
			reply: `[{"tag":"backend","confidence":70,"reason":"500 from API","category":"technical"}]`,
			want:  []triage.TagSuggestion{{Tag: "backend", Confidence: 70, Reason: "500 from API", Category: triage.CategoryTechnical}},
		},
		{
			name:  "wrapped object",
			reply: `{"tags":[{"tag":"auth","confidence":140,"category":"weird"}]}`,
			want:  []triage.TagSuggestion{{Tag: "auth", Confidence: 100, Reason: "Suggested by AI analysis", Category: triage.CategoryFunctional}},
		},
		{
			name:  "invalid entries dropped",
			reply: `[{"tag":"","confidence":90},{"tag":"x"},{"tag":"ok","confidence":-5,"reason":"r"}]`,
			want:  []triage.TagSuggestion{{Tag: "ok", Confidence: 0, Reason: "r", Category: triage.CategoryFunctional}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewClient(&scriptedBackend{reply: tt.reply}, Options{}).SuggestTags(context.Background(), loginIssue)
			if err != nil {
				t.Fatalf("SuggestTags failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSuggestTagsRejectsObjectWithoutTags(t *testing.T) {
	_, err := NewClient(&scriptedBackend{reply: `{"labels":["a"]}`}, Options{}).SuggestTags(context.Background(), loginIssue)
	if !triage.IsExternalService(err) {
		t.Errorf("expected ExternalServiceError, got %v", err)
	}
}

func TestParseEmail(t *testing.T) {
	b := &scriptedBackend{reply: `{"summary":"Checkout fails","description":"Card declined","type":"Bug","priority":"urgent","labels":["payments"]}`}
	got, err := NewClient(b, Options{}).ParseEmail(context.Background(), EmailInput{Subject: "help", Body: "checkout broken"})
	if err != nil {
		t.Fatalf("ParseEmail failed: %v", err)
	}
	if got.Type != triage.TypeBug || got.Priority != "" || got.Summary != "Checkout fails" {
		t.Errorf("got %+v", got)
	}

	_, err = NewClient(&scriptedBackend{reply: `{"summary":"  "}`}, Options{}).ParseEmail(context.Background(), EmailInput{})
	if !triage.IsExternalService(err) {
		t.Errorf("expected ExternalServiceError for empty summary, got %v", err)
	}
}

func TestBuildIssuePromptRejectsEmailKind(t *testing.T) {
	if _, err := BuildIssuePrompt(KindEmailParsing, loginIssue); err == nil {
		t.Error("expected error for email kind")
	}
}
