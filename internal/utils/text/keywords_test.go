package text

import (
	"reflect"
	"testing"
)

func TestContainsKeyword(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		keyword string
		want    bool
	}{
		{"exact word", "login api throwing 500", "api", true},
		{"case insensitive", "Login API throwing 500", "API", true},
		{"substring of word", "rebuild the page", "ui", false},
		{"later whole-word occurrence", "build the ui", "ui", true},
		{"phrase", "the production down alert fired", "production down", true},
		{"punctuation boundary", "crash (ui)", "ui", true},
		{"hyphen boundary", "frontend-app broken", "frontend", true},
		{"empty keyword", "anything", "", false},
		{"not present", "database timeout", "react", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsKeyword(tt.s, tt.keyword); got != tt.want {
				t.Errorf("ContainsKeyword(%q, %q) = %v, want %v", tt.s, tt.keyword, got, tt.want)
			}
		})
	}
}

func TestMatchedKeywords(t *testing.T) {
	got := MatchedKeywords("slow query on the database", []string{"database", "sql", "query"})
	want := []string{"database", "query"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MatchedKeywords() = %v, want %v", got, want)
	}

	if got := MatchedKeywords("nothing here", []string{"api"}); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestContainsAny(t *testing.T) {
	if !ContainsAny("server outage", []string{"critical", "outage"}) {
		t.Error("expected match on outage")
	}
	if ContainsAny("weekly newsletter", []string{"critical", "outage"}) {
		t.Error("expected no match")
	}
}
