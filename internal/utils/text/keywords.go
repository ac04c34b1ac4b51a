package text

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ContainsKeyword reports whether keyword occurs in s as a whole word or
// phrase, ignoring case. "ui" matches "fix the ui" but not "build".
func ContainsKeyword(s, keyword string) bool {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return false
	}
	lower := strings.ToLower(s)

	offset := 0
	for {
		idx := strings.Index(lower[offset:], kw)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(kw)
		if isBoundary(lower, start, end) {
			return true
		}
		offset = start + 1
	}
}

// MatchedKeywords returns the keywords found in s, in keyword order.
func MatchedKeywords(s string, keywords []string) []string {
	matched := []string{}
	for _, kw := range keywords {
		if ContainsKeyword(s, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// ContainsAny reports whether any keyword occurs in s.
func ContainsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if ContainsKeyword(s, kw) {
			return true
		}
	}
	return false
}

func isBoundary(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
