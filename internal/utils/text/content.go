// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/kavirubc
// Created: 2026-02-13
// Last Modified: 2026-03-03

// Package text holds the string helpers shared by the heuristics, the
// notification prioritizer and the prompt builders.
package text

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// BuildPromptContent renders an issue's text fields for inclusion in a prompt.
// The description is truncated to maxBody bytes; empty sections are omitted.
func BuildPromptContent(summary, description string, labels []string, maxBody int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Summary: %s\n", summary)

	if d := strings.TrimSpace(description); d != "" {
		fmt.Fprintf(&sb, "Description: %s\n", Truncate(d, maxBody))
	}

	if len(labels) > 0 {
		fmt.Fprintf(&sb, "Labels: %s\n", strings.Join(labels, ", "))
	}

	return sb.String()
}

// Truncate limits a string to maxLen bytes, appending "..." when cut. The cut
// never splits a multi-byte rune. A non-positive maxLen disables truncation.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
