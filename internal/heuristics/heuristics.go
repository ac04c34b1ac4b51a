// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-03-02
// Last Modified: 2026-03-06

// Package heuristics implements the deterministic, table-driven analysis used
// when the reasoning backend is unavailable or untrusted. Everything here is a
// pure function of its inputs.
package heuristics

import (
	"fmt"
	"strings"

	"github.com/similigh/simili-triage/internal/triage"
	"github.com/similigh/simili-triage/internal/utils/text"
)

// estimate is one row of the complexity table.
type estimate struct {
	complexity triage.Complexity
	hours      float64
}

// complexityTable is the single source of truth for estimation defaults.
var complexityTable = map[triage.IssueType]estimate{
	triage.TypeEpic:    {triage.ComplexityHigh, 40},
	triage.TypeStory:   {triage.ComplexityMedium, 16},
	triage.TypeTask:    {triage.ComplexityLow, 4},
	triage.TypeSubtask: {triage.ComplexityLow, 4},
	triage.TypeBug:     {triage.ComplexityMedium, 4},
}

// escalatedBug applies to bugs with high or highest priority.
var escalatedBug = estimate{triage.ComplexityHigh, 8}

// unknownType applies to issue types missing from the table.
var unknownType = estimate{triage.ComplexityMedium, 8}

// skillRule maps a family of keywords to a skill.
type skillRule struct {
	skill    string
	keywords []string
}

var skillTable = []skillRule{
	{"React", []string{"react", "frontend", "ui", "component", "css", "jsx"}},
	{"Node.js", []string{"node", "nodejs", "api", "backend", "server", "endpoint", "express"}},
	{"Database", []string{"database", "sql", "postgres", "postgresql", "mysql", "mongodb", "query", "migration", "prisma"}},
	{"DevOps", []string{"docker", "kubernetes", "k8s", "deploy", "deployment", "ci", "infrastructure"}},
	{"Security", []string{"security", "vulnerability", "xss", "csrf", "encryption", "oauth"}},
	{"Mobile", []string{"mobile", "ios", "android", "react native"}},
	{"Testing", []string{"test", "tests", "testing", "e2e", "qa", "coverage"}},
	{"Design", []string{"design", "ux", "figma", "mockup", "wireframe"}},
}

// SkillKeywords returns the keywords that identify skill, or nil when the
// skill is not in the table.
func SkillKeywords(skill string) []string {
	for _, r := range skillTable {
		if r.skill == skill {
			return r.keywords
		}
	}
	return nil
}

// AnalyzeIssueComplexity estimates complexity, effort and required skills.
func AnalyzeIssueComplexity(issue triage.IssueContext) triage.Analysis {
	est, ok := complexityTable[issue.Type]
	if !ok {
		est = unknownType
	}
	if issue.Type == triage.TypeBug && (issue.Priority == triage.PriorityHighest || issue.Priority == triage.PriorityHigh) {
		est = escalatedBug
	}

	return triage.Analysis{
		Complexity:     est.complexity,
		RequiredSkills: DetectSkills(issue.Text()),
		EstimatedHours: est.hours,
	}
}

// DetectSkills returns, in table order, every skill with at least one keyword
// present in s.
func DetectSkills(s string) []string {
	skills := []string{}
	for _, r := range skillTable {
		if text.ContainsAny(s, r.keywords) {
			skills = append(skills, r.skill)
		}
	}
	return skills
}

// tagRule maps a tag to the keywords that suggest it.
type tagRule struct {
	tag      string
	keywords []string
}

// tagCategory is one block of the nested pattern table.
type tagCategory struct {
	category triage.TagCategory
	rules    []tagRule
}

var patternTable = []tagCategory{
	{triage.CategoryTechnical, []tagRule{
		{"frontend", []string{"ui", "css", "react", "component", "layout", "button", "page"}},
		{"backend", []string{"api", "server", "endpoint", "service", "backend"}},
		{"database", []string{"database", "sql", "migration", "schema", "query", "index"}},
		{"performance", []string{"slow", "performance", "latency", "optimize", "memory", "cpu", "timeout"}},
		{"security", []string{"security", "vulnerability", "xss", "csrf", "permission", "token", "injection"}},
		{"api", []string{"api", "endpoint", "rest", "graphql", "request", "response"}},
		{"mobile", []string{"mobile", "ios", "android", "responsive", "tablet"}},
		{"testing", []string{"test", "testing", "coverage", "e2e", "unit test", "flaky"}},
	}},
	{triage.CategoryFunctional, []tagRule{
		{"authentication", []string{"login", "logout", "password", "signup", "sign in", "auth", "session", "sso"}},
		{"ui-ux", []string{"design", "ux", "usability", "style", "accessibility", "theme"}},
		{"documentation", []string{"docs", "documentation", "readme", "guide", "tutorial"}},
		{"integration", []string{"integration", "webhook", "third-party", "sync", "import", "export"}},
		{"notification", []string{"email", "notification", "alert", "notify", "reminder"}},
		{"reporting", []string{"report", "dashboard", "chart", "analytics", "metrics"}},
	}},
	{triage.CategoryPriority, []tagRule{
		{"urgent", []string{"urgent", "asap", "critical", "blocker", "emergency", "production down"}},
		{"quick-win", []string{"quick", "simple", "easy", "small", "typo", "minor"}},
		{"tech-debt", []string{"refactor", "cleanup", "technical debt", "legacy", "deprecated"}},
	}},
}

// typeBonuses are fixed tags contributed by the issue type alone.
var typeBonuses = map[triage.IssueType]triage.TagSuggestion{
	triage.TypeBug:   {Tag: "bug", Confidence: 100, Reason: "Issue type is bug", Category: triage.CategoryTechnical},
	triage.TypeStory: {Tag: "feature", Confidence: 80, Reason: "Issue type is story", Category: triage.CategoryFunctional},
}

// patternConfidence converts a keyword match count into a confidence value.
func patternConfidence(matches int) float64 {
	c := 50 + 15*float64(matches)
	if c > 95 {
		c = 95
	}
	return c
}

// ExtractPatternTags suggests tags by matching s against the pattern table,
// plus the fixed bonus tag for issueType. No tag appears twice.
func ExtractPatternTags(s string, issueType triage.IssueType) []triage.TagSuggestion {
	tags := []triage.TagSuggestion{}

	if bonus, ok := typeBonuses[issueType]; ok {
		tags = triage.MergeTag(tags, bonus)
	}

	for _, cat := range patternTable {
		for _, rule := range cat.rules {
			matched := text.MatchedKeywords(s, rule.keywords)
			if len(matched) == 0 {
				continue
			}
			shown := matched
			if len(shown) > 2 {
				shown = shown[:2]
			}
			tags = triage.MergeTag(tags, triage.TagSuggestion{
				Tag:        rule.tag,
				Confidence: patternConfidence(len(matched)),
				Reason:     fmt.Sprintf("Matched keywords: %s", strings.Join(shown, ", ")),
				Category:   cat.category,
			})
		}
	}

	return tags
}
