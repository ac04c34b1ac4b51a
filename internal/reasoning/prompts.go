// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-03-03
// Last Modified: 2026-03-08

package reasoning

import (
	"fmt"
	"strings"

	"github.com/similigh/simili-triage/internal/triage"
	"github.com/similigh/simili-triage/internal/utils/text"
)

// PromptKind selects the prompt template for a call site.
type PromptKind string

const (
	KindAssignmentAnalysis PromptKind = "assignment-analysis"
	KindTagSuggestion      PromptKind = "tag-suggestion"
	KindEmailParsing       PromptKind = "email-parsing"
)

// maxPromptBody limits how much free text is sent to the backend.
const maxPromptBody = 2000

// EmailInput is an inbound email to be turned into an issue draft.
type EmailInput struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// BuildIssuePrompt renders the template for an issue-scoped prompt kind.
func BuildIssuePrompt(kind PromptKind, issue triage.IssueContext) (string, error) {
	content := text.BuildPromptContent(issue.Summary, issue.Description, issue.Labels, maxPromptBody)

	switch kind {
	case KindAssignmentAnalysis:
		return buildAssignmentPrompt(issue, content), nil
	case KindTagSuggestion:
		return buildTagPrompt(issue, content), nil
	default:
		return "", fmt.Errorf("prompt kind %q does not take an issue", kind)
	}
}

func buildAssignmentPrompt(issue triage.IssueContext, content string) string {
	return fmt.Sprintf(`You are helping a software team decide who should work on an issue.
Estimate the work involved in the following issue.

Type: %s
Priority: %s
%s
Respond with a single JSON object and nothing else:
{
  "complexity": "low" | "medium" | "high",
  "requiredSkills": ["skill", ...],
  "estimatedHours": number
}

Use short skill names such as "React", "Node.js", "Database", "DevOps", "Security",
"Mobile", "Testing" or "Design".`,
		issue.Type, issue.Priority, content)
}

func buildTagPrompt(issue triage.IssueContext, content string) string {
	return fmt.Sprintf(`You are helping triage issues in a project tracker.
Suggest tags for the following issue.

Type: %s
Priority: %s
%s
Respond with a JSON array and nothing else. Each element:
{
  "tag": "lower-case-tag",
  "confidence": number between 0 and 100,
  "reason": "one short sentence",
  "category": "technical" | "functional" | "priority" | "team" | "status"
}

Suggest at most 5 tags. Do not repeat tags the issue already has unless you are
confident they apply.`,
		issue.Type, issue.Priority, content)
}

// BuildEmailPrompt renders the email-parsing template.
func BuildEmailPrompt(email EmailInput) string {
	return fmt.Sprintf(`You are converting an inbound support email into a tracker issue.

From: %s
Subject: %s
Body:
%s

Respond with a single JSON object and nothing else:
{
  "summary": "one line title",
  "description": "cleaned up description",
  "type": "bug" | "story" | "task",
  "priority": "highest" | "high" | "medium" | "low" | "lowest",
  "labels": ["label", ...]
}`,
		email.From, strings.TrimSpace(email.Subject), text.Truncate(strings.TrimSpace(email.Body), maxPromptBody))
}
