package steps

import (
	"fmt"
	"strings"

	"github.com/similigh/simili-triage/internal/core/pipeline"
	"github.com/similigh/simili-triage/internal/triage"
)

// ResponseBuilder renders the recommendations as a markdown comment and
// stores it in Metadata["comment"].
type ResponseBuilder struct{}

// NewResponseBuilder creates the response_builder step.
func NewResponseBuilder(deps *pipeline.Dependencies) *ResponseBuilder {
	return &ResponseBuilder{}
}

// Name returns the step name.
func (s *ResponseBuilder) Name() string {
	return "response_builder"
}

// Run builds the comment. Nothing is stored when there is nothing to say.
func (s *ResponseBuilder) Run(ctx *pipeline.Context) error {
	if comment := BuildComment(ctx.Result); comment != "" {
		ctx.Metadata["comment"] = comment
	}
	return nil
}

// BuildComment renders assignment and tagging results.
func BuildComment(res *pipeline.Result) string {
	var sections []string

	if a := res.Assignment; a != nil && a.Recommended != nil {
		sections = append(sections, assignmentSection(a))
	}
	if t := res.Tagging; t != nil && len(t.TagsToAdd) > 0 {
		sections = append(sections, taggingSection(t))
	}
	if len(sections) == 0 {
		return ""
	}

	return "### Triage suggestions\n\n" + strings.Join(sections, "\n\n") + "\n"
}

func assignmentSection(a *triage.AutoAssignmentResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Suggested assignee:** @%s (score %.1f)\n", a.Recommended.UserID, a.Recommended.Score)
	for _, r := range a.Recommended.Reasons {
		fmt.Fprintf(&sb, "- %s\n", r)
	}

	if len(a.Alternatives) > 0 {
		alts := make([]string, len(a.Alternatives))
		for i, alt := range a.Alternatives {
			alts[i] = fmt.Sprintf("@%s (%.1f)", alt.UserID, alt.Score)
		}
		fmt.Fprintf(&sb, "\nAlternatives: %s\n", strings.Join(alts, ", "))
	}

	fmt.Fprintf(&sb, "\n<sub>Complexity: %s, estimated %.0fh", a.Analysis.Complexity, a.Analysis.EstimatedHours)
	if len(a.Analysis.RequiredSkills) > 0 {
		fmt.Fprintf(&sb, ", skills: %s", strings.Join(a.Analysis.RequiredSkills, ", "))
	}
	sb.WriteString("</sub>")
	return sb.String()
}

func taggingSection(t *triage.AutoTaggingResult) string {
	tags := make([]string, len(t.TagsToAdd))
	for i, tag := range t.TagsToAdd {
		tags[i] = "`" + tag + "`"
	}
	return fmt.Sprintf("**Suggested labels:** %s (overall confidence %.0f%%)", strings.Join(tags, ", "), t.OverallConfidence)
}
