// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-02-02
// Last Modified: 2026-03-11

package steps

import (
	"log"

	"github.com/similigh/simili-triage/internal/assign"
	"github.com/similigh/simili-triage/internal/core/pipeline"
	"github.com/similigh/simili-triage/internal/tagging"
)

// ActionExecutor applies the recommended assignee and labels and posts the
// summary comment.
type ActionExecutor struct {
	assigner  *assign.Service
	tagger    *tagging.Service
	commenter pipeline.Commenter
	dryRun    bool
}

// NewActionExecutor creates a new action executor step.
func NewActionExecutor(deps *pipeline.Dependencies) *ActionExecutor {
	return &ActionExecutor{
		assigner:  deps.Assigner,
		tagger:    deps.Tagger,
		commenter: deps.Commenter,
		dryRun:    deps.DryRun,
	}
}

// Name returns the step name.
func (s *ActionExecutor) Name() string {
	return "action_executor"
}

// Run executes the actions.
func (s *ActionExecutor) Run(ctx *pipeline.Context) error {
	comment, hasComment := ctx.Metadata["comment"].(string)
	hasComment = hasComment && comment != ""
	assignee := s.pendingAssignee(ctx)
	var tags []string
	if ctx.Result.Tagging != nil {
		tags = ctx.Result.Tagging.TagsToAdd
	}

	if s.dryRun {
		if assignee != "" {
			log.Printf("[action_executor] DRY RUN: Would assign %s to %s", ctx.Issue.ID, assignee)
		}
		if len(tags) > 0 {
			log.Printf("[action_executor] DRY RUN: Would add labels %v", tags)
		}
		if hasComment {
			log.Printf("[action_executor] DRY RUN: Would post comment:\n%s", comment)
		}
		return nil
	}

	if assignee != "" && s.assigner != nil {
		if err := s.assigner.Apply(ctx.Ctx, ctx.Issue.ID, assignee); err != nil {
			return err
		}
		ctx.Result.AssigneeApplied = assignee
	}

	if len(tags) > 0 && s.tagger != nil {
		if _, err := s.tagger.ApplyTags(ctx.Ctx, ctx.Issue.ID, tags); err != nil {
			return err
		}
		ctx.Result.LabelsApplied = append([]string{}, tags...)
	}

	if hasComment && s.commenter != nil {
		if err := s.commenter.Comment(ctx.Ctx, ctx.Issue.ID, comment); err != nil {
			log.Printf("[action_executor] Failed to post comment on %s (non-blocking): %v", ctx.Issue.ID, err)
			ctx.Result.Errors = append(ctx.Result.Errors, err)
		} else {
			log.Printf("[action_executor] Posted comment on %s", ctx.Issue.ID)
			ctx.Result.CommentPosted = true
		}
	}

	return nil
}

// pendingAssignee is the recommended user when the issue is still unassigned.
func (s *ActionExecutor) pendingAssignee(ctx *pipeline.Context) string {
	a := ctx.Result.Assignment
	if a == nil || a.Recommended == nil || ctx.Issue.AssigneeID != "" {
		return ""
	}
	return a.Recommended.UserID
}
