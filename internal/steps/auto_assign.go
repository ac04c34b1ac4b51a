package steps

import (
	"fmt"
	"log"

	"github.com/similigh/simili-triage/internal/assign"
	"github.com/similigh/simili-triage/internal/core/pipeline"
	"github.com/similigh/simili-triage/internal/triage"
)

// AutoAssign recommends an assignee for unassigned issues.
type AutoAssign struct {
	assigner *assign.Service
}

// NewAutoAssign creates the auto_assign step.
func NewAutoAssign(deps *pipeline.Dependencies) (*AutoAssign, error) {
	if deps.Assigner == nil {
		return nil, fmt.Errorf("auto_assign requires an assignment service")
	}
	return &AutoAssign{assigner: deps.Assigner}, nil
}

// Name returns the step name.
func (s *AutoAssign) Name() string {
	return "auto_assign"
}

// Run stores the recommendation in the result. A project with no team
// members is recorded and does not fail the pipeline.
func (s *AutoAssign) Run(ctx *pipeline.Context) error {
	if ctx.Issue.AssigneeID != "" {
		log.Printf("[auto_assign] %s is already assigned to %s, skipping", ctx.Issue.ID, ctx.Issue.AssigneeID)
		return nil
	}

	res, err := s.assigner.Recommend(ctx.Ctx, ctx.Issue.ID)
	if err != nil {
		if triage.IsValidation(err) {
			log.Printf("[auto_assign] No recommendation for %s (non-blocking): %v", ctx.Issue.ID, err)
			ctx.Result.Errors = append(ctx.Result.Errors, err)
			return nil
		}
		return err
	}

	ctx.Result.Assignment = res
	if res.Recommended != nil {
		log.Printf("[auto_assign] Recommended %s for %s (score %.1f)", res.Recommended.UserID, ctx.Issue.ID, res.Recommended.Score)
	}
	return nil
}
