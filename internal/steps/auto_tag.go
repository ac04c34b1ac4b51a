package steps

import (
	"fmt"
	"log"

	"github.com/similigh/simili-triage/internal/core/pipeline"
	"github.com/similigh/simili-triage/internal/tagging"
	"github.com/similigh/simili-triage/internal/triage"
)

// AutoTag suggests labels for the issue.
type AutoTag struct {
	tagger *tagging.Service
}

// NewAutoTag creates the auto_tag step.
func NewAutoTag(deps *pipeline.Dependencies) (*AutoTag, error) {
	if deps.Tagger == nil {
		return nil, fmt.Errorf("auto_tag requires a tagging service")
	}
	return &AutoTag{tagger: deps.Tagger}, nil
}

// Name returns the step name.
func (s *AutoTag) Name() string {
	return "auto_tag"
}

// Run suggests tags from the issue already loaded into the context.
func (s *AutoTag) Run(ctx *pipeline.Context) error {
	res := s.tagger.Suggest(ctx.Ctx, triage.ExtractContext(ctx.Issue))
	ctx.Result.Tagging = res
	log.Printf("[auto_tag] %d suggestions for %s, %d new", len(res.Suggested), ctx.Issue.ID, len(res.TagsToAdd))
	return nil
}
