// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/kavirubc
// Created: 2026-02-02
// Last Modified: 2026-03-12

package commands

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/similigh/simili-triage/internal/core/config"
	"github.com/similigh/simili-triage/internal/core/pipeline"
	"github.com/similigh/simili-triage/internal/steps"
	"github.com/similigh/simili-triage/internal/triage"
	"github.com/similigh/simili-triage/internal/tui"
)

// statusReportingStep wraps a step and reports its progress.
type statusReportingStep struct {
	inner  pipeline.Step
	report func(tui.PipelineStatusMsg)
}

func (s *statusReportingStep) Name() string {
	return s.inner.Name()
}

func (s *statusReportingStep) Run(ctx *pipeline.Context) error {
	s.report(tui.PipelineStatusMsg{Step: s.Name(), Status: tui.StatusStarted, Message: "Starting..."})

	err := s.inner.Run(ctx)

	if err != nil {
		if errors.Is(err, pipeline.ErrSkipPipeline) {
			s.report(tui.PipelineStatusMsg{Step: s.Name(), Status: tui.StatusSkipped, Message: ctx.Result.SkipReason})
			return err
		}
		s.report(tui.PipelineStatusMsg{Step: s.Name(), Status: tui.StatusError, Message: err.Error()})
		return err
	}

	s.report(tui.PipelineStatusMsg{Step: s.Name(), Status: tui.StatusSuccess, Message: "Completed"})
	return nil
}

// runPipeline builds the named steps, runs them over issue and returns the
// result as indented JSON. report may be nil.
func runPipeline(ctx context.Context, deps *pipeline.Dependencies, stepNames []string, issue *triage.Issue, cfg *config.Config, report func(tui.PipelineStatusMsg)) (*pipeline.Result, string, error) {
	registry := pipeline.NewRegistry()
	steps.RegisterAll(registry)

	built, err := registry.BuildFromNames(stepNames, deps)
	if err != nil {
		if report != nil {
			report(tui.PipelineStatusMsg{Step: "init", Status: tui.StatusError, Message: err.Error()})
		}
		return nil, "", err
	}

	p := built
	if report != nil {
		var wrapped []pipeline.Step
		for _, step := range built.Steps() {
			wrapped = append(wrapped, &statusReportingStep{inner: step, report: report})
		}
		p = pipeline.New(wrapped...)
	}

	pCtx := pipeline.NewContext(ctx, issue, cfg)
	if err := p.Run(pCtx); err != nil {
		return pCtx.Result, "", err
	}

	out, err := json.MarshalIndent(pCtx.Result, "", "  ")
	if err != nil {
		return pCtx.Result, "", err
	}
	return pCtx.Result, string(out), nil
}
