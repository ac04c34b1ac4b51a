// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-02-02
// Last Modified: 2026-03-11

// Package steps contains the modular "Lego block" pipeline steps.
// Each step implements the pipeline.Step interface.
package steps

import (
	"log"
	"strings"

	"github.com/similigh/simili-triage/internal/core/pipeline"
)

// Gatekeeper stops the pipeline for issues that should not be triaged.
type Gatekeeper struct{}

// NewGatekeeper creates a new gatekeeper step.
func NewGatekeeper(deps *pipeline.Dependencies) *Gatekeeper {
	return &Gatekeeper{}
}

// Name returns the step name.
func (s *Gatekeeper) Name() string {
	return "gatekeeper"
}

// Run skips closed issues and issues carrying a configured skip label.
func (s *Gatekeeper) Run(ctx *pipeline.Context) error {
	if ctx.Issue.Done {
		log.Printf("[gatekeeper] Issue %s is closed, skipping triage", ctx.Issue.ID)
		return skip(ctx, "issue is closed")
	}

	if ctx.Config != nil {
		if label, ok := findSkipLabel(ctx.Issue.Labels, ctx.Config.SkipLabels); ok {
			log.Printf("[gatekeeper] Issue %s carries skip label %q", ctx.Issue.ID, label)
			return skip(ctx, "issue carries label "+label)
		}
	}

	log.Printf("[gatekeeper] Issue %s is eligible, proceeding", ctx.Issue.ID)
	return nil
}

func skip(ctx *pipeline.Context, reason string) error {
	ctx.Result.Skipped = true
	ctx.Result.SkipReason = reason
	return pipeline.ErrSkipPipeline
}

// findSkipLabel returns the first issue label that matches a skip label.
func findSkipLabel(labels, skipLabels []string) (string, bool) {
	for _, l := range labels {
		for _, s := range skipLabels {
			if strings.EqualFold(l, s) {
				return l, true
			}
		}
	}
	return "", false
}
