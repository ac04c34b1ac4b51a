// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-02-02
// Last Modified: 2026-03-11

package steps

import (
	"github.com/similigh/simili-triage/internal/core/pipeline"
)

// RegisterAll registers all built-in steps with the registry.
func RegisterAll(r *pipeline.Registry) {
	r.Register("gatekeeper", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewGatekeeper(deps), nil
	})

	r.Register("auto_assign", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		step, err := NewAutoAssign(deps)
		if err != nil {
			return nil, err
		}
		return step, nil
	})

	r.Register("auto_tag", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		step, err := NewAutoTag(deps)
		if err != nil {
			return nil, err
		}
		return step, nil
	})

	r.Register("response_builder", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewResponseBuilder(deps), nil
	})

	r.Register("action_executor", func(deps *pipeline.Dependencies) (pipeline.Step, error) {
		return NewActionExecutor(deps), nil
	})
}
