// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/kavirubc
// Created: 2026-02-02
// Last Modified: 2026-03-12

package commands

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/similigh/simili-triage/internal/core/pipeline"
	"github.com/similigh/simili-triage/internal/tui"
)

var (
	processIssue    string
	processDryRun   bool
	processWorkflow string
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Triage a single issue through the pipeline",
	Long: `Run a single issue through a triage workflow: check eligibility, recommend
an assignee and labels, then apply them and post a summary comment.

Workflows: full-triage (default), assign-only, tag-only. Custom step lists
come from the 'steps' config key.`,
	Args: cobra.NoArgs,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&processIssue, "issue", "", "Issue id (e.g. org/repo#123)")
	processCmd.Flags().BoolVar(&processDryRun, "dry-run", false, "Run in dry-run mode (no side effects)")
	processCmd.Flags().StringVar(&processWorkflow, "workflow", "", "Workflow preset to run (overrides config)")
	_ = processCmd.MarkFlagRequired("issue")
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	issue, err := a.issues.Get(ctx, processIssue)
	if err != nil {
		return err
	}

	workflow := a.cfg.Workflow
	if processWorkflow != "" {
		workflow = processWorkflow
	}
	if _, ok := pipeline.GetPreset(workflow); !ok && len(a.cfg.Steps) == 0 {
		return fmt.Errorf("unknown workflow %q", workflow)
	}
	stepNames := pipeline.ResolveSteps(a.cfg.Steps, workflow)
	deps := a.dependencies(processDryRun)

	// Check if running in CI/non-interactive environment
	isCI := os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"

	if isCI {
		fmt.Println("[simili-triage] Running in CI mode (no TUI)")
		_, out, err := runPipeline(ctx, deps, stepNames, issue, a.cfg, nil)
		if err != nil {
			return err
		}
		fmt.Println(out)
	} else {
		statusChan := make(chan tui.PipelineStatusMsg)
		p := tea.NewProgram(tui.NewModel(stepNames, statusChan))

		go func() {
			defer close(statusChan)
			_, out, err := runPipeline(ctx, deps, stepNames, issue, a.cfg, func(msg tui.PipelineStatusMsg) {
				statusChan <- msg
			})
			if err != nil {
				p.Send(tui.ResultMsg{Success: false, Output: err.Error()})
				return
			}
			p.Send(tui.ResultMsg{Success: true, Output: out})
		}()

		final, err := p.Run()
		if err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}
		if m, ok := final.(tui.Model); ok {
			if m.Output() != "" {
				fmt.Println(m.Output())
			}
			if m.Err() != nil {
				return m.Err()
			}
		}
	}

	if processDryRun {
		return nil
	}
	return a.persist()
}
