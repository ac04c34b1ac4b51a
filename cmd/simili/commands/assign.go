package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/similigh/simili-triage/internal/triage"
)

var (
	assignIssue string
	assignApply bool
	assignUser  string
)

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Recommend an assignee for an issue",
	Long: `Score every team member of the issue's project on expertise, workload and
availability and print the recommendation with its alternatives.

With --apply the top candidate (or --user) is assigned.`,
	Args: cobra.NoArgs,
	RunE: runAssign,
}

func init() {
	rootCmd.AddCommand(assignCmd)

	assignCmd.Flags().StringVar(&assignIssue, "issue", "", "Issue id")
	assignCmd.Flags().BoolVar(&assignApply, "apply", false, "Assign the recommended user")
	assignCmd.Flags().StringVar(&assignUser, "user", "", "Assign this user instead of the recommendation (implies --apply)")
	_ = assignCmd.MarkFlagRequired("issue")
}

func runAssign(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.assigner.Recommend(ctx, assignIssue)
	if err != nil {
		return err
	}
	if err := printJSON(res); err != nil {
		return err
	}

	user := assignUser
	if user == "" && assignApply && res.Recommended != nil {
		user = res.Recommended.UserID
	}
	if user == "" {
		return nil
	}

	if err := a.assigner.Apply(ctx, assignIssue, user); err != nil {
		return err
	}
	recordDecision(ctx, assignIssue, triage.FeedbackAssignment, recommendedUser(res), []string{user})
	return a.persist()
}

func recommendedUser(res *triage.AutoAssignmentResult) []string {
	if res.Recommended == nil {
		return nil
	}
	return []string{res.Recommended.UserID}
}
