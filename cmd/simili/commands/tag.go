package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/similigh/simili-triage/internal/triage"
)

var (
	tagIssue string
	tagApply bool
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Suggest labels for an issue",
	Long: `Suggest labels from keyword patterns, merged with LLM suggestions when a
backend is configured. With --apply the new labels are added to the issue.`,
	Args: cobra.NoArgs,
	RunE: runTag,
}

func init() {
	rootCmd.AddCommand(tagCmd)

	tagCmd.Flags().StringVar(&tagIssue, "issue", "", "Issue id")
	tagCmd.Flags().BoolVar(&tagApply, "apply", false, "Add the suggested labels")
	_ = tagCmd.MarkFlagRequired("issue")
}

func runTag(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.tagger.SuggestTags(ctx, tagIssue)
	if err != nil {
		return err
	}
	if err := printJSON(res); err != nil {
		return err
	}

	if !tagApply || len(res.TagsToAdd) == 0 {
		return nil
	}
	if _, err := a.tagger.ApplyTags(ctx, tagIssue, res.TagsToAdd); err != nil {
		return err
	}
	recordDecision(ctx, tagIssue, triage.FeedbackTagging, res.TagsToAdd, res.TagsToAdd)
	return a.persist()
}
