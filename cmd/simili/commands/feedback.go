package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/similigh/simili-triage/internal/triage"
)

var (
	feedbackIssue     string
	feedbackKind      string
	feedbackAccepted  bool
	feedbackSuggested []string
	feedbackChosen    []string
	feedbackNote      string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record whether a recommendation was accepted",
	Long: `Record a feedback event for an assignment or tagging recommendation.
Events are logged and echoed; they do not change later recommendations.`,
	Args: cobra.NoArgs,
	RunE: runFeedback,
}

func init() {
	rootCmd.AddCommand(feedbackCmd)

	feedbackCmd.Flags().StringVar(&feedbackIssue, "issue", "", "Issue id")
	feedbackCmd.Flags().StringVar(&feedbackKind, "kind", "", "Recommendation kind: assign or tag")
	feedbackCmd.Flags().BoolVar(&feedbackAccepted, "accepted", false, "The recommendation was accepted")
	feedbackCmd.Flags().StringSliceVar(&feedbackSuggested, "suggested", nil, "What was recommended")
	feedbackCmd.Flags().StringSliceVar(&feedbackChosen, "chosen", nil, "What the user chose instead")
	feedbackCmd.Flags().StringVar(&feedbackNote, "note", "", "Free-form note")
	_ = feedbackCmd.MarkFlagRequired("issue")
	_ = feedbackCmd.MarkFlagRequired("kind")
}

func runFeedback(cmd *cobra.Command, args []string) error {
	kind, err := parseFeedbackKind(feedbackKind)
	if err != nil {
		return err
	}

	ev := triage.RecordFeedback(context.Background(), triage.FeedbackEvent{
		IssueID:   feedbackIssue,
		Kind:      kind,
		Accepted:  feedbackAccepted,
		Suggested: feedbackSuggested,
		Chosen:    feedbackChosen,
		Note:      feedbackNote,
	})
	return printJSON(ev)
}

func parseFeedbackKind(s string) (triage.FeedbackKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "assign", "assignment":
		return triage.FeedbackAssignment, nil
	case "tag", "tags", "tagging":
		return triage.FeedbackTagging, nil
	}
	return "", fmt.Errorf("unknown feedback kind %q (use assign or tag)", s)
}

// recordDecision logs an applied recommendation as feedback.
func recordDecision(ctx context.Context, issueID string, kind triage.FeedbackKind, suggested, chosen []string) {
	triage.RecordFeedback(ctx, triage.FeedbackEvent{
		IssueID:   issueID,
		Kind:      kind,
		Accepted:  sameStrings(suggested, chosen),
		Suggested: suggested,
		Chosen:    chosen,
	})
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
