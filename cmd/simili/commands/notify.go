package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/similigh/simili-triage/internal/notify"
)

var (
	notifyFile  string
	notifyUser  string
	notifyGroup bool
	notifyAt    string
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Route a batch of notifications for one user",
	Long: `Classify a user's notifications and route them into critical, important,
batched and suppressed buckets using the notifications preferences from the
config (quiet hours, batching, suppressed types). Batched items are summarized
in a digest.

With --group, notifications about the same issue are collapsed first.`,
	Args: cobra.NoArgs,
	RunE: runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)

	notifyCmd.Flags().StringVar(&notifyFile, "file", "", "Path to a JSON array of notifications")
	notifyCmd.Flags().StringVar(&notifyUser, "user", "", "Recipient user id")
	notifyCmd.Flags().BoolVar(&notifyGroup, "group", false, "Collapse notifications that share an issue key")
	notifyCmd.Flags().StringVar(&notifyAt, "at", "", "Evaluate quiet hours at this RFC 3339 time instead of now")
	_ = notifyCmd.MarkFlagRequired("file")
	_ = notifyCmd.MarkFlagRequired("user")
}

func runNotify(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	prefs, err := cfg.Notifications.Preferences()
	if err != nil {
		return err
	}

	notifications, err := loadNotifications(notifyFile)
	if err != nil {
		return err
	}

	opts := []notify.Option{notify.WithDigestSize(cfg.Notifications.DigestSize)}
	if notifyAt != "" {
		at, err := time.Parse(time.RFC3339, notifyAt)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
		opts = append(opts, notify.WithClock(func() time.Time { return at }))
	}
	p := notify.NewPrioritizer(opts...)

	return printJSON(routeNotifications(p, notifyUser, notifications, prefs, notifyGroup))
}

// routeNotifications keeps userID's notifications, optionally collapses them
// per issue, then filters them.
func routeNotifications(p *notify.Prioritizer, userID string, ns []notify.Notification, prefs notify.Preferences, group bool) notify.FilteredNotifications {
	if group {
		mine := make([]notify.Notification, 0, len(ns))
		for _, n := range ns {
			if n.UserID == userID {
				mine = append(mine, n)
			}
		}
		ns = p.BatchSimilarNotifications(mine)
	}
	return p.FilterBatch(userID, ns, prefs)
}

// loadNotifications reads a JSON array of notifications.
func loadNotifications(path string) ([]notify.Notification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}

	var ns []notify.Notification
	if err := json.Unmarshal(data, &ns); err != nil {
		return nil, fmt.Errorf("failed to parse notifications JSON: %w", err)
	}
	return ns, nil
}
