// Package commands implements the simili-triage CLI.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	dataFile string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "simili-triage",
	Short: "Recommend assignees and labels for issues",
	Long: `Simili Triage recommends who should work on an issue and which labels it
should carry, using keyword heuristics optionally augmented by an LLM.

Issues are read from GitHub (github.token and github.org/repo in the config)
or from a local JSON snapshot given with --data.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default: search standard locations)")
	rootCmd.PersistentFlags().StringVar(&dataFile, "data", "", "Path to a JSON snapshot used instead of GitHub")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
