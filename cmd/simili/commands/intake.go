package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/similigh/simili-triage/internal/intake"
	"github.com/similigh/simili-triage/internal/integrations/ai"
	"github.com/similigh/simili-triage/internal/reasoning"
)

var (
	intakeFrom     string
	intakeSubject  string
	intakeBodyFile string
	intakeProject  string
)

var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Draft an issue from an email",
	Long: `Turn an inbound email into an issue draft (summary, description, type,
priority and labels). The LLM backend is used when configured; keyword
heuristics fill in anything it leaves out. The body is read from --body-file,
or from stdin when --body-file is "-".`,
	Args: cobra.NoArgs,
	RunE: runIntake,
}

func init() {
	rootCmd.AddCommand(intakeCmd)

	intakeCmd.Flags().StringVar(&intakeFrom, "from", "", "Sender address")
	intakeCmd.Flags().StringVar(&intakeSubject, "subject", "", "Email subject")
	intakeCmd.Flags().StringVar(&intakeBodyFile, "body-file", "", "Path to the email body, or - for stdin")
	intakeCmd.Flags().StringVar(&intakeProject, "project", "", "Project the draft belongs to")
}

func runIntake(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := loadConfig()

	body, err := readBody(intakeBodyFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	// Intake needs no issue store, only the optional backend.
	var rc *reasoning.Client
	if backend, err := ai.New(ai.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	}); err == nil {
		defer backend.Close()
		rc = reasoning.NewClient(backend, reasoning.Options{
			Timeout:     cfg.LLM.Timeout(),
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		})
	} else if verbose {
		fmt.Fprintf(os.Stderr, "No reasoning backend, using heuristics: %v\n", err)
	}

	project := intakeProject
	if project == "" {
		project = cfg.GitHub.Project()
	}

	draft, err := intake.NewParser(rc).ParseEmail(ctx, project, intake.Email{
		From:    intakeFrom,
		Subject: intakeSubject,
		Body:    body,
	})
	if err != nil {
		return err
	}
	return printJSON(draft)
}

func readBody(path string, stdin io.Reader) (string, error) {
	switch path {
	case "":
		return "", nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read body from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read body file: %w", err)
	}
	return string(data), nil
}
