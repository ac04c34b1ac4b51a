// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/kavirubc
// Created: 2026-02-10
// Last Modified: 2026-03-12

package commands

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/similigh/simili-triage/internal/core/config"
	"github.com/similigh/simili-triage/internal/triage"
)

// Batch kinds.
const (
	kindAssign = "assign"
	kindTag    = "tag"
)

var (
	batchKind    string
	batchIDs     []string
	batchFile    string
	batchOutFile string
	batchFormat  string
	batchWorkers int
	batchApply   bool
)

// batchReport holds the recommendations of one batch run. Exactly one of
// Assign and Tag is set.
type batchReport struct {
	Kind   string
	IDs    []string // de-duplicated input order
	Assign *triage.BulkResult[*triage.AutoAssignmentResult]
	Tag    *triage.BulkResult[*triage.AutoTaggingResult]
}

func (r *batchReport) failure(id string) error {
	if r.Assign != nil {
		return r.Assign.Failure(id)
	}
	return r.Tag.Failure(id)
}

// JSONOutput represents the JSON output structure
type JSONOutput struct {
	ProcessedAt time.Time     `json:"processed_at"`
	Kind        string        `json:"kind"`
	TotalIssues int           `json:"total_issues"`
	Successful  int           `json:"successful"`
	Failed      int           `json:"failed"`
	Results     any           `json:"results"`
	Failures    []FailedEntry `json:"failures,omitempty"`
}

// FailedEntry is one issue that produced no recommendation.
type FailedEntry struct {
	IssueID string `json:"issue_id"`
	Error   string `json:"error"`
}

// ApplyOutput is the JSON output of a batch run with --apply.
type ApplyOutput struct {
	ProcessedAt time.Time `json:"processed_at"`
	Kind        string    `json:"kind"`
	*triage.BulkApplyResult
}

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Recommend assignees or labels for many issues",
	Long: `Run assignment or tagging recommendations over many issues with a bounded
worker pool (at most 5 workers). Issues that fail are reported and never stop
the batch.

Ids come from --ids and/or --file (one id per line, or a JSON array).
With --apply the recommendations are written back; otherwise the results are
printed as JSON or CSV.`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchKind, "kind", kindTag, "Recommendation kind: assign or tag")
	batchCmd.Flags().StringSliceVar(&batchIDs, "ids", nil, "Comma-separated issue ids")
	batchCmd.Flags().StringVar(&batchFile, "file", "", "File with issue ids (one per line or a JSON array)")
	batchCmd.Flags().StringVar(&batchOutFile, "out-file", "", "Output file path (stdout if not specified)")
	batchCmd.Flags().StringVar(&batchFormat, "format", "", "Output format: json or csv (default: from --out-file extension, else json)")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "Number of concurrent workers (default from config)")
	batchCmd.Flags().BoolVar(&batchApply, "apply", false, "Apply the recommendations")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if batchKind != kindAssign && batchKind != kindTag {
		return fmt.Errorf("unsupported kind: %s (use assign or tag)", batchKind)
	}

	ids := append([]string{}, batchIDs...)
	if batchFile != "" {
		fromFile, err := loadIDs(batchFile)
		if err != nil {
			return err
		}
		ids = append(ids, fromFile...)
	}
	if len(ids) == 0 {
		return fmt.Errorf("no issue ids given (use --ids or --file)")
	}

	a, err := newApp(ctx, applyConfigOverrides)
	if err != nil {
		return err
	}
	defer a.Close()

	if verbose {
		fmt.Fprintf(os.Stderr, "Processing %d issues with %d workers...\n", len(ids), a.cfg.Bulk.Concurrency)
	}

	if batchApply {
		var res *triage.BulkApplyResult
		if batchKind == kindAssign {
			res, err = a.assigner.BulkApply(ctx, ids)
		} else {
			res, err = a.tagger.BulkApply(ctx, ids)
		}
		if err != nil {
			return err
		}
		if err := a.persist(); err != nil {
			return err
		}
		data, err := json.MarshalIndent(ApplyOutput{ProcessedAt: time.Now(), Kind: batchKind, BulkApplyResult: res}, "", "  ")
		if err != nil {
			return err
		}
		return writeOutput(data)
	}

	report := &batchReport{Kind: batchKind, IDs: dedupeIDs(ids)}
	if batchKind == kindAssign {
		report.Assign, err = a.assigner.BulkRecommend(ctx, ids)
	} else {
		report.Tag, err = a.tagger.BulkSuggest(ctx, ids)
	}
	if err != nil {
		return err
	}

	return outputResults(report)
}

// loadIDs reads ids from a JSON array file or a plain file with one id per
// line. Blank lines and lines starting with # are ignored.
func loadIDs(filePath string) ([]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var ids []string
		if err := json.Unmarshal([]byte(trimmed), &ids); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return ids, nil
	}

	var ids []string
	scanner := bufio.NewScanner(strings.NewReader(trimmed))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	return ids, scanner.Err()
}

// applyConfigOverrides applies flag overrides to the loaded config.
func applyConfigOverrides(cfg *config.Config) {
	if batchWorkers > 0 {
		cfg.Bulk.Concurrency = batchWorkers
		if verbose {
			fmt.Fprintf(os.Stderr, "Overriding bulk concurrency: %d\n", batchWorkers)
		}
	}
	if cfg.Bulk.Concurrency > config.MaxConcurrency {
		cfg.Bulk.Concurrency = config.MaxConcurrency
	}
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// resolveFormat picks the output format from the flag or the out-file extension.
func resolveFormat(format, outFile string) string {
	if format != "" {
		return format
	}
	if strings.EqualFold(filepath.Ext(outFile), ".csv") {
		return "csv"
	}
	return "json"
}

// outputResults formats and writes results to the specified output
func outputResults(report *batchReport) error {
	var data []byte
	var err error

	switch format := resolveFormat(batchFormat, batchOutFile); format {
	case "csv":
		data, err = formatCSV(report)
	case "json":
		data, err = formatJSON(report, time.Now())
	default:
		return fmt.Errorf("unsupported format: %s (use json or csv)", format)
	}
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	return writeOutput(data)
}

func writeOutput(data []byte) error {
	if batchOutFile != "" {
		if err := os.WriteFile(batchOutFile, data, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Results written to %s\n", batchOutFile)
		return nil
	}
	fmt.Println(string(data))
	return nil
}

// formatJSON formats results as JSON
func formatJSON(report *batchReport, now time.Time) ([]byte, error) {
	output := JSONOutput{
		ProcessedAt: now,
		Kind:        report.Kind,
		TotalIssues: len(report.IDs),
	}

	if report.Assign != nil {
		output.Results = report.Assign
		output.Successful = report.Assign.Len()
	} else {
		output.Results = report.Tag
		output.Successful = report.Tag.Len()
	}

	for _, id := range report.IDs {
		if err := report.failure(id); err != nil {
			output.Failures = append(output.Failures, FailedEntry{IssueID: id, Error: err.Error()})
		}
	}
	output.Failed = len(output.Failures)

	return json.MarshalIndent(output, "", "  ")
}

var (
	assignCSVHeader = []string{
		"issue_id",
		"recommended_user",
		"score",
		"alternatives",
		"complexity",
		"estimated_hours",
		"required_skills",
		"error",
	}
	tagCSVHeader = []string{
		"issue_id",
		"current_tags",
		"tags_to_add",
		"suggested",
		"overall_confidence",
		"error",
	}
)

// formatCSV formats results as CSV, one row per input id.
func formatCSV(report *batchReport) ([]byte, error) {
	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	header := tagCSVHeader
	if report.Assign != nil {
		header = assignCSVHeader
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, id := range report.IDs {
		row := make([]string, len(header))
		row[0] = id

		if err := report.failure(id); err != nil {
			row[len(row)-1] = err.Error()
		} else if report.Assign != nil {
			if res, ok := report.Assign.Get(id); ok {
				fillAssignRow(row, res)
			}
		} else if res, ok := report.Tag.Get(id); ok {
			fillTagRow(row, res)
		}

		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return []byte(buf.String()), nil
}

func fillAssignRow(row []string, res *triage.AutoAssignmentResult) {
	if rec := res.Recommended; rec != nil {
		row[1] = rec.UserID
		row[2] = fmt.Sprintf("%.2f", rec.Score)
	}
	alts := make([]string, len(res.Alternatives))
	for i, alt := range res.Alternatives {
		alts[i] = fmt.Sprintf("%s:%.2f", alt.UserID, alt.Score)
	}
	row[3] = strings.Join(alts, ";")
	row[4] = string(res.Analysis.Complexity)
	row[5] = strconv.FormatFloat(res.Analysis.EstimatedHours, 'f', -1, 64)
	row[6] = strings.Join(res.Analysis.RequiredSkills, ";")
}

func fillTagRow(row []string, res *triage.AutoTaggingResult) {
	suggested := make([]string, len(res.Suggested))
	for i, s := range res.Suggested {
		suggested[i] = fmt.Sprintf("%s:%.0f", s.Tag, s.Confidence)
	}
	row[1] = strings.Join(res.CurrentTags, ";")
	row[2] = strings.Join(res.TagsToAdd, ";")
	row[3] = strings.Join(suggested, ";")
	row[4] = fmt.Sprintf("%.2f", res.OverallConfidence)
}
