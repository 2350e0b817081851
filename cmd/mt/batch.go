package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/daviddao/mailtriage/internal/apiclient"
	"github.com/daviddao/mailtriage/internal/display"
)

var (
	batchURL         string
	batchInput       string
	batchOut         string
	batchErrs        string
	batchConcurrency int
	batchTimeout     float64
	batchLimit       int
)

// batchFailure is one line of the errors JSONL file.
type batchFailure struct {
	InputMessageID string `json:"input_message_id"`
	StatusCode     int    `json:"status_code,omitempty"`
	Error          string `json:"error"`
}

type batchSummary struct {
	Total           int            `json:"total"`
	Succeeded       int            `json:"succeeded"`
	Failed          int            `json:"failed"`
	ResultsFile     string         `json:"results_file"`
	ErrorsFile      string         `json:"errors_file"`
	MajorCategories map[string]int `json:"major_categories"`
	ActionKeys      map[string]int `json:"action_keys"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Triage a message fixture against a running server",
	Long: `Post every message of a JSON-array fixture to a running triage server.

Requests run with bounded concurrency. Successful responses are appended to
the results JSONL file, failures to the errors JSONL file, and a category /
action-key distribution summary is printed at the end.`,
	Example: `  mt batch --url http://localhost:8000 --input sample_50.json
  mt batch --url http://localhost:8000 --input sample_50.json --limit 5 --concurrency 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		msgs, err := loadMessages(batchInput)
		if err != nil {
			return err
		}
		if batchLimit > 0 && len(msgs) > batchLimit {
			msgs = msgs[:batchLimit]
		}

		outF, err := createOutput(batchOut)
		if err != nil {
			return err
		}
		defer outF.Close()
		errF, err := createOutput(batchErrs)
		if err != nil {
			return err
		}
		defer errF.Close()

		client := apiclient.New(batchURL, time.Duration(batchTimeout*float64(time.Second)))

		var (
			mu      sync.Mutex
			majors  = map[string]int{}
			actions = map[string]int{}
			failed  int
		)

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(max(1, batchConcurrency))

		for _, msg := range msgs {
			g.Go(func() error {
				resp, tErr := client.Triage(ctx, msg)

				// Serialize file writes and tallies.
				mu.Lock()
				defer mu.Unlock()
				if tErr != nil {
					failed++
					rec := batchFailure{InputMessageID: msg.ID, Error: tErr.Error()}
					var se *apiclient.StatusError
					if errors.As(tErr, &se) {
						rec.StatusCode = se.Code
					}
					return json.NewEncoder(errF).Encode(rec)
				}
				majors[string(resp.Output.MajorCategory)]++
				actions[resp.Output.SubActionKey]++
				return json.NewEncoder(outF).Encode(resp)
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("write batch output: %w", err)
		}

		succeeded := len(msgs) - failed
		if jsonOutput {
			out := batchSummary{
				Total:           len(msgs),
				Succeeded:       succeeded,
				Failed:          failed,
				ResultsFile:     batchOut,
				ErrorsFile:      batchErrs,
				MajorCategories: majors,
				ActionKeys:      actions,
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		display.Header("Batch summary")
		fmt.Printf("  Total:     %d\n", len(msgs))
		fmt.Printf("  Succeeded: %d\n", succeeded)
		fmt.Printf("  Failed:    %d\n", failed)
		fmt.Printf("  Results:   %s\n", batchOut)
		fmt.Printf("  Errors:    %s\n", batchErrs)
		fmt.Println()
		display.Distribution("Major categories", majors)
		fmt.Println()
		display.Distribution("Action keys", actions)
		return nil
	},
}

// createOutput opens a JSONL file for writing, creating parent directories.
func createOutput(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchURL, "url", "", "Base URL of a running triage server, e.g. http://localhost:8000 (required)")
	batchCmd.Flags().StringVar(&batchInput, "input", "", "Path to a JSON array of raw Gmail messages (required)")
	batchCmd.Flags().StringVar(&batchOut, "out", "outputs/triage_results.jsonl", "Where to write successful responses (JSONL)")
	batchCmd.Flags().StringVar(&batchErrs, "errors", "outputs/triage_errors.jsonl", "Where to write failures (JSONL)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 3, "Requests in flight at once")
	batchCmd.Flags().Float64Var(&batchTimeout, "timeout", 60, "Per-request timeout in seconds")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "Only process the first N messages (0 = all)")
	batchCmd.MarkFlagRequired("url")
	batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
