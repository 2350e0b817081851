package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daviddao/mailtriage/internal/auth"
	"github.com/daviddao/mailtriage/internal/display"
	"github.com/daviddao/mailtriage/internal/gmailapi"
	"github.com/daviddao/mailtriage/internal/llm"
	"github.com/daviddao/mailtriage/internal/mail"
	"github.com/daviddao/mailtriage/internal/pipeline"
	"github.com/daviddao/mailtriage/internal/schema"
)

var (
	pullQuery       string
	pullMax         int
	pullCredentials string
)

// pullResult is one triaged message in --json output.
type pullResult struct {
	RunID     string           `json:"run_id,omitempty"`
	MessageID string           `json:"message_id"`
	ThreadID  string           `json:"thread_id,omitempty"`
	Subject   string           `json:"subject"`
	Output    *schema.Decision `json:"output"`
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch recent Gmail messages and triage them locally",
	Long: `Fetch messages from Gmail over OAuth, run each through the local triage
pipeline, and record the runs.

The first invocation opens a browser consent flow and stores token.json next
to credentials.json; later runs refresh silently. Access is read-only.`,
	Example: `  mt pull
  mt pull --query "from:boss@acme.com newer_than:3d" --max 5
  mt pull --credentials ./credentials.json --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		logger := newLogger()

		credPath := pullCredentials
		if credPath == "" {
			credPath = auth.DefaultCredentialsPath()
		}
		svc, err := auth.LoadGmailService(ctx, credPath)
		if err != nil {
			return fmt.Errorf("gmail auth: %w", err)
		}

		logger.Info("searching gmail", "query", pullQuery, "max", pullMax)
		summaries, err := gmailapi.Search(svc, pullQuery, int64(pullMax))
		if err != nil {
			return fmt.Errorf("search messages: %w", err)
		}
		if len(summaries) == 0 {
			logger.Info("no messages matched", "query", pullQuery)
			if jsonOutput {
				fmt.Fprintln(cmd.OutOrStdout(), "[]")
			}
			return nil
		}
		logger.Info("message list fetched", "count", len(summaries))

		client, err := llm.New(settings)
		if err != nil {
			return fmt.Errorf("select provider: %w", err)
		}
		pipe := pipeline.New(settings, client)

		s, err := openRunStore()
		if err != nil {
			return err
		}
		defer s.Close()

		results := make([]pullResult, 0, len(summaries))
		for i, sum := range summaries {
			msg, err := gmailapi.Fetch(svc, sum.ID)
			if err != nil {
				logger.Error("fetch failed", "id", sum.ID, "error", err)
				continue
			}
			resp, err := pipe.Triage(ctx, msg)
			if err != nil {
				logger.Error("triage failed", "id", sum.ID, "error", err)
				continue
			}
			runID, err := s.RecordRun(msg, resp)
			if err != nil {
				logger.Warn("run not recorded", "id", sum.ID, "error", err)
			}

			results = append(results, pullResult{
				RunID:     runID,
				MessageID: sum.ID,
				ThreadID:  sum.ThreadID,
				Subject:   sum.Subject,
				Output:    &resp.Output,
			})
			if !jsonOutput {
				display.MessageCard(mail.Parse(msg), i, len(summaries))
				fmt.Println()
				display.Decision(&resp.Output)
				fmt.Println()
			}
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		logger.Info("pull complete", "triaged", len(results), "total", len(summaries), "db", s.Path())
		return nil
	},
}

func init() {
	pullCmd.Flags().StringVar(&pullQuery, "query", "in:inbox newer_than:7d", "Gmail search query")
	pullCmd.Flags().IntVar(&pullMax, "max", 10, "Maximum messages to fetch")
	pullCmd.Flags().StringVar(&pullCredentials, "credentials", "", "Path to credentials.json (default: $MT_CREDENTIALS or ~/.mailtriage/credentials.json)")
	rootCmd.AddCommand(pullCmd)
}
