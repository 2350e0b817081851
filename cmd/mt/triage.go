package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daviddao/mailtriage/internal/display"
	"github.com/daviddao/mailtriage/internal/llm"
	"github.com/daviddao/mailtriage/internal/mail"
	"github.com/daviddao/mailtriage/internal/pipeline"
	"github.com/daviddao/mailtriage/internal/schema"
)

var triageRecord bool

var triageCmd = &cobra.Command{
	Use:   "triage FILE",
	Short: "Triage a Gmail message fixture through the local pipeline",
	Long: `Run the triage pipeline on a Gmail-message JSON file without a server.

The file may hold a single raw Gmail message object or a JSON array of them;
for an array only the first message is triaged. Requires a configured LLM
provider (OPENAI_API_KEY for the default openai provider).`,
	Example: `  mt triage testdata/message.json
  mt triage sample_50.json --json
  mt triage message.json --record`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msgs, err := loadMessages(args[0])
		if err != nil {
			return err
		}
		msg := msgs[0]

		client, err := llm.New(settings)
		if err != nil {
			return fmt.Errorf("select provider: %w", err)
		}
		pipe := pipeline.New(settings, client)

		resp, err := pipe.Triage(context.Background(), msg)
		if err != nil {
			return fmt.Errorf("triage: %w", err)
		}

		if triageRecord {
			s, err := openRunStore()
			if err != nil {
				return err
			}
			defer s.Close()
			runID, err := s.RecordRun(msg, resp)
			if err != nil {
				return fmt.Errorf("record run: %w", err)
			}
			if !quietFlag && !jsonOutput {
				display.SuccessMsg("Recorded run %s", runID)
			}
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}

		display.MessageCard(mail.Parse(msg), 0, 1)
		fmt.Println()
		display.Decision(&resp.Output)
		return nil
	},
}

// loadMessages reads raw Gmail messages from a fixture file. Accepted shapes:
// a JSON array, a single JSON object, or JSONL with one message per line.
func loadMessages(path string) ([]*schema.GmailMessage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, fmt.Errorf("empty input file: %s", path)
	}

	if strings.HasPrefix(text, "[") {
		var msgs []*schema.GmailMessage
		if err := json.Unmarshal([]byte(text), &msgs); err != nil {
			return nil, fmt.Errorf("decode message array: %w", err)
		}
		if len(msgs) == 0 {
			return nil, fmt.Errorf("no messages in %s", path)
		}
		return msgs, nil
	}

	var single schema.GmailMessage
	if err := json.Unmarshal([]byte(text), &single); err == nil {
		return []*schema.GmailMessage{&single}, nil
	}

	// Not a single object; try JSONL.
	var msgs []*schema.GmailMessage
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var m schema.GmailMessage
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			return nil, fmt.Errorf("decode line %d: %w", i+1, err)
		}
		msgs = append(msgs, &m)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("no messages in %s", path)
	}
	return msgs, nil
}

func init() {
	triageCmd.Flags().BoolVar(&triageRecord, "record", false, "Record the run to the store")
	rootCmd.AddCommand(triageCmd)
}
