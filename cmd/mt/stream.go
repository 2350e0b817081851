package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/daviddao/mailtriage/internal/apiclient"
	"github.com/daviddao/mailtriage/internal/display"
	"github.com/daviddao/mailtriage/internal/mail"
	"github.com/daviddao/mailtriage/internal/schema"
)

var (
	streamURL     string
	streamInput   string
	streamRunsDir string
	streamTimeout float64
)

// inputReference identifies a message in stream snapshots without copying the
// full payload.
type inputReference struct {
	Index     int    `json:"index"`
	Total     int    `json:"total"`
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id,omitempty"`
	From      string `json:"from"`
	To        string `json:"to"`
	Date      string `json:"date"`
	Subject   string `json:"subject"`
	Snippet   string `json:"snippet"`
}

// streamRecord is one line of the per-run JSONL log.
type streamRecord struct {
	Timestamp      string           `json:"timestamp"`
	InputReference inputReference   `json:"input_reference"`
	HTTPStatus     int              `json:"http_status,omitempty"`
	Output         *schema.Decision `json:"output,omitempty"`
	Error          string           `json:"error,omitempty"`
}

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Step through a message fixture interactively",
	Long: `Walk a message fixture one email at a time against a running server.

Each message is shown as a reference card; Enter triages it via the API,
n/p move without triaging, q quits. Every session gets its own folder under
the runs directory holding a JSONL log plus one pretty-printed snapshot per
triaged message.`,
	Example: `  mt stream --url http://localhost:8000 --input sample_50.json
  mt stream --url http://localhost:8000 --input sample_50.json --runs-dir /tmp/runs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		msgs, err := loadMessages(streamInput)
		if err != nil {
			return err
		}

		runDir, err := createRunDir(streamRunsDir)
		if err != nil {
			return err
		}
		logPath := filepath.Join(runDir, "triage_run.jsonl")
		client := apiclient.New(streamURL, time.Duration(streamTimeout*float64(time.Second)))

		if !quietFlag {
			fmt.Printf("Loaded %d message(s)\n", len(msgs))
			fmt.Printf("Run directory: %s\n\n", runDir)
		}

		scanner := bufio.NewScanner(cmd.InOrStdin())
		idx := 0
	loop:
		for idx < len(msgs) {
			msg := msgs[idx]
			ref := buildReference(msg, idx, len(msgs))

			display.MessageCard(mail.Parse(msg), idx, len(msgs))
			fmt.Print("\nPress Enter to triage | (n) next | (p) prev | (q) quit: ")

			if !scanner.Scan() {
				break
			}
			switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
			case "q":
				fmt.Println()
				break loop
			case "p":
				idx = max(0, idx-1)
				fmt.Println()
				continue
			case "n":
				idx++
				fmt.Println()
				continue
			}

			rec := streamRecord{
				Timestamp:      time.Now().Format(time.RFC3339),
				InputReference: ref,
			}
			resp, tErr := client.Triage(context.Background(), msg)
			if tErr != nil {
				rec.Error = tErr.Error()
				var se *apiclient.StatusError
				if errors.As(tErr, &se) {
					rec.HTTPStatus = se.Code
				}
				if err := appendJSONL(logPath, rec); err != nil {
					return err
				}
				display.ErrorMsg("triage: %v", tErr)
				fmt.Println()
				idx++
				continue
			}

			rec.HTTPStatus = 200
			rec.Output = &resp.Output
			if err := appendJSONL(logPath, rec); err != nil {
				return err
			}
			snapPath, err := writeSnapshot(runDir, idx, ref, &resp.Output)
			if err != nil {
				return err
			}

			fmt.Println()
			display.Decision(&resp.Output)
			fmt.Println()
			display.SuccessMsg("Saved snapshot %s", snapPath)
			fmt.Println()
			idx++
		}

		if !quietFlag {
			fmt.Printf("Done. Outputs under %s\n", runDir)
		}
		return nil
	},
}

// createRunDir makes a fresh directory for this session: triage_MM_DD_YY
// under root, with a numeric suffix when earlier runs exist for the day.
func createRunDir(root string) (string, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("create runs directory: %w", err)
	}
	base := "triage_" + time.Now().Format("01_02_06")
	dir := filepath.Join(root, base)
	for n := 2; ; n++ {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			break
		}
		dir = filepath.Join(root, fmt.Sprintf("%s_%d", base, n))
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run directory: %w", err)
	}
	return dir, nil
}

func buildReference(msg *schema.GmailMessage, idx, total int) inputReference {
	id := msg.ID
	if id == "" {
		id = fmt.Sprintf("index_%d", idx+1)
	}
	return inputReference{
		Index:     idx + 1,
		Total:     total,
		MessageID: id,
		ThreadID:  msg.ThreadID,
		From:      rawHeader(msg, "From"),
		To:        rawHeader(msg, "To"),
		Date:      rawHeader(msg, "Date"),
		Subject:   rawHeader(msg, "Subject"),
		Snippet:   display.Truncate(strings.Join(strings.Fields(msg.Snippet), " "), 180),
	}
}

// rawHeader returns a top-level payload header value by case-insensitive name.
func rawHeader(msg *schema.GmailMessage, name string) string {
	if msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func appendJSONL(path string, rec streamRecord) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return fmt.Errorf("append run log: %w", err)
	}
	return nil
}

// writeSnapshot saves one pretty-printed decision next to the run log and
// returns its path.
func writeSnapshot(runDir string, idx int, ref inputReference, out *schema.Decision) (string, error) {
	safeID := strings.ReplaceAll(ref.MessageID, "/", "_")
	path := filepath.Join(runDir, fmt.Sprintf("%03d_%s_output.json", idx+1, safeID))

	snap := struct {
		InputReference inputReference   `json:"input_reference"`
		Output         *schema.Decision `json:"output"`
	}{ref, out}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

func init() {
	streamCmd.Flags().StringVar(&streamURL, "url", "", "Base URL of a running triage server (required)")
	streamCmd.Flags().StringVar(&streamInput, "input", "", "Path to a JSON array of raw Gmail messages (required)")
	streamCmd.Flags().StringVar(&streamRunsDir, "runs-dir", "runs", "Directory that holds per-session run folders")
	streamCmd.Flags().Float64Var(&streamTimeout, "timeout", 120, "Per-request timeout in seconds")
	streamCmd.MarkFlagRequired("url")
	streamCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(streamCmd)
}
