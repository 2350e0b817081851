package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daviddao/mailtriage/internal/display"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent triage runs from the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := runs.ListRuns(historyLimit)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(list)
		}

		if len(list) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		fmt.Printf("Runs (%d of %d):\n\n", len(list), runs.Count())
		for _, r := range list {
			fmt.Printf("  %s %s  %s %s %s  %s\n",
				display.UrgencyDot(r.Urgency),
				display.Dim.Render(r.ID),
				r.MajorCategory,
				display.Muted.Render("→"),
				display.Bold.Render(r.SubActionKey),
				display.Dim.Render(display.TimeAgo(r.CreatedAt)),
			)
			subject := r.Subject
			if subject == "" {
				subject = "(no subject)"
			}
			fmt.Printf("      %s  %s\n",
				display.Truncate(subject, 60),
				display.Dim.Render(r.FromEmail),
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to show (0 = all)")
	rootCmd.AddCommand(historyCmd)
}
