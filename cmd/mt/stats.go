package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daviddao/mailtriage/internal/display"
	"github.com/daviddao/mailtriage/internal/store"
)

type statsOutput struct {
	Total      int            `json:"total"`
	Categories map[string]int `json:"categories"`
	Actions    map[string]int `json:"actions"`
	Urgencies  map[string]int `json:"urgencies"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show triage run distributions",
	RunE: func(cmd *cobra.Command, args []string) error {
		categories, err := runs.CountsBy(store.ByCategory)
		if err != nil {
			return fmt.Errorf("category counts: %w", err)
		}
		actions, err := runs.CountsBy(store.ByAction)
		if err != nil {
			return fmt.Errorf("action counts: %w", err)
		}
		urgencies, err := runs.CountsBy(store.ByUrgency)
		if err != nil {
			return fmt.Errorf("urgency counts: %w", err)
		}
		total := runs.Count()

		if jsonOutput {
			out := statsOutput{
				Total:      total,
				Categories: categories,
				Actions:    actions,
				Urgencies:  urgencies,
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		display.Header("Triage history")
		fmt.Println()
		fmt.Printf("  Total runs: %d\n", total)
		fmt.Println()
		display.Distribution("Major categories", categories)
		fmt.Println()
		display.Distribution("Action keys", actions)
		fmt.Println()
		display.Distribution("Urgency", urgencies)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
