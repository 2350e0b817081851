package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/daviddao/mailtriage/internal/config"
	"github.com/daviddao/mailtriage/internal/store"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	dbPath     string
	jsonOutput bool
	quietFlag  bool

	settings *config.Settings
	runs     *store.Store
)

var rootCmd = &cobra.Command{
	Use:   "mt",
	Short: "mt - Gmail triage pipeline",
	Long: `Mailtriage: classify Gmail messages, extract entities and deadlines, and
recommend actions. The same pipeline runs locally (triage, pull), as an HTTP
service (serve), or against a running server (batch, stream).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		settings = config.Load()

		// Only the history commands need the run store up front; serve,
		// triage, and pull open it on demand when recording.
		switch cmd.Name() {
		case "history", "stats":
			var err error
			runs, err = openRunStore()
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if runs != nil {
			runs.Close()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mt version %s\n", Version)
	},
}

// openRunStore opens the run-history database, preferring the --db flag over
// the configured default path.
func openRunStore() (*store.Store, error) {
	path := dbPath
	if path == "" {
		path = settings.DBPath
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}
	return s, nil
}

// newLogger builds the logger for long-running commands. Log output goes to
// stderr so JSON on stdout stays parseable.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if quietFlag {
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Run store path (default: $MT_DB or ~/.mailtriage/triage.db)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
