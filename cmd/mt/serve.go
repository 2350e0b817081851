package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/daviddao/mailtriage/internal/config"
	"github.com/daviddao/mailtriage/internal/llm"
	"github.com/daviddao/mailtriage/internal/pipeline"
	"github.com/daviddao/mailtriage/internal/server"
)

var (
	serveAddr   string
	serveRecord bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the triage HTTP server",
	Long: `Serve the triage pipeline over HTTP.

Routes:
  GET  /rd/api/v1/apidata    service identity and endpoint inventory
  GET  /rd/api/v1/health     liveness, uptime, request counts, recent errors
  GET  /rd/api/v1/ai         model and contract configuration
  POST /rd/api/v1/ai/triage  triage one raw Gmail message

With --record every successful triage is written to the run store.`,
	Example: `  mt serve
  mt serve --addr :9090 --record
  LLM_PROVIDER=local mt serve`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		client, err := llm.New(settings)
		if err != nil {
			return fmt.Errorf("select provider: %w", err)
		}
		pipe := pipeline.New(settings, client)

		var rec server.Recorder
		if serveRecord {
			s, err := openRunStore()
			if err != nil {
				return err
			}
			defer s.Close()
			rec = s
			logger.Info("run recording enabled", "db", s.Path())
		}

		gin.SetMode(gin.ReleaseMode)
		srv := server.New(settings, pipe, rec, logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("starting triage server",
			"addr", serveAddr,
			"provider", pipe.ProviderName(),
			"version", config.APIVersion,
		)
		return srv.Run(ctx, serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8000", "Listen address")
	serveCmd.Flags().BoolVar(&serveRecord, "record", false, "Record successful triage runs to the store")
	rootCmd.AddCommand(serveCmd)
}
