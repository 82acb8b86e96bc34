package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentqa/mentor/internal/orchestration"
	"github.com/agentqa/mentor/internal/service"
)

func newServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the QA pipeline as an HTTP service",
		Long: `Start an HTTP server exposing the QA pipeline. POST a conversation
trace to /api/v1/qa to analyze it; GET /api/v1/qa/report for an HTML
rendering of the most recent report. Shuts down gracefully on SIGINT
or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := slog.Default()

			client, err := buildOracle(cfg)
			if err != nil {
				return err
			}
			store, err := buildStore(cfg, logger)
			if err != nil {
				return err
			}

			if port == 0 {
				port = cfg.Server.Port
			}

			// Each request gets a fresh orchestrator so a caller-supplied
			// session id never bleeds into other requests.
			factory := func(sessionID string) service.Analyzer {
				opts := []orchestration.Option{orchestration.WithLogger(logger)}
				if sessionID != "" {
					opts = append(opts, orchestration.WithSessionID(sessionID))
				}
				return orchestration.New(client, store, opts...)
			}

			srv := service.New(service.Config{Port: port, Logger: logger}, factory)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (defaults to the configured server port)")

	return cmd
}
