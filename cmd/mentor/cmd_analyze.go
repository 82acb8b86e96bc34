package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentqa/mentor/internal/models"
	"github.com/agentqa/mentor/internal/reporting"
	"github.com/agentqa/mentor/internal/spinner"
)

func newAnalyzeCommand() *cobra.Command {
	var (
		sessionID  string
		jsonOut    bool
		htmlPath   string
		sessionLog bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <trace.json>",
		Short: "Run the QA pipeline over one conversation trace",
		Long: `Analyze a conversation trace: inspect the trajectory, score the run
with the LLM judge, rewrite the system prompt, and store reusable
snippets in memory. Prints a markdown report by default.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := slog.Default()

			trace, err := models.LoadTrace(args[0])
			if err != nil {
				return err
			}

			if cfg.Defaults.SessionLog != nil && *cfg.Defaults.SessionLog {
				sessionLog = true
			}

			orch, cleanup, err := buildOrchestrator(cfg, logger, sessionID, sessionLog)
			if err != nil {
				return err
			}
			defer cleanup()

			stopSpinner := spinner.Start(cmd.ErrOrStderr(), "Analyzing trace...")
			report, err := orch.RunAnalysis(cmd.Context(), trace)
			stopSpinner()
			if err != nil {
				return err
			}

			if htmlPath != "" {
				html, err := reporting.HTML(&report)
				if err != nil {
					return err
				}
				if err := os.WriteFile(htmlPath, []byte(html), 0644); err != nil {
					return fmt.Errorf("writing HTML report: %w", err)
				}
				logger.Info("wrote HTML report", "path", htmlPath)
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Fprint(cmd.OutOrStdout(), reporting.Markdown(&report))
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to group memory entries")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the full report as JSON instead of markdown")
	cmd.Flags().StringVar(&htmlPath, "html", "", "Also write an HTML report to this path")
	cmd.Flags().BoolVar(&sessionLog, "session-log", false, "Record pipeline stage events to a session log")

	return cmd
}
