package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/agentqa/mentor/internal/evaluation"
	"github.com/agentqa/mentor/internal/reporting"
	"github.com/agentqa/mentor/internal/spinner"
)

func newEvalCommand() *cobra.Command {
	var (
		dataDir   string
		casesCSV  string
		junitPath string
		noSave    bool
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run the guardrail evaluation suite",
		Long: `Run the full QA pipeline over the labeled evaluation traces and
check the aggregate rates (hallucination, safety, task quality,
efficiency) against the guardrail threshold. Exits non-zero when any
guardrail fails, so this can gate CI.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := slog.Default()

			if dataDir == "" {
				dataDir = cfg.Paths.Data
			}

			orch, cleanup, err := buildOrchestrator(cfg, logger, "", false)
			if err != nil {
				return err
			}
			defer cleanup()

			cases := evaluation.DefaultCases(dataDir)
			if casesCSV != "" {
				cases, err = evaluation.CasesFromCSV(casesCSV)
				if err != nil {
					return err
				}
			}

			suite := evaluation.NewSuite(orch, logger)
			stopSpinner := spinner.Start(cmd.ErrOrStderr(), "Running evaluation suite...")
			summary, err := suite.Run(cmd.Context(), cases)
			stopSpinner()
			if err != nil {
				return err
			}

			evaluation.RenderSummary(cmd.OutOrStdout(), summary)

			if !noSave {
				if err := evaluation.SaveResults(cfg.Paths.Results, summary); err != nil {
					return err
				}
				logger.Info("saved evaluation results", "path", cfg.Paths.Results)
			}

			if junitPath != "" {
				if err := reporting.WriteJUnitXML(summary, junitPath); err != nil {
					return err
				}
				logger.Info("wrote JUnit report", "path", junitPath)
			}

			if !summary.Passed {
				return &GuardrailError{Message: "one or more guardrail checks fell below threshold"}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data", "", "Directory holding the evaluation traces (defaults to the configured data dir)")
	cmd.Flags().StringVar(&casesCSV, "cases", "", "CSV file of labeled cases (columns: trace_path, expected_outcome)")
	cmd.Flags().StringVar(&junitPath, "junit", "", "Write a JUnit XML report to this path")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Skip writing the results JSON file")

	return cmd
}
