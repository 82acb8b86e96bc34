package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentqa/mentor/internal/injection"
)

func newInjectCommand() *cobra.Command {
	var (
		prompt     string
		promptFile string
		numTests   int
	)

	cmd := &cobra.Command{
		Use:   "inject",
		Short: "Probe a system prompt with generated injection attacks",
		Long: `Generate adversarial user prompts targeting the given system prompt,
run each one through a simulated agent, and score the resulting
conversations with the QA pipeline. Prints the per-test results as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if prompt == "" && promptFile == "" {
				return fmt.Errorf("either --prompt or --prompt-file is required")
			}
			if promptFile != "" {
				data, err := os.ReadFile(promptFile)
				if err != nil {
					return fmt.Errorf("reading prompt file: %w", err)
				}
				prompt = strings.TrimSpace(string(data))
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := slog.Default()

			client, err := buildOracle(cfg)
			if err != nil {
				return err
			}

			orch, cleanup, err := buildOrchestrator(cfg, logger, "injection_test", false)
			if err != nil {
				return err
			}
			defer cleanup()

			runner := injection.NewRunner(injection.NewGenerator(client), orch, logger)
			results, err := runner.Run(cmd.Context(), prompt, numTests)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "System prompt to probe")
	cmd.Flags().StringVar(&promptFile, "prompt-file", "", "File holding the system prompt to probe")
	cmd.Flags().IntVarP(&numTests, "num-tests", "n", 5, "Number of injection tests to generate")

	return cmd
}
