package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mentor",
		Short: "Mentor - QA pipeline for AI agent conversations",
		Long: `Mentor analyzes AI agent conversation traces: it inspects trajectories
for mechanical defects, scores runs with an LLM judge, rewrites system
prompts to address detected issues, and accumulates reusable prompt
snippets in a memory store.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newAnalyzeCommand())
	cmd.AddCommand(newEvalCommand())
	cmd.AddCommand(newInjectCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMemoryCommand())
	cmd.AddCommand(newSessionsCommand())
	cmd.AddCommand(newCacheCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
