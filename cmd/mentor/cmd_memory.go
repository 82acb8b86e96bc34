package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

func newMemoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect or clear the analysis memory store",
	}

	cmd.AddCommand(newMemoryShowCommand())
	cmd.AddCommand(newMemoryClearCommand())

	return cmd
}

func newMemoryShowCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print recent memory entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := buildStore(cfg, slog.Default())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Memory store: %s (%d entries)\n", cfg.Paths.Memory, store.Count())

			for i, entry := range store.DebugSummary(limit) {
				fmt.Fprintf(out, "\n[%d] agent=%s\n", i+1, entry.AgentName)
				if len(entry.IssueCodes) > 0 {
					fmt.Fprintf(out, "    issues: %s\n", strings.Join(entry.IssueCodes, ", "))
				}
				for _, snippet := range entry.HelpfulSnippets {
					fmt.Fprintf(out, "    - %s\n", snippet)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of entries to show")

	return cmd
}

func newMemoryClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all stored memory entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := buildStore(cfg, slog.Default())
			if err != nil {
				return err
			}

			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared memory store at %s\n", cfg.Paths.Memory)
			return nil
		},
	}
}
