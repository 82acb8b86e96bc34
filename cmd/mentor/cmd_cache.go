package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentqa/mentor/internal/cache"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the judge verdict cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all cached judge verdicts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cache.New(cfg.Paths.Cache).Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared verdict cache at %s\n", cfg.Paths.Cache)
			return nil
		},
	})

	return cmd
}
