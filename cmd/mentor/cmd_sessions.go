package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentqa/mentor/internal/session"
)

func newSessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List and view QA session logs",
	}

	cmd.AddCommand(newSessionsListCommand())
	cmd.AddCommand(newSessionsViewCommand())

	return cmd
}

func newSessionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded session logs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			files, err := session.ListSessions(cfg.Paths.Sessions)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No session logs found.")
				return nil
			}

			for _, f := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d events\n",
					f.ModTime.Format("2006-01-02 15:04:05"), f.Name, f.NumEvents)
			}
			return nil
		},
	}
}

func newSessionsViewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view <session-file>",
		Short: "Render a session log as a timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := session.ReadEvents(args[0])
			if err != nil {
				return err
			}
			session.RenderTimeline(cmd.OutOrStdout(), events)
			return nil
		},
	}
}
