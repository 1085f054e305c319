package cli

import (
	"github.com/spf13/cobra"
)

func newPresenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presence",
		Short: "Presence commands",
	}

	cmd.AddCommand(newPresencePingCmd())
	cmd.AddCommand(newPresenceOfflineCmd())
	cmd.AddCommand(newPresenceOnlineCmd())

	return cmd
}

func newPresencePingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Send a presence heartbeat",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Put("/api/v1/presence", nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Heartbeat sent")
			return nil
		},
	}
}

func newPresenceOfflineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "offline",
		Short: "Flag yourself offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/presence"); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("You are now offline")
			return nil
		},
	}
}

func newPresenceOnlineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "online",
		Short: "List online players",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result OnlinePlayers

			if err := client.Get("/api/v1/presence/online", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
