package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRequestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Battle request commands",
	}

	cmd.AddCommand(newRequestSendCmd())
	cmd.AddCommand(newRequestListCmd())
	cmd.AddCommand(newRequestAcceptCmd())
	cmd.AddCommand(newRequestDeclineCmd())
	cmd.AddCommand(newRequestCancelCmd())

	return cmd
}

func newRequestSendCmd() *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Challenge a player by tag",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tag == "" {
				return fmt.Errorf("--tag is required")
			}

			req := map[string]string{"target_tag": tag}
			var result BattleRequest

			if err := client.Post("/api/v1/requests", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "Target player tag (required)")
	_ = cmd.MarkFlagRequired("tag")

	return cmd
}

func newRequestListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your battle requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result BattleRequests

			if err := client.Get("/api/v1/requests", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRequestAcceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept <id>",
		Short: "Accept an incoming battle request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result BattleRequest

			if err := client.Post("/api/v1/requests/"+args[0]+"/accept", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRequestDeclineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decline <id>",
		Short: "Decline an incoming battle request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result BattleRequest

			if err := client.Post("/api/v1/requests/"+args[0]+"/decline", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRequestCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel an outgoing battle request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/requests/" + args[0]); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Request cancelled")
			return nil
		},
	}
}
