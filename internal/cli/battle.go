package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBattleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "battle",
		Short: "Battle session commands",
	}

	cmd.AddCommand(newBattleCreateCmd())
	cmd.AddCommand(newBattleGetCmd())
	cmd.AddCommand(newBattleJoinCmd())
	cmd.AddCommand(newBattlePlaceCmd())
	cmd.AddCommand(newBattleSyncCmd())
	cmd.AddCommand(newBattleEndCmd())
	cmd.AddCommand(newBattleLeaveCmd())
	cmd.AddCommand(newBattleActiveCmd())

	return cmd
}

func newBattleCreateCmd() *cobra.Command {
	var requestID string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a battle from an accepted request",
		RunE: func(cmd *cobra.Command, args []string) error {
			if requestID == "" {
				return fmt.Errorf("--request is required")
			}

			req := map[string]string{"request_id": requestID}
			var result Battle

			if err := client.Post("/api/v1/battles", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&requestID, "request", "", "Accepted request id (required)")
	_ = cmd.MarkFlagRequired("request")

	return cmd
}

func newBattleGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a battle's state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Battle

			if err := client.Get("/api/v1/battles/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newBattleJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <id>",
		Short: "Join (or rejoin) a battle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result BattleSession

			if err := client.Post("/api/v1/battles/"+args[0]+"/join", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newBattlePlaceCmd() *cobra.Command {
	var card string
	var slot, x, y int

	cmd := &cobra.Command{
		Use:   "place <id>",
		Short: "Relay a card placement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if card == "" {
				return fmt.Errorf("--card is required")
			}

			req := map[string]any{
				"card_id":    card,
				"card_index": slot,
				"x":          x,
				"y":          y,
			}
			var result Placement

			if err := client.Post("/api/v1/battles/"+args[0]+"/placements", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&card, "card", "", "Card id (required)")
	cmd.Flags().IntVar(&slot, "slot", 0, "Hand slot index")
	cmd.Flags().IntVar(&x, "x", 0, "Arena tile x")
	cmd.Flags().IntVar(&y, "y", 0, "Arena tile y")
	_ = cmd.MarkFlagRequired("card")

	return cmd
}

func newBattleSyncCmd() *cobra.Command {
	var timeRemaining int
	var hostElixir, guestElixir float64
	var hostTowers, guestTowers []int
	var outcome string

	cmd := &cobra.Command{
		Use:   "sync <id>",
		Short: "Sync the authoritative game state (host only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"time_remaining_sec": timeRemaining,
				"host_elixir":        hostElixir,
				"guest_elixir":       guestElixir,
				"host_towers":        hostTowers,
				"guest_towers":       guestTowers,
				"outcome":            outcome,
			}

			if err := client.Put("/api/v1/battles/"+args[0]+"/state", req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("State synced")
			return nil
		},
	}

	cmd.Flags().IntVar(&timeRemaining, "time-remaining", 0, "Seconds remaining")
	cmd.Flags().Float64Var(&hostElixir, "host-elixir", 0, "Host elixir")
	cmd.Flags().Float64Var(&guestElixir, "guest-elixir", 0, "Guest elixir")
	cmd.Flags().IntSliceVar(&hostTowers, "host-towers", nil, "Host tower health values")
	cmd.Flags().IntSliceVar(&guestTowers, "guest-towers", nil, "Guest tower health values")
	cmd.Flags().StringVar(&outcome, "outcome", "in_progress", "Outcome: in_progress, host_win, guest_win, draw")

	return cmd
}

func newBattleEndCmd() *cobra.Command {
	var winnerID string

	cmd := &cobra.Command{
		Use:   "end <id>",
		Short: "Report the end of a battle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{}
			if winnerID != "" {
				req["winner_id"] = winnerID
			}
			var result Battle

			if err := client.Post("/api/v1/battles/"+args[0]+"/end", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&winnerID, "winner", "", "Winner player id (optional)")

	return cmd
}

func newBattleLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <id>",
		Short: "Abandon a battle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/battles/" + args[0]); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Battle abandoned")
			return nil
		},
	}
}

func newBattleActiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "Find your resumable battle",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ResumableBattle

			if err := client.Get("/api/v1/battles/active", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
