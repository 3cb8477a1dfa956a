package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"ammCore/internal/config"
	"ammCore/internal/fixedpoint"
	"ammCore/internal/liquidity"
	"ammCore/internal/model"
	"ammCore/internal/registry"
	"ammCore/internal/swap"
)

func poolFlags(flags *pflag.FlagSet) {
	flags.Uint64("reserve-a", 0, "pool reserve of asset A")
	flags.Uint64("reserve-b", 0, "pool reserve of asset B")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap against given reserves",
		RunE:  runQuote,
	}
	poolFlags(cmd.Flags())
	cmd.Flags().Uint64("fee-bps", 0, "market fee in basis points")
	cmd.Flags().String("direction", "a_to_b", "swap direction (a_to_b, b_to_a)")
	cmd.Flags().Uint64("amount", 0, "input amount")
	cmd.Flags().Uint64("min-out", 0, "minimum acceptable output")
	cmd.Flags().Uint64("balance", 0, "trader balance of the input asset; 0 disables clamping")
	return cmd
}

func newDepositCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Plan a deposit against given reserves",
		RunE:  runDepositPlan,
	}
	poolFlags(cmd.Flags())
	cmd.Flags().Uint64("supply", 0, "liquidity share supply")
	cmd.Flags().Uint64("amount-a", 0, "requested amount of asset A")
	cmd.Flags().Uint64("amount-b", 0, "requested amount of asset B")
	return cmd
}

func newWithdrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Plan a withdrawal against given reserves",
		RunE:  runWithdrawPlan,
	}
	poolFlags(cmd.Flags())
	cmd.Flags().Uint64("supply", 0, "liquidity share supply")
	cmd.Flags().Uint64("burn", 0, "shares to burn")
	return cmd
}

type quoteOutput struct {
	Direction       model.Direction `json:"direction"`
	Quote           model.SwapQuote `json:"quote"`
	ReserveIn       uint64          `json:"reserve_in_after"`
	ReserveOut      uint64          `json:"reserve_out_after"`
	InvariantBefore string          `json:"invariant_before"`
	InvariantAfter  string          `json:"invariant_after"`
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfg, err := loadPlan(cmd)
	if err != nil {
		return err
	}
	if err := registry.ValidateFee(cfg.FeeBps); err != nil {
		return err
	}
	dir, err := model.ParseDirection(cfg.Direction)
	if err != nil {
		return err
	}

	reserveIn, reserveOut := cfg.ReserveA, cfg.ReserveB
	if dir == model.BToA {
		reserveIn, reserveOut = reserveOut, reserveIn
	}
	input := cfg.Amount
	if cfg.Balance > 0 {
		input = swap.ClampInput(input, cfg.Balance)
	}

	quote, err := swap.QuoteSwap(reserveIn, reserveOut, cfg.FeeBps, input)
	if err != nil {
		return err
	}
	if err := swap.CheckOutput(quote, cfg.MinOut); err != nil {
		return fmt.Errorf("quote %d out: %w", quote.Output, err)
	}

	inAfter, err := fixedpoint.Add64(reserveIn, quote.Input)
	if err != nil {
		return err
	}
	outAfter := reserveOut - quote.Output
	return writeJSON(cmd.OutOrStdout(), quoteOutput{
		Direction:       dir,
		Quote:           quote,
		ReserveIn:       inAfter,
		ReserveOut:      outAfter,
		InvariantBefore: swap.InvariantOf(reserveIn, reserveOut).Dec(),
		InvariantAfter:  swap.InvariantOf(inAfter, outAfter).Dec(),
	})
}

func runDepositPlan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadPlan(cmd)
	if err != nil {
		return err
	}
	plan, err := liquidity.PlanDeposit(cfg.ReserveA, cfg.ReserveB, cfg.Supply, cfg.AmountA, cfg.AmountB)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), plan)
}

func runWithdrawPlan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadPlan(cmd)
	if err != nil {
		return err
	}
	plan, err := liquidity.PlanWithdraw(cfg.ReserveA, cfg.ReserveB, cfg.Supply, cfg.Burn)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), plan)
}

func loadPlan(cmd *cobra.Command) (config.PlanConfig, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.LoadPlan(cfgFile, cmd.Flags())
}
