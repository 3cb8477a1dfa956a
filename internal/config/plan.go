package config

import (
	"fmt"
	"math"

	"github.com/spf13/pflag"
)

// PlanConfig holds the pool state and amounts for the quote, deposit and withdraw commands.
type PlanConfig struct {
	ReserveA  uint64
	ReserveB  uint64
	Supply    uint64
	FeeBps    uint16
	Direction string
	Amount    uint64
	AmountA   uint64
	AmountB   uint64
	MinOut    uint64
	Balance   uint64
	Burn      uint64
	LogLevel  string
}

// LoadPlan merges config file, environment variables, and flags into PlanConfig.
func LoadPlan(cfgFile string, flags *pflag.FlagSet) (PlanConfig, error) {
	v, err := load(cfgFile, flags, map[string]any{
		"direction": "a_to_b",
		"log-level": "info",
	})
	if err != nil {
		return PlanConfig{}, err
	}

	feeBps := v.GetUint64("fee-bps")
	if feeBps > math.MaxUint16 {
		return PlanConfig{}, fmt.Errorf("fee-bps %d out of range", feeBps)
	}

	return PlanConfig{
		ReserveA:  v.GetUint64("reserve-a"),
		ReserveB:  v.GetUint64("reserve-b"),
		Supply:    v.GetUint64("supply"),
		FeeBps:    uint16(feeBps),
		Direction: v.GetString("direction"),
		Amount:    v.GetUint64("amount"),
		AmountA:   v.GetUint64("amount-a"),
		AmountB:   v.GetUint64("amount-b"),
		MinOut:    v.GetUint64("min-out"),
		Balance:   v.GetUint64("balance"),
		Burn:      v.GetUint64("burn"),
		LogLevel:  v.GetString("log-level"),
	}, nil
}
