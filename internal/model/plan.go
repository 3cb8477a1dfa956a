package model

import (
	"fmt"
	"strings"
)

// DepositPlan is the outcome of planning a deposit against current reserves.
type DepositPlan struct {
	AppliedA     uint64 `json:"applied_a"`
	AppliedB     uint64 `json:"applied_b"`
	Minted       uint64 `json:"minted_liquidity"`
	Locked       uint64 `json:"locked_liquidity"`
	PoolCreation bool   `json:"pool_creation"`
}

// WithdrawPlan is the pro-rata payout for burning liquidity shares.
type WithdrawPlan struct {
	PayoutA uint64 `json:"payout_a"`
	PayoutB uint64 `json:"payout_b"`
}

// SwapQuote is the fee-adjusted output for a swap input.
type SwapQuote struct {
	Input      uint64 `json:"input"`
	Fee        uint64 `json:"fee"`
	TaxedInput uint64 `json:"taxed_input"`
	Output     uint64 `json:"output"`
}

// Direction selects which reserve receives the swap input.
type Direction uint8

const (
	AToB Direction = iota // input asset A, output asset B
	BToA
)

func (d Direction) String() string {
	switch d {
	case AToB:
		return "a_to_b"
	case BToA:
		return "b_to_a"
	default:
		return "unknown"
	}
}

// ParseDirection accepts "a_to_b"/"a" and "b_to_a"/"b".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a_to_b", "a", "":
		return AToB, nil
	case "b_to_a", "b":
		return BToA, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s", s)
	}
}

// MarshalText encodes the direction as its string name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
