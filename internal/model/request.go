package model

import (
	"encoding/json"
)

// Operation names accepted in simulation scripts and recorded in the journal.
const (
	OpCreateMarket = "create_market"
	OpCreatePool   = "create_pool"
	OpFund         = "fund"
	OpDeposit      = "deposit"
	OpWithdraw     = "withdraw"
	OpSwap         = "swap"
)

// Request is one line of a simulation script.
// Identity fields accept a base58 public key or a free-form label that is hashed to a key.
type Request struct {
	Op        string    `json:"op"`
	Admin     string    `json:"admin,omitempty"`
	ID        string    `json:"id,omitempty"`
	FeeBps    uint16    `json:"fee_bps,omitempty"`
	Market    string    `json:"market,omitempty"`
	AssetA    string    `json:"asset_a,omitempty"`
	AssetB    string    `json:"asset_b,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	Asset     string    `json:"asset,omitempty"`
	Amount    uint64    `json:"amount,omitempty"`
	AmountA   uint64    `json:"amount_a,omitempty"`
	AmountB   uint64    `json:"amount_b,omitempty"`
	Direction Direction `json:"direction,omitempty"`
	MinOutput uint64    `json:"min_output,omitempty"`
}

// MarshalJSON ensures Request is encoded with stable field names.
func (r Request) MarshalJSON() ([]byte, error) {
	type Alias Request
	return json.Marshal(Alias(r))
}

// UnmarshalJSON decodes a Request from JSON.
func (r *Request) UnmarshalJSON(data []byte) error {
	type Alias Request
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = Request(a)
	return nil
}
