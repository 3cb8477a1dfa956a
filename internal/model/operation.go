package model

// Journal statuses.
const (
	StatusApplied = "applied"
	StatusFailed  = "failed"
)

// OperationRecord journals one deposit, withdraw, swap or registry call and its outcome.
// Failed operations are journaled too; their ledger effects were discarded.
type OperationRecord struct {
	RunID     string `json:"run_id"`
	Seq       uint64 `json:"seq"`
	Op        string `json:"op"`
	Status    string `json:"status"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`

	Market string `json:"market,omitempty"`
	AssetA string `json:"asset_a,omitempty"`
	AssetB string `json:"asset_b,omitempty"`
	Owner  string `json:"owner,omitempty"`
	FeeBps uint16 `json:"fee_bps,omitempty"`
	Amount uint64 `json:"amount,omitempty"`

	Before *Reserves `json:"before,omitempty"`
	After  *Reserves `json:"after,omitempty"`

	Deposit  *DepositPlan   `json:"deposit,omitempty"`
	Withdraw *WithdrawPlan  `json:"withdraw,omitempty"`
	Swap     *SwapEventData `json:"swap,omitempty"`

	Timestamp string `json:"timestamp"`
}

// SwapEventData is the swap payload of a journal record.
type SwapEventData struct {
	Direction Direction `json:"direction"`
	Requested uint64    `json:"requested"`
	MinOutput uint64    `json:"min_output"`
	Quote     SwapQuote `json:"quote"`
}
