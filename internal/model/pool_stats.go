package model

import "time"

// PoolStats stores aggregated activity for a pool over one simulation run.
type PoolStats struct {
	RunID         string
	Market        string
	AssetA        string
	AssetB        string
	SwapCount     uint64
	DepositCount  uint64
	WithdrawCount uint64
	FailedCount   uint64
	VolumeA       string
	VolumeB       string
	FeeA          string
	FeeB          string
	Minted        string
	Burned        string
	ReserveA      string
	ReserveB      string
	Supply        string
	Price         *string
	UpdatedAt     time.Time
}
