package model

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Market is one AMM instance. Fields are immutable after creation.
type Market struct {
	Admin  solana.PublicKey `json:"admin"`
	ID     solana.PublicKey `json:"id"`
	FeeBps uint16           `json:"fee_bps"`
}

// Pool associates two reserve assets with a market.
// Reserves and liquidity supply live in the ledger and are never cached here.
type Pool struct {
	Market solana.PublicKey `json:"market"`
	AssetA solana.PublicKey `json:"asset_a"`
	AssetB solana.PublicKey `json:"asset_b"`
}

// PoolKey identifies a pool by (market, asset_a, asset_b).
type PoolKey struct {
	Market solana.PublicKey
	AssetA solana.PublicKey
	AssetB solana.PublicKey
}

// Key returns the pool's registry key.
func (p Pool) Key() PoolKey {
	return PoolKey{Market: p.Market, AssetA: p.AssetA, AssetB: p.AssetB}
}

func (k PoolKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Market, k.AssetA, k.AssetB)
}

// Reserves is a snapshot of a pool's ledger balances taken inside an atomic section.
type Reserves struct {
	A      uint64 `json:"reserve_a"`
	B      uint64 `json:"reserve_b"`
	Supply uint64 `json:"liquidity_supply"`
}

// PoolRecord is a pool as persisted, with its derived accounts.
type PoolRecord struct {
	Pool
	Address       solana.PublicKey
	Authority     solana.PublicKey
	LiquidityMint solana.PublicKey
	FirstSeenSeq  uint64
}
