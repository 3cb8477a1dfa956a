// Package address derives the deterministic identities of markets, pools and their accounts.
package address

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ProgramID owns every derived address.
var ProgramID = solana.MustPublicKeyFromBase58("EuB1XVzgMPt1bFYY1wW3hcNAZEuT4y4qWiTH7n8j3Pz5")

const (
	AuthoritySeed = "authority"
	LiquiditySeed = "liquidity"

	// LiquidityDecimals is the precision of every pool's share mint.
	LiquidityDecimals uint8 = 6
)

// PoolAddresses are the derived accounts of one pool.
type PoolAddresses struct {
	Market        solana.PublicKey `json:"market"`
	Pool          solana.PublicKey `json:"pool"`
	Authority     solana.PublicKey `json:"authority"`
	Liquidity     solana.PublicKey `json:"liquidity_mint"`
	MarketBump    uint8            `json:"market_bump"`
	PoolBump      uint8            `json:"pool_bump"`
	AuthorityBump uint8            `json:"authority_bump"`
	LiquidityBump uint8            `json:"liquidity_bump"`
}

// Market derives the market account from its id.
func Market(id solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{id.Bytes()}, ProgramID)
}

// Pool derives every account of the pool (marketID, assetA, assetB). Pool seeds start with the
// market account, not the market id.
func Pool(marketID, assetA, assetB solana.PublicKey) (PoolAddresses, error) {
	var out PoolAddresses
	var err error

	out.Market, out.MarketBump, err = Market(marketID)
	if err != nil {
		return PoolAddresses{}, fmt.Errorf("derive market: %w", err)
	}

	base := [][]byte{out.Market.Bytes(), assetA.Bytes(), assetB.Bytes()}

	out.Pool, out.PoolBump, err = solana.FindProgramAddress(base, ProgramID)
	if err != nil {
		return PoolAddresses{}, fmt.Errorf("derive pool: %w", err)
	}
	out.Authority, out.AuthorityBump, err = solana.FindProgramAddress(withSeed(base, AuthoritySeed), ProgramID)
	if err != nil {
		return PoolAddresses{}, fmt.Errorf("derive authority: %w", err)
	}
	out.Liquidity, out.LiquidityBump, err = solana.FindProgramAddress(withSeed(base, LiquiditySeed), ProgramID)
	if err != nil {
		return PoolAddresses{}, fmt.Errorf("derive liquidity mint: %w", err)
	}
	return out, nil
}

// Holding derives the associated holding account of owner for mint.
func Holding(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive holding: %w", err)
	}
	return addr, nil
}

// Resolve parses ref as a base58 key. Anything else is treated as a label and mapped to a stable
// key derived from ProgramID, so scripts can name assets and owners ("usdc", "alice").
func Resolve(ref string) (solana.PublicKey, error) {
	if ref == "" {
		return solana.PublicKey{}, fmt.Errorf("empty reference")
	}
	if pk, err := solana.PublicKeyFromBase58(ref); err == nil {
		return pk, nil
	}
	pk, err := solana.CreateWithSeed(ProgramID, ref, solana.SystemProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("resolve %q: %w", ref, err)
	}
	return pk, nil
}

func withSeed(base [][]byte, seed string) [][]byte {
	out := make([][]byte, 0, len(base)+1)
	out = append(out, base...)
	return append(out, []byte(seed))
}
