// Package ledger holds asset balances and liquidity-share mints for the AMM.
//
// Reserves are never cached by the pool logic; every read goes through a BalanceReader inside an
// atomic section so a deposit, withdrawal or swap sees and commits one consistent snapshot.
package ledger

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	ammerrors "ammCore/internal/errors"
	"ammCore/internal/model"
)

// Holding is the balance of one owner in one mint.
type Holding struct {
	Owner solana.PublicKey `json:"owner"`
	Mint  solana.PublicKey `json:"mint"`
}

func (h Holding) String() string {
	return fmt.Sprintf("%s:%s", h.Owner, h.Mint)
}

// LockedOwner receives the liquidity shares locked by a pool's first deposit. Nothing can sign
// for it, so those shares are never burned.
var LockedOwner = solana.SystemProgramID

// Authority is the signing capability of a pool. Only the ledger that issued it accepts it.
type Authority struct {
	pool    model.PoolKey
	address solana.PublicKey
	bump    uint8
	issuer  *Memory
}

// Address is the account the authority signs for.
func (a *Authority) Address() solana.PublicKey {
	return a.address
}

// Bump is the derivation bump of Address.
func (a *Authority) Bump() uint8 {
	return a.bump
}

// Pool is the pool the authority is scoped to.
func (a *Authority) Pool() model.PoolKey {
	return a.pool
}

// BalanceReader reads a holding's balance.
type BalanceReader interface {
	Balance(h Holding) (uint64, error)
}

// Transferrer moves an amount between two holdings of the same mint. auth is required when the
// source is owned by a pool authority.
type Transferrer interface {
	Transfer(from, to Holding, amount uint64, auth *Authority) error
}

// MintBurner changes a mint's supply.
type MintBurner interface {
	Mint(mint solana.PublicKey, to Holding, amount uint64, auth *Authority) error
	Burn(from Holding, amount uint64) error
	Supply(mint solana.PublicKey) (uint64, error)
}

// CheckPool verifies that the accounts supplied for an operation are the ones recorded on the
// pool.
func CheckPool(pool model.Pool, market, assetA, assetB solana.PublicKey) error {
	mismatch := func(field string, want, got solana.PublicKey) error {
		return ammerrors.Newf(ammerrors.KindAccountMismatch, "%s mismatch: pool has %s, got %s", field, want, got).
			WithDetails(map[string]any{"field": field, "want": want.String(), "got": got.String()})
	}

	if !pool.Market.Equals(market) {
		return mismatch("market", pool.Market, market)
	}
	if !pool.AssetA.Equals(assetA) {
		return mismatch("asset_a", pool.AssetA, assetA)
	}
	if !pool.AssetB.Equals(assetB) {
		return mismatch("asset_b", pool.AssetB, assetB)
	}
	return nil
}
