// Package executor applies AMM operations to a ledger.
//
// Each operation reads reserves inside the ledger's atomic section for the pool, asks the core
// (liquidity, swap) for amounts, applies the resulting transfers, mints and burns, and returns a
// journal record describing the outcome. Failed operations also return a record.
package executor

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammCore/internal/address"
	ammerrors "ammCore/internal/errors"
	"ammCore/internal/ledger"
	"ammCore/internal/model"
	"ammCore/internal/registry"
)

// Executor runs operations against a registry and an in-memory ledger.
type Executor struct {
	registry *registry.Registry
	ledger   *ledger.Memory
	accounts *accountCache
	logger   *zap.Logger
	now      func() time.Time
}

func New(reg *registry.Registry, led *ledger.Memory, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		registry: reg,
		ledger:   led,
		accounts: newAccountCache(),
		logger:   logger,
		now:      time.Now,
	}
}

// DepositRequest adds liquidity. Amounts above the owner's balances are clamped.
type DepositRequest struct {
	Pool    model.PoolKey
	Owner   solana.PublicKey
	AmountA uint64
	AmountB uint64
}

// WithdrawRequest burns liquidity shares for a pro-rata payout.
type WithdrawRequest struct {
	Pool  model.PoolKey
	Owner solana.PublicKey
	Burn  uint64
}

// SwapRequest trades one pool asset for the other.
type SwapRequest struct {
	Pool      model.PoolKey
	Owner     solana.PublicKey
	Direction model.Direction
	Amount    uint64
	MinOutput uint64
}

// CreateMarket registers a market.
func (e *Executor) CreateMarket(ctx context.Context, admin, id solana.PublicKey, feeBps uint16) (model.OperationRecord, error) {
	record := e.newRecord(model.OpCreateMarket)
	record.Market = id.String()
	record.Owner = admin.String()
	record.FeeBps = feeBps

	if err := ctx.Err(); err != nil {
		return e.finish(record, err)
	}
	_, err := e.registry.RegisterMarket(admin, id, feeBps)
	return e.finish(record, err)
}

// CreatePool registers an empty pool under an existing market and opens its share mint.
func (e *Executor) CreatePool(ctx context.Context, marketID, assetA, assetB solana.PublicKey) (model.OperationRecord, error) {
	record := e.newRecord(model.OpCreatePool)
	record.Market, record.AssetA, record.AssetB = marketID.String(), assetA.String(), assetB.String()

	if err := ctx.Err(); err != nil {
		return e.finish(record, err)
	}

	pool, err := e.registry.RegisterPool(marketID, assetA, assetB)
	if err != nil {
		return e.finish(record, err)
	}

	accts, err := loadPoolAccounts(e.ledger, pool)
	if err != nil {
		return e.finish(record, err)
	}
	if err := e.ledger.CreateMint(accts.addrs.Liquidity, accts.auth.Address(), address.LiquidityDecimals); err != nil {
		return e.finish(record, err)
	}
	e.accounts.Set(pool.Key(), accts)

	record.After = &model.Reserves{}
	return e.finish(record, nil)
}

// Fund credits an external asset to owner.
func (e *Executor) Fund(ctx context.Context, owner, asset solana.PublicKey, amount uint64) (model.OperationRecord, error) {
	record := e.newRecord(model.OpFund)
	record.Owner = owner.String()
	record.AssetA = asset.String()
	record.Amount = amount

	if err := ctx.Err(); err != nil {
		return e.finish(record, err)
	}
	return e.finish(record, e.ledger.Fund(ledger.Holding{Owner: owner, Mint: asset}, amount))
}

// Reserves returns the committed reserves and share supply of a pool.
func (e *Executor) Reserves(key model.PoolKey) (model.Reserves, error) {
	pool, accts, err := e.lookup(key)
	if err != nil {
		return model.Reserves{}, err
	}
	return readReserves(e.ledger, pool, accts)
}

// Balance returns owner's committed balance of mint.
func (e *Executor) Balance(owner, mint solana.PublicKey) (uint64, error) {
	return e.ledger.Balance(ledger.Holding{Owner: owner, Mint: mint})
}

// Shares returns owner's committed liquidity shares in a pool.
func (e *Executor) Shares(key model.PoolKey, owner solana.PublicKey) (uint64, error) {
	_, accts, err := e.lookup(key)
	if err != nil {
		return 0, err
	}
	return e.ledger.Balance(accts.shares(owner))
}

// lookup returns the registered pool and its accounts after checking the pool against its market.
func (e *Executor) lookup(key model.PoolKey) (model.Pool, poolAccounts, error) {
	pool, err := e.registry.Pool(key)
	if err != nil {
		return model.Pool{}, poolAccounts{}, err
	}
	market, err := e.registry.Market(pool.Market)
	if err != nil {
		return model.Pool{}, poolAccounts{}, err
	}
	if err := ledger.CheckPool(pool, market.ID, key.AssetA, key.AssetB); err != nil {
		return model.Pool{}, poolAccounts{}, err
	}

	if accts, ok := e.accounts.Get(key); ok {
		return pool, accts, nil
	}
	accts, err := loadPoolAccounts(e.ledger, pool)
	if err != nil {
		return model.Pool{}, poolAccounts{}, err
	}
	e.accounts.Set(key, accts)
	return pool, accts, nil
}

func (e *Executor) newRecord(op string) model.OperationRecord {
	return model.OperationRecord{
		Op:        op,
		Timestamp: e.now().UTC().Format(time.RFC3339Nano),
	}
}

func (e *Executor) poolRecord(op string, key model.PoolKey, owner solana.PublicKey) model.OperationRecord {
	record := e.newRecord(op)
	record.Market = key.Market.String()
	record.AssetA = key.AssetA.String()
	record.AssetB = key.AssetB.String()
	record.Owner = owner.String()
	return record
}

func (e *Executor) finish(record model.OperationRecord, err error) (model.OperationRecord, error) {
	if err == nil {
		record.Status = model.StatusApplied
		e.logger.Debug("operation applied",
			zap.String("op", record.Op),
			zap.String("market", record.Market),
			zap.String("asset_a", record.AssetA),
			zap.String("asset_b", record.AssetB),
		)
		return record, nil
	}

	record.Status = model.StatusFailed
	record.ErrorKind = string(ammerrors.KindOf(err))
	record.Error = err.Error()
	// Nothing was committed for a failed operation.
	record.After = nil
	e.logger.Info("operation failed",
		zap.String("op", record.Op),
		zap.String("kind", record.ErrorKind),
		zap.String("market", record.Market),
		zap.Error(err),
	)
	return record, err
}

// reserveReader is satisfied by both the committed ledger and an atomic section.
type reserveReader interface {
	ledger.BalanceReader
	Supply(mint solana.PublicKey) (uint64, error)
}

func readReserves(r reserveReader, pool model.Pool, accts poolAccounts) (model.Reserves, error) {
	holdingA, holdingB := accts.reserves(pool)

	a, err := r.Balance(holdingA)
	if err != nil {
		return model.Reserves{}, err
	}
	b, err := r.Balance(holdingB)
	if err != nil {
		return model.Reserves{}, err
	}
	supply, err := r.Supply(accts.addrs.Liquidity)
	if err != nil {
		return model.Reserves{}, err
	}
	return model.Reserves{A: a, B: b, Supply: supply}, nil
}
