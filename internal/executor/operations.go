package executor

import (
	"context"

	"go.uber.org/zap"

	"ammCore/internal/ledger"
	"ammCore/internal/liquidity"
	"ammCore/internal/model"
	"ammCore/internal/swap"
)

// Deposit adds liquidity to a pool and mints shares to the owner. The first deposit into an
// empty pool also mints the locked minimum to ledger.LockedOwner.
func (e *Executor) Deposit(ctx context.Context, req DepositRequest) (model.OperationRecord, error) {
	record := e.poolRecord(model.OpDeposit, req.Pool, req.Owner)

	pool, accts, err := e.lookup(req.Pool)
	if err != nil {
		return e.finish(record, err)
	}
	reserveA, reserveB := accts.reserves(pool)
	ownerA := ledger.Holding{Owner: req.Owner, Mint: pool.AssetA}
	ownerB := ledger.Holding{Owner: req.Owner, Mint: pool.AssetB}

	err = e.ledger.Atomic(ctx, req.Pool, func(tx *ledger.Tx) error {
		before, err := readReserves(tx, pool, accts)
		if err != nil {
			return err
		}
		record.Before = &before

		balA, err := tx.Balance(ownerA)
		if err != nil {
			return err
		}
		balB, err := tx.Balance(ownerB)
		if err != nil {
			return err
		}

		plan, err := liquidity.PlanDeposit(before.A, before.B, before.Supply,
			liquidity.ClampToBalance(req.AmountA, balA),
			liquidity.ClampToBalance(req.AmountB, balB))
		if err != nil {
			return err
		}
		record.Deposit = &plan

		if err := tx.Transfer(ownerA, reserveA, plan.AppliedA, nil); err != nil {
			return err
		}
		if err := tx.Transfer(ownerB, reserveB, plan.AppliedB, nil); err != nil {
			return err
		}
		if err := tx.Mint(accts.addrs.Liquidity, accts.shares(req.Owner), plan.Minted, accts.auth); err != nil {
			return err
		}
		if plan.Locked > 0 {
			if err := tx.Mint(accts.addrs.Liquidity, accts.shares(ledger.LockedOwner), plan.Locked, accts.auth); err != nil {
				return err
			}
		}

		after, err := readReserves(tx, pool, accts)
		if err != nil {
			return err
		}
		record.After = &after
		return nil
	})
	if err == nil {
		e.logger.Info("deposit",
			zap.String("pool", req.Pool.String()),
			zap.Uint64("applied_a", record.Deposit.AppliedA),
			zap.Uint64("applied_b", record.Deposit.AppliedB),
			zap.Uint64("minted", record.Deposit.Minted),
			zap.Bool("pool_creation", record.Deposit.PoolCreation),
		)
	}
	return e.finish(record, err)
}

// Withdraw burns shares and pays out both reserves pro rata.
func (e *Executor) Withdraw(ctx context.Context, req WithdrawRequest) (model.OperationRecord, error) {
	record := e.poolRecord(model.OpWithdraw, req.Pool, req.Owner)

	pool, accts, err := e.lookup(req.Pool)
	if err != nil {
		return e.finish(record, err)
	}
	reserveA, reserveB := accts.reserves(pool)

	err = e.ledger.Atomic(ctx, req.Pool, func(tx *ledger.Tx) error {
		before, err := readReserves(tx, pool, accts)
		if err != nil {
			return err
		}
		record.Before = &before

		plan, err := liquidity.PlanWithdraw(before.A, before.B, before.Supply, req.Burn)
		if err != nil {
			return err
		}
		record.Withdraw = &plan

		if err := tx.Burn(accts.shares(req.Owner), req.Burn); err != nil {
			return err
		}
		if err := tx.Transfer(reserveA, ledger.Holding{Owner: req.Owner, Mint: pool.AssetA}, plan.PayoutA, accts.auth); err != nil {
			return err
		}
		if err := tx.Transfer(reserveB, ledger.Holding{Owner: req.Owner, Mint: pool.AssetB}, plan.PayoutB, accts.auth); err != nil {
			return err
		}

		after, err := readReserves(tx, pool, accts)
		if err != nil {
			return err
		}
		record.After = &after
		return nil
	})
	if err == nil {
		e.logger.Info("withdraw",
			zap.String("pool", req.Pool.String()),
			zap.Uint64("burned", req.Burn),
			zap.Uint64("payout_a", record.Withdraw.PayoutA),
			zap.Uint64("payout_b", record.Withdraw.PayoutB),
		)
	}
	return e.finish(record, err)
}

// Swap trades against the pool at the market's fee.
func (e *Executor) Swap(ctx context.Context, req SwapRequest) (model.OperationRecord, error) {
	record := e.poolRecord(model.OpSwap, req.Pool, req.Owner)
	record.Swap = &model.SwapEventData{
		Direction: req.Direction,
		Requested: req.Amount,
		MinOutput: req.MinOutput,
	}

	pool, accts, err := e.lookup(req.Pool)
	if err != nil {
		return e.finish(record, err)
	}
	market, err := e.registry.Market(pool.Market)
	if err != nil {
		return e.finish(record, err)
	}
	record.FeeBps = market.FeeBps

	reserveA, reserveB := accts.reserves(pool)
	ownerA := ledger.Holding{Owner: req.Owner, Mint: pool.AssetA}
	ownerB := ledger.Holding{Owner: req.Owner, Mint: pool.AssetB}

	swapReq := swap.Request{
		TraderIn:   ownerA,
		TraderOut:  ownerB,
		ReserveIn:  reserveA,
		ReserveOut: reserveB,
		Authority:  accts.auth,
		FeeBps:     market.FeeBps,
		Amount:     req.Amount,
		MinOutput:  req.MinOutput,
	}
	if req.Direction == model.BToA {
		swapReq.TraderIn, swapReq.TraderOut = ownerB, ownerA
		swapReq.ReserveIn, swapReq.ReserveOut = reserveB, reserveA
	}

	err = e.ledger.Atomic(ctx, req.Pool, func(tx *ledger.Tx) error {
		before, err := readReserves(tx, pool, accts)
		if err != nil {
			return err
		}
		record.Before = &before

		res, err := swap.Execute(ctx, tx, swapReq)
		record.Swap.Quote = res.Quote
		if err != nil {
			return err
		}

		after, err := readReserves(tx, pool, accts)
		if err != nil {
			return err
		}
		record.After = &after
		return nil
	})
	if err == nil {
		e.logger.Info("swap",
			zap.String("pool", req.Pool.String()),
			zap.String("direction", req.Direction.String()),
			zap.Uint64("input", record.Swap.Quote.Input),
			zap.Uint64("fee", record.Swap.Quote.Fee),
			zap.Uint64("output", record.Swap.Quote.Output),
		)
	}
	return e.finish(record, err)
}
