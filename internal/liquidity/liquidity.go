// Package liquidity plans deposits and withdrawals against a pool's current reserves.
//
// The functions are pure: reserves and supply come from the caller, and the returned plans are
// applied to the ledger by the caller inside its atomic section.
package liquidity

import (
	ammerrors "ammCore/internal/errors"
	"ammCore/internal/fixedpoint"
	"ammCore/internal/model"
)

// MinimumLiquidity is the share amount locked forever by the first deposit into a pool.
const MinimumLiquidity uint64 = 100

// ClampToBalance caps a requested amount to what the caller holds.
func ClampToBalance(requested, available uint64) uint64 {
	if requested > available {
		return available
	}
	return requested
}

// PlanDeposit sizes a deposit. A pool counts as new only when both reserves are zero, so any
// existing reserve forces a ratio-locked deposit even while no shares are outstanding. The
// outstanding supply is therefore not consulted.
func PlanDeposit(reserveA, reserveB, _, requestedA, requestedB uint64) (model.DepositPlan, error) {
	plan := model.DepositPlan{PoolCreation: reserveA == 0 && reserveB == 0}

	if plan.PoolCreation {
		plan.AppliedA, plan.AppliedB = requestedA, requestedB
	} else {
		ratio, err := fixedpoint.FromUint64(reserveA).Div(fixedpoint.FromUint64(reserveB))
		if err != nil {
			return model.DepositPlan{}, err
		}

		if reserveA > reserveB {
			applied, err := fixedpoint.FromUint64(requestedB).Mul(ratio)
			if err != nil {
				return model.DepositPlan{}, err
			}
			plan.AppliedA, plan.AppliedB = applied.Floor(), requestedB
		} else {
			applied, err := fixedpoint.FromUint64(requestedA).Div(ratio)
			if err != nil {
				return model.DepositPlan{}, err
			}
			plan.AppliedA, plan.AppliedB = requestedA, applied.Floor()
		}
	}

	plan.Minted = fixedpoint.GeometricMean(plan.AppliedA, plan.AppliedB)

	if plan.PoolCreation {
		if plan.Minted < MinimumLiquidity {
			return model.DepositPlan{}, ammerrors.Newf(ammerrors.KindDepositTooSmall,
				"minted %d shares, minimum is %d", plan.Minted, MinimumLiquidity).
				WithDetails(map[string]any{"applied_a": plan.AppliedA, "applied_b": plan.AppliedB})
		}
		plan.Minted -= MinimumLiquidity
		plan.Locked = MinimumLiquidity
	}

	return plan, nil
}

// PlanWithdraw returns the pro-rata payout for burning burn shares. No fee is taken.
func PlanWithdraw(reserveA, reserveB, supply, burn uint64) (model.WithdrawPlan, error) {
	payoutA, err := fixedpoint.MulDiv(reserveA, burn, supply)
	if err != nil {
		return model.WithdrawPlan{}, err
	}
	payoutB, err := fixedpoint.MulDiv(reserveB, burn, supply)
	if err != nil {
		return model.WithdrawPlan{}, err
	}
	return model.WithdrawPlan{PayoutA: payoutA, PayoutB: payoutB}, nil
}
