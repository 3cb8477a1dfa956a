// Package swap prices constant-product swaps and settles them through a ledger.
package swap

import (
	"context"

	"github.com/holiman/uint256"

	ammerrors "ammCore/internal/errors"
	"ammCore/internal/fixedpoint"
	"ammCore/internal/ledger"
	"ammCore/internal/model"
)

// BpsDenominator is the basis-point scale of a market fee.
const BpsDenominator = 10000

// ClampInput caps the requested input to the trader's balance. It runs before the fee.
func ClampInput(requested, available uint64) uint64 {
	if requested > available {
		return available
	}
	return requested
}

// QuoteSwap takes the fee from the input and prices the remainder on the curve:
// output = taxed * reserveOut / (reserveIn + taxed). Both reserves must be funded; a swap into
// an empty side would leave the pool with one zero reserve and no deposit could price against it.
func QuoteSwap(reserveIn, reserveOut uint64, feeBps uint16, input uint64) (model.SwapQuote, error) {
	if reserveIn == 0 || reserveOut == 0 {
		return model.SwapQuote{}, ammerrors.Newf(ammerrors.KindEmptyPool, "reserves %d/%d", reserveIn, reserveOut).
			WithDetails(map[string]any{"reserve_in": reserveIn, "reserve_out": reserveOut})
	}
	fee, err := fixedpoint.MulDiv(input, uint64(feeBps), BpsDenominator)
	if err != nil {
		return model.SwapQuote{}, err
	}
	taxed, err := fixedpoint.Sub64(input, fee)
	if err != nil {
		return model.SwapQuote{}, err
	}
	denom, err := fixedpoint.Add64(reserveIn, taxed)
	if err != nil {
		return model.SwapQuote{}, err
	}
	output, err := fixedpoint.MulDiv(taxed, reserveOut, denom)
	if err != nil {
		return model.SwapQuote{}, err
	}
	return model.SwapQuote{Input: input, Fee: fee, TaxedInput: taxed, Output: output}, nil
}

// CheckOutput enforces the trader's minimum acceptable output.
func CheckOutput(quote model.SwapQuote, minOutput uint64) error {
	if quote.Output < minOutput {
		return ammerrors.Newf(ammerrors.KindOutputTooSmall, "output %d is below minimum %d", quote.Output, minOutput).
			WithDetails(map[string]any{"output": quote.Output, "min_output": minOutput})
	}
	return nil
}

// InvariantOf returns reserveIn * reserveOut without truncation.
func InvariantOf(reserveIn, reserveOut uint64) *uint256.Int {
	return fixedpoint.Product(reserveIn, reserveOut)
}

// VerifyInvariant fails when the post-trade product is below before.
func VerifyInvariant(before *uint256.Int, reserveInAfter, reserveOutAfter uint64) error {
	after := InvariantOf(reserveInAfter, reserveOutAfter)
	if before.Gt(after) {
		return ammerrors.New(ammerrors.KindInvariantViolated).
			WithDetails(map[string]any{"before": before.Dec(), "after": after.Dec()})
	}
	return nil
}

// Ledger is the slice of the ledger a swap needs.
type Ledger interface {
	ledger.BalanceReader
	ledger.Transferrer
}

// Request describes one swap against a pool. ReserveIn and ReserveOut are the pool's holdings;
// Authority must authorize transfers out of ReserveOut.
type Request struct {
	TraderIn   ledger.Holding
	TraderOut  ledger.Holding
	ReserveIn  ledger.Holding
	ReserveOut ledger.Holding
	Authority  *ledger.Authority
	FeeBps     uint16
	Amount     uint64
	MinOutput  uint64
}

// Result is a settled swap.
type Result struct {
	Quote  model.SwapQuote
	Before [2]uint64 // reserve in, reserve out
	After  [2]uint64
}

// Execute quotes and settles a swap. It must run inside the ledger's atomic section for the
// pool: any error leaves the caller to discard every transfer made here.
func Execute(ctx context.Context, l Ledger, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	reserveIn, err := l.Balance(req.ReserveIn)
	if err != nil {
		return Result{}, err
	}
	reserveOut, err := l.Balance(req.ReserveOut)
	if err != nil {
		return Result{}, err
	}
	available, err := l.Balance(req.TraderIn)
	if err != nil {
		return Result{}, err
	}

	quote, err := QuoteSwap(reserveIn, reserveOut, req.FeeBps, ClampInput(req.Amount, available))
	if err != nil {
		return Result{}, err
	}
	res := Result{Quote: quote, Before: [2]uint64{reserveIn, reserveOut}}

	if err := CheckOutput(quote, req.MinOutput); err != nil {
		return res, err
	}

	before := InvariantOf(reserveIn, reserveOut)

	// The whole input, fee included, stays in the pool.
	if err := l.Transfer(req.TraderIn, req.ReserveIn, quote.Input, nil); err != nil {
		return res, err
	}
	if err := l.Transfer(req.ReserveOut, req.TraderOut, quote.Output, req.Authority); err != nil {
		return res, err
	}

	if res.After[0], err = l.Balance(req.ReserveIn); err != nil {
		return res, err
	}
	if res.After[1], err = l.Balance(req.ReserveOut); err != nil {
		return res, err
	}

	return res, VerifyInvariant(before, res.After[0], res.After[1])
}
