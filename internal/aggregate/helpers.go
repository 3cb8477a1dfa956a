package aggregate

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const priceScale = 18

func formatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).StringFixed(int32(decimals))
}

func formatUint(value uint64, decimals uint8) string {
	return formatTokenAmount(new(big.Int).SetUint64(value), decimals)
}

// computePrice returns the price of asset A in units of asset B, scaled by each asset's decimals.
// It is nil while the pool holds no asset A.
func computePrice(reserveA, reserveB uint64, decimalsA, decimalsB uint8) *string {
	if reserveA == 0 {
		return nil
	}
	a := decimal.NewFromBigInt(new(big.Int).SetUint64(reserveA), -int32(decimalsA))
	b := decimal.NewFromBigInt(new(big.Int).SetUint64(reserveB), -int32(decimalsB))
	val := b.DivRound(a, priceScale).StringFixed(priceScale)
	return &val
}
