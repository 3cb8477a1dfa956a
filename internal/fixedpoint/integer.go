package fixedpoint

import (
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"

	ammerrors "ammCore/internal/errors"
)

// MulDiv returns floor(a*b/c) using a 256-bit intermediate.
// It equals FromUint64(a).Mul(b).Div(c).Floor() whenever that chain is representable, and only
// fails when the quotient itself does not fit in 64 bits.
func MulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, ammerrors.New(ammerrors.KindDivisionByZero).
			WithDetails(map[string]any{"op": "muldiv", "a": a, "b": b})
	}
	out := Product(a, b)
	out.Div(out, uint256.NewInt(c))
	if !out.IsUint64() {
		return 0, ammerrors.New(ammerrors.KindArithmeticOverflow).
			WithDetails(map[string]any{"op": "muldiv", "a": a, "b": b, "c": c})
	}
	return out.Uint64(), nil
}

// Product returns the exact product a*b.
func Product(a, b uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
}

// GeometricMean returns floor(sqrt(a*b)). The result always fits in 64 bits.
func GeometricMean(a, b uint64) uint64 {
	p := Product(a, b)
	return p.Sqrt(p).Uint64()
}

// Add64 returns a+b or ArithmeticOverflow.
func Add64(a, b uint64) (uint64, error) {
	sum, overflow := math.SafeAdd(a, b)
	if overflow {
		return 0, ammerrors.New(ammerrors.KindArithmeticOverflow).
			WithDetails(map[string]any{"op": "add", "a": a, "b": b})
	}
	return sum, nil
}

// Sub64 returns a-b or ArithmeticOverflow when b > a.
func Sub64(a, b uint64) (uint64, error) {
	diff, overflow := math.SafeSub(a, b)
	if overflow {
		return 0, ammerrors.New(ammerrors.KindArithmeticOverflow).
			WithDetails(map[string]any{"op": "sub", "a": a, "b": b})
	}
	return diff, nil
}

// Mul64 returns a*b or ArithmeticOverflow.
func Mul64(a, b uint64) (uint64, error) {
	prod, overflow := math.SafeMul(a, b)
	if overflow {
		return 0, ammerrors.New(ammerrors.KindArithmeticOverflow).
			WithDetails(map[string]any{"op": "mul", "a": a, "b": b})
	}
	return prod, nil
}
