// Package fixedpoint implements the checked arithmetic shared by the AMM core.
//
// Fixed is an unsigned 64.64 fixed-point number: 64 integer bits and 64 fractional bits, stored
// in a 256-bit word so intermediate products never wrap. Every operation that would leave the
// 128-bit range fails with ArithmeticOverflow instead of truncating.
package fixedpoint

import (
	"math/big"

	"github.com/holiman/uint256"

	ammerrors "ammCore/internal/errors"
)

// FracBits is the number of fractional bits in a Fixed.
const FracBits = 64

// Fixed is a non-negative 64.64 fixed-point value. The zero value is 0.
type Fixed struct {
	raw uint256.Int
}

// FromUint64 converts an integer amount to Fixed. It never fails.
func FromUint64(v uint64) Fixed {
	var f Fixed
	f.raw.SetUint64(v)
	f.raw.Lsh(&f.raw, FracBits)
	return f
}

// FromRaw builds a Fixed from its raw 128-bit representation (value * 2^64).
func FromRaw(hi, lo uint64) Fixed {
	var f Fixed
	f.raw[0] = lo
	f.raw[1] = hi
	return f
}

// Mul returns a*b.
func (a Fixed) Mul(b Fixed) (Fixed, error) {
	var out Fixed
	out.raw.Mul(&a.raw, &b.raw)
	out.raw.Rsh(&out.raw, FracBits)
	if !fits(&out.raw) {
		return Fixed{}, overflow("mul", a, b)
	}
	return out, nil
}

// Div returns a/b truncated to 64 fractional bits.
func (a Fixed) Div(b Fixed) (Fixed, error) {
	if b.raw.IsZero() {
		return Fixed{}, ammerrors.New(ammerrors.KindDivisionByZero).
			WithDetails(map[string]any{"op": "div", "dividend": a.String()})
	}
	var out Fixed
	out.raw.Lsh(&a.raw, FracBits)
	out.raw.Div(&out.raw, &b.raw)
	if !fits(&out.raw) {
		return Fixed{}, overflow("div", a, b)
	}
	return out, nil
}

// Add returns a+b.
func (a Fixed) Add(b Fixed) (Fixed, error) {
	var out Fixed
	out.raw.Add(&a.raw, &b.raw)
	if !fits(&out.raw) {
		return Fixed{}, overflow("add", a, b)
	}
	return out, nil
}

// Sqrt returns the square root of a, truncated toward zero at the last fractional bit.
func (a Fixed) Sqrt() Fixed {
	var out Fixed
	// raw = v * 2^64, so sqrt(raw << 64) = sqrt(v) * 2^64.
	out.raw.Lsh(&a.raw, FracBits)
	out.raw.Sqrt(&out.raw)
	return out
}

// Floor returns the integer part of a.
func (a Fixed) Floor() uint64 {
	var out uint256.Int
	out.Rsh(&a.raw, FracBits)
	return out.Uint64()
}

// IsZero reports whether a == 0.
func (a Fixed) IsZero() bool {
	return a.raw.IsZero()
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a Fixed) Cmp(b Fixed) int {
	return a.raw.Cmp(&b.raw)
}

// Rat returns the exact rational value of a.
func (a Fixed) Rat() *big.Rat {
	denom := new(big.Int).Lsh(big.NewInt(1), FracBits)
	return new(big.Rat).SetFrac(a.raw.ToBig(), denom)
}

// String renders a with 20 fractional digits.
func (a Fixed) String() string {
	return a.Rat().FloatString(20)
}

func fits(v *uint256.Int) bool {
	return v.BitLen() <= 2*FracBits
}

func overflow(op string, a, b Fixed) error {
	return ammerrors.New(ammerrors.KindArithmeticOverflow).
		WithDetails(map[string]any{"op": op, "a": a.String(), "b": b.String()})
}
