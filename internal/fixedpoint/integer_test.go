package fixedpoint

import (
	"errors"
	"math"
	"testing"

	ammerrors "ammCore/internal/errors"
)

func TestMulDiv(t *testing.T) {
	cases := []struct {
		name    string
		a, b, c uint64
		want    uint64
		wantErr *ammerrors.Error
	}{
		{name: "floor", a: 100, b: 1000, c: 1100, want: 90},
		{name: "exact", a: 200, b: 50, c: 100, want: 100},
		{name: "wide intermediate", a: math.MaxUint64, b: math.MaxUint64, c: math.MaxUint64, want: math.MaxUint64},
		{name: "quotient overflow", a: math.MaxUint64, b: 2, c: 1, wantErr: ammerrors.ErrArithmeticOverflow},
		{name: "zero divisor", a: 1, b: 1, c: 0, wantErr: ammerrors.ErrDivisionByZero},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MulDiv(tc.a, tc.b, tc.c)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr.Kind, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %d want %d", got, tc.want)
			}
		})
	}
}

func TestMulDivMatchesFixedChain(t *testing.T) {
	a, b, c := uint64(95_000_000), uint64(2_000_000_000), uint64(1_095_000_000)

	want, err := MulDiv(a, b, c)
	if err != nil {
		t.Fatalf("muldiv: %v", err)
	}

	num, err := FromUint64(a).Mul(FromUint64(b))
	if err != nil {
		t.Fatalf("mul: %v", err)
	}
	q, err := num.Div(FromUint64(c))
	if err != nil {
		t.Fatalf("div: %v", err)
	}
	if q.Floor() != want {
		t.Fatalf("fixed chain %d != muldiv %d", q.Floor(), want)
	}
}

func TestGeometricMean(t *testing.T) {
	if got := GeometricMean(1000, 2000); got != 1414 {
		t.Fatalf("got %d", got)
	}
	if got := GeometricMean(5, 5); got != 5 {
		t.Fatalf("got %d", got)
	}
	if got := GeometricMean(math.MaxUint64, math.MaxUint64); got != math.MaxUint64 {
		t.Fatalf("got %d", got)
	}
}

func TestChecked64(t *testing.T) {
	if _, err := Add64(math.MaxUint64, 1); !errors.Is(err, ammerrors.ErrArithmeticOverflow) {
		t.Fatalf("expected add overflow, got %v", err)
	}
	if _, err := Sub64(1, 2); !errors.Is(err, ammerrors.ErrArithmeticOverflow) {
		t.Fatalf("expected sub underflow, got %v", err)
	}
	if _, err := Mul64(math.MaxUint32+1, math.MaxUint32+1); !errors.Is(err, ammerrors.ErrArithmeticOverflow) {
		t.Fatalf("expected mul overflow, got %v", err)
	}
	if v, err := Mul64(7, 6); err != nil || v != 42 {
		t.Fatalf("mul: %d %v", v, err)
	}
}
