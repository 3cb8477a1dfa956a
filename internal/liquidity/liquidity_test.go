package liquidity

import (
	"errors"
	"reflect"
	"testing"

	ammerrors "ammCore/internal/errors"
	"ammCore/internal/model"
)

func TestPlanDeposit(t *testing.T) {
	cases := []struct {
		name                   string
		reserveA, reserveB     uint64
		supply                 uint64
		requestedA, requestedB uint64
		want                   model.DepositPlan
	}{
		{
			name:       "first deposit keeps caller price",
			requestedA: 1000, requestedB: 2000,
			want: model.DepositPlan{AppliedA: 1000, AppliedB: 2000, Minted: 1314, Locked: 100, PoolCreation: true},
		},
		{
			name:       "first deposit at the floor mints nothing to the caller",
			requestedA: 100, requestedB: 100,
			want: model.DepositPlan{AppliedA: 100, AppliedB: 100, Minted: 0, Locked: 100, PoolCreation: true},
		},
		{
			name:     "a-heavy pool recomputes the a leg",
			reserveA: 200, reserveB: 100, supply: 41,
			requestedA: 50, requestedB: 50,
			want: model.DepositPlan{AppliedA: 100, AppliedB: 50, Minted: 70},
		},
		{
			name:     "b-heavy pool recomputes the b leg",
			reserveA: 1000, reserveB: 2000, supply: 1414,
			requestedA: 100, requestedB: 500,
			want: model.DepositPlan{AppliedA: 100, AppliedB: 200, Minted: 141},
		},
		{
			name:     "balanced pool recomputes the b leg",
			reserveA: 500, reserveB: 500, supply: 500,
			requestedA: 40, requestedB: 90,
			want: model.DepositPlan{AppliedA: 40, AppliedB: 40, Minted: 40},
		},
		{
			name:     "inexact ratio floors the recomputed leg",
			reserveA: 100, reserveB: 300, supply: 73,
			requestedA: 10, requestedB: 1000,
			want: model.DepositPlan{AppliedA: 10, AppliedB: 30, Minted: 17},
		},
		{
			name:     "reserve without shares is not a new pool",
			reserveA: 10, reserveB: 10, supply: 0,
			requestedA: 5, requestedB: 5,
			want: model.DepositPlan{AppliedA: 5, AppliedB: 5, Minted: 5},
		},
	}

	for _, tc := range cases {
		got, err := PlanDeposit(tc.reserveA, tc.reserveB, tc.supply, tc.requestedA, tc.requestedB)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: got %+v want %+v", tc.name, got, tc.want)
		}
	}
}

func TestPlanDepositAsymmetricBranch(t *testing.T) {
	// With reserve_a > reserve_b the a leg is always derived from the b leg, even when that
	// asks for more a than was requested.
	got, err := PlanDeposit(200, 100, 41, 50, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AppliedA != 1000 || got.AppliedB != 500 {
		t.Fatalf("unexpected plan: %+v", got)
	}
}

func TestPlanDepositFailures(t *testing.T) {
	cases := []struct {
		name                   string
		reserveA, reserveB     uint64
		requestedA, requestedB uint64
		want                   error
	}{
		{"minimum liquidity lock", 0, 0, 5, 5, ammerrors.ErrDepositTooSmall},
		{"one-sided first deposit", 0, 0, 1_000_000, 0, ammerrors.ErrDepositTooSmall},
		{"zero reserve b", 100, 0, 10, 10, ammerrors.ErrDivisionByZero},
		{"zero reserve a", 0, 100, 10, 10, ammerrors.ErrDivisionByZero},
		{"ratio overflow", 1 << 63, 1, 10, 1 << 62, ammerrors.ErrArithmeticOverflow},
	}

	for _, tc := range cases {
		_, err := PlanDeposit(tc.reserveA, tc.reserveB, 0, tc.requestedA, tc.requestedB)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestPlanWithdraw(t *testing.T) {
	got, err := PlanWithdraw(1000, 2000, 1414, 707)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != (model.WithdrawPlan{PayoutA: 500, PayoutB: 1000}) {
		t.Fatalf("unexpected payout: %+v", got)
	}

	got, err = PlanWithdraw(1000, 2000, 1414, 0)
	if err != nil || got != (model.WithdrawPlan{}) {
		t.Fatalf("zero burn: %+v %v", got, err)
	}

	// Amounts whose product leaves 64 bits still divide exactly.
	got, err = PlanWithdraw(1<<62, 1<<62, 1<<40, 1<<39)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.PayoutA != 1<<61 || got.PayoutB != 1<<61 {
		t.Fatalf("unexpected payout: %+v", got)
	}

	if _, err := PlanWithdraw(1000, 2000, 0, 1); !errors.Is(err, ammerrors.ErrDivisionByZero) {
		t.Fatalf("expected DivisionByZero, got %v", err)
	}
}

func TestDepositWithdrawRoundTrip(t *testing.T) {
	pairs := [][2]uint64{
		{1000, 2000},
		{100, 100},
		{12345, 678},
		{1_000_000_000, 2_000_000_000},
		{1 << 40, 3},
	}

	for _, p := range pairs {
		plan, err := PlanDeposit(0, 0, 0, p[0], p[1])
		if err != nil {
			t.Fatalf("deposit %v: %v", p, err)
		}
		supply := plan.Minted + plan.Locked

		out, err := PlanWithdraw(plan.AppliedA, plan.AppliedB, supply, plan.Minted)
		if err != nil {
			t.Fatalf("withdraw %v: %v", p, err)
		}
		if out.PayoutA >= p[0] || out.PayoutB >= p[1] {
			t.Fatalf("round trip %v returned %+v", p, out)
		}

		// Burning the locked shares as well would return everything.
		all, err := PlanWithdraw(plan.AppliedA, plan.AppliedB, supply, supply)
		if err != nil {
			t.Fatalf("withdraw all %v: %v", p, err)
		}
		if all.PayoutA != p[0] || all.PayoutB != p[1] {
			t.Fatalf("full burn %v returned %+v", p, all)
		}
	}
}

func TestClampToBalance(t *testing.T) {
	if got := ClampToBalance(50, 100); got != 50 {
		t.Fatalf("got %d", got)
	}
	if got := ClampToBalance(150, 100); got != 100 {
		t.Fatalf("got %d", got)
	}
	if got := ClampToBalance(1, 0); got != 0 {
		t.Fatalf("got %d", got)
	}
}
