package registry

import (
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	ammerrors "ammCore/internal/errors"
)

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func TestCreateMarketFeeBound(t *testing.T) {
	admin, id := newKey(), newKey()

	cases := []struct {
		fee     uint16
		wantErr bool
	}{
		{0, false},
		{500, false},
		{9999, false},
		{10000, true},
		{65535, true},
	}

	for _, tc := range cases {
		market, err := CreateMarket(admin, id, tc.fee)
		if tc.wantErr {
			if !errors.Is(err, ammerrors.ErrInvalidFee) {
				t.Fatalf("fee %d: expected InvalidFee, got %v", tc.fee, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("fee %d: unexpected error: %v", tc.fee, err)
		}
		if market.FeeBps != tc.fee || !market.Admin.Equals(admin) || !market.ID.Equals(id) {
			t.Fatalf("market mismatch: %+v", market)
		}
	}
}

func TestCreatePoolRejectsSameAsset(t *testing.T) {
	market, mint := newKey(), newKey()

	if _, err := CreatePool(market, mint, mint); !errors.Is(err, ammerrors.ErrInvalidMint) {
		t.Fatalf("expected InvalidMint, got %v", err)
	}

	other := newKey()
	pool, err := CreatePool(market, mint, other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pool.Market.Equals(market) || !pool.AssetA.Equals(mint) || !pool.AssetB.Equals(other) {
		t.Fatalf("pool mismatch: %+v", pool)
	}
}

func TestRegistryKeyedStore(t *testing.T) {
	reg := New()
	admin, id := newKey(), newKey()
	mintA, mintB := newKey(), newKey()

	if _, err := reg.RegisterPool(id, mintA, mintB); !errors.Is(err, ammerrors.ErrNotFound) {
		t.Fatalf("expected NotFound for unknown market, got %v", err)
	}

	if _, err := reg.RegisterMarket(admin, id, 30); err != nil {
		t.Fatalf("register market: %v", err)
	}
	if _, err := reg.RegisterMarket(admin, id, 30); !errors.Is(err, ammerrors.ErrAlreadyExists) {
		t.Fatalf("expected AlreadyExists, got %v", err)
	}
	if _, err := reg.RegisterMarket(admin, newKey(), 10000); !errors.Is(err, ammerrors.ErrInvalidFee) {
		t.Fatalf("expected InvalidFee, got %v", err)
	}

	pool, err := reg.RegisterPool(id, mintA, mintB)
	if err != nil {
		t.Fatalf("register pool: %v", err)
	}
	if _, err := reg.RegisterPool(id, mintA, mintB); !errors.Is(err, ammerrors.ErrAlreadyExists) {
		t.Fatalf("expected AlreadyExists, got %v", err)
	}

	// The reversed pair is a distinct key.
	if _, err := reg.RegisterPool(id, mintB, mintA); err != nil {
		t.Fatalf("register reversed pool: %v", err)
	}

	got, err := reg.Pool(pool.Key())
	if err != nil {
		t.Fatalf("lookup pool: %v", err)
	}
	if got != pool {
		t.Fatalf("pool mismatch: %+v != %+v", got, pool)
	}

	market, err := reg.Market(id)
	if err != nil || market.FeeBps != 30 {
		t.Fatalf("lookup market: %+v %v", market, err)
	}

	if len(reg.Markets()) != 1 || len(reg.Pools()) != 2 {
		t.Fatalf("unexpected counts: %d markets, %d pools", len(reg.Markets()), len(reg.Pools()))
	}
}
