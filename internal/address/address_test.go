package address

import (
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestPoolAddressesDeterministic(t *testing.T) {
	market, mintA, mintB := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()

	first, err := Pool(market, mintA, mintB)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	second, err := Pool(market, mintA, mintB)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if first != second {
		t.Fatalf("derivation not deterministic: %+v != %+v", first, second)
	}

	seen := map[solana.PublicKey]string{}
	for name, pk := range map[string]solana.PublicKey{
		"market":    first.Market,
		"pool":      first.Pool,
		"authority": first.Authority,
		"liquidity": first.Liquidity,
	} {
		if other, dup := seen[pk]; dup {
			t.Fatalf("%s and %s share address %s", name, other, pk)
		}
		seen[pk] = name
	}

	marketAddr, bump, err := Market(market)
	if err != nil || marketAddr != first.Market || bump != first.MarketBump {
		t.Fatalf("market mismatch: %s %d %v", marketAddr, bump, err)
	}

	reversed, err := Pool(market, mintB, mintA)
	if err != nil {
		t.Fatalf("derive reversed: %v", err)
	}
	if reversed.Pool == first.Pool {
		t.Fatalf("reversed pair derived the same pool")
	}
}

func TestResolve(t *testing.T) {
	key := solana.NewWallet().PublicKey()
	got, err := Resolve(key.String())
	if err != nil || got != key {
		t.Fatalf("base58 passthrough: %s %v", got, err)
	}

	usdc, err := Resolve("usdc")
	if err != nil {
		t.Fatalf("resolve label: %v", err)
	}
	again, _ := Resolve("usdc")
	if usdc != again {
		t.Fatalf("label resolution not stable")
	}
	sol, _ := Resolve("sol")
	if sol == usdc {
		t.Fatalf("distinct labels resolved to the same key")
	}

	if _, err := Resolve(""); err == nil {
		t.Fatalf("expected error for empty reference")
	}
	if _, err := Resolve(strings.Repeat("x", 40)); err == nil {
		t.Fatalf("expected error for overlong label")
	}
}

func TestHolding(t *testing.T) {
	owner, mint := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	a, err := Holding(owner, mint)
	if err != nil {
		t.Fatalf("derive holding: %v", err)
	}
	b, _ := Holding(owner, mint)
	if a != b || a == owner {
		t.Fatalf("unexpected holding address %s", a)
	}
}
