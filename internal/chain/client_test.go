package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestMintDecimalsIsCached(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Method != "getTokenSupply" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]any{
				"context": map[string]any{"slot": 1},
				"value":   map[string]any{"amount": "1000", "decimals": 9, "uiAmountString": "0.000001"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	defer client.Close()
	mint := solana.NewWallet().PublicKey()

	for i := 0; i < 2; i++ {
		decimals, err := client.MintDecimals(context.Background(), mint)
		if err != nil {
			t.Fatalf("mint decimals: %v", err)
		}
		if decimals != 9 {
			t.Fatalf("decimals = %d", decimals)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one rpc call, got %d", calls.Load())
	}
}

func TestMintDecimalsRPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":0,"error":{"code":-32602,"message":"Invalid param: not a Token mint"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	defer client.Close()
	if _, err := client.MintDecimals(context.Background(), solana.NewWallet().PublicKey()); err == nil {
		t.Fatalf("expected rpc error")
	}
}
