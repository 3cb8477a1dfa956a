package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Client wraps the Solana RPC client and caches immutable mint metadata.
type Client struct {
	rpc *rpc.Client

	mu       sync.RWMutex
	decimals map[solana.PublicKey]uint8
}

// NewClient creates a client for the RPC endpoint.
func NewClient(endpoint string) *Client {
	return &Client{
		rpc:      rpc.New(endpoint),
		decimals: make(map[solana.PublicKey]uint8),
	}
}

// Close closes the underlying RPC client.
func (c *Client) Close() error {
	if c.rpc == nil {
		return nil
	}
	return c.rpc.Close()
}

// MintDecimals returns the decimals configured on a token mint.
func (c *Client) MintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	c.mu.RLock()
	decimals, ok := c.decimals[mint]
	c.mu.RUnlock()
	if ok {
		return decimals, nil
	}

	out, err := c.rpc.GetTokenSupply(ctx, mint, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("get token supply %s: %w", mint, err)
	}
	if out == nil || out.Value == nil {
		return 0, fmt.Errorf("get token supply %s: empty result", mint)
	}

	c.mu.Lock()
	c.decimals[mint] = out.Value.Decimals
	c.mu.Unlock()
	return out.Value.Decimals, nil
}
