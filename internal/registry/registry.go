// Package registry creates markets and pools and keeps them in a keyed store.
package registry

import (
	"sort"
	"sync"

	"github.com/gagliardetto/solana-go"

	ammerrors "ammCore/internal/errors"
	"ammCore/internal/model"
)

// MaxFeeBps is the exclusive upper bound of a market fee (100%).
const MaxFeeBps = 10000

// ValidateFee fails with InvalidFee unless feeBps < MaxFeeBps.
func ValidateFee(feeBps uint16) error {
	if feeBps >= MaxFeeBps {
		return ammerrors.Newf(ammerrors.KindInvalidFee, "fee %d bps must be below %d", feeBps, MaxFeeBps).
			WithDetails(map[string]any{"fee_bps": feeBps})
	}
	return nil
}

// CreateMarket builds a market. Any admin and id are accepted.
func CreateMarket(admin, id solana.PublicKey, feeBps uint16) (model.Market, error) {
	if err := ValidateFee(feeBps); err != nil {
		return model.Market{}, err
	}
	return model.Market{Admin: admin, ID: id, FeeBps: feeBps}, nil
}

// CreatePool builds an empty pool under market. The two assets must differ.
func CreatePool(market, assetA, assetB solana.PublicKey) (model.Pool, error) {
	if assetA.Equals(assetB) {
		return model.Pool{}, ammerrors.Newf(ammerrors.KindInvalidMint, "asset_a and asset_b are both %s", assetA).
			WithDetails(map[string]any{"asset": assetA.String()})
	}
	return model.Pool{Market: market, AssetA: assetA, AssetB: assetB}, nil
}

// Registry stores markets by id and pools by (market, asset_a, asset_b).
// Pool.Market holds the market id.
type Registry struct {
	mu      sync.RWMutex
	markets map[solana.PublicKey]model.Market
	pools   map[model.PoolKey]model.Pool
}

func New() *Registry {
	return &Registry{
		markets: make(map[solana.PublicKey]model.Market),
		pools:   make(map[model.PoolKey]model.Pool),
	}
}

// RegisterMarket validates and stores a new market.
func (r *Registry) RegisterMarket(admin, id solana.PublicKey, feeBps uint16) (model.Market, error) {
	market, err := CreateMarket(admin, id, feeBps)
	if err != nil {
		return model.Market{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.markets[id]; exists {
		return model.Market{}, ammerrors.Newf(ammerrors.KindAlreadyExists, "market %s already exists", id)
	}
	r.markets[id] = market
	return market, nil
}

// RegisterPool validates and stores a new pool under an existing market.
func (r *Registry) RegisterPool(marketID, assetA, assetB solana.PublicKey) (model.Pool, error) {
	pool, err := CreatePool(marketID, assetA, assetB)
	if err != nil {
		return model.Pool{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.markets[marketID]; !exists {
		return model.Pool{}, ammerrors.Newf(ammerrors.KindNotFound, "market %s not found", marketID)
	}
	key := pool.Key()
	if _, exists := r.pools[key]; exists {
		return model.Pool{}, ammerrors.Newf(ammerrors.KindAlreadyExists, "pool %s already exists", key)
	}
	r.pools[key] = pool
	return pool, nil
}

// Market returns a market by id.
func (r *Registry) Market(id solana.PublicKey) (model.Market, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	market, ok := r.markets[id]
	if !ok {
		return model.Market{}, ammerrors.Newf(ammerrors.KindNotFound, "market %s not found", id)
	}
	return market, nil
}

// Pool returns a pool by key.
func (r *Registry) Pool(key model.PoolKey) (model.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pool, ok := r.pools[key]
	if !ok {
		return model.Pool{}, ammerrors.Newf(ammerrors.KindNotFound, "pool %s not found", key)
	}
	return pool, nil
}

// Markets returns all markets ordered by id.
func (r *Registry) Markets() []model.Market {
	r.mu.RLock()
	out := make([]model.Market, 0, len(r.markets))
	for _, m := range r.markets {
		out = append(out, m)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// Pools returns all pools ordered by key.
func (r *Registry) Pools() []model.Pool {
	r.mu.RLock()
	out := make([]model.Pool, 0, len(r.pools))
	for _, p := range r.pools {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().String() < out[j].Key().String()
	})
	return out
}
