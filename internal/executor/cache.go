package executor

import (
	"sync"

	"github.com/gagliardetto/solana-go"

	"ammCore/internal/address"
	"ammCore/internal/ledger"
	"ammCore/internal/model"
)

// poolAccounts are the derived accounts and signing capability of one pool.
type poolAccounts struct {
	addrs address.PoolAddresses
	auth  *ledger.Authority
}

// reserves returns the pool's holdings of asset A and asset B.
func (a poolAccounts) reserves(pool model.Pool) (ledger.Holding, ledger.Holding) {
	return ledger.Holding{Owner: a.auth.Address(), Mint: pool.AssetA},
		ledger.Holding{Owner: a.auth.Address(), Mint: pool.AssetB}
}

// shares returns owner's holding of the pool's liquidity mint.
func (a poolAccounts) shares(owner solana.PublicKey) ledger.Holding {
	return ledger.Holding{Owner: owner, Mint: a.addrs.Liquidity}
}

// accountCache caches pool accounts by pool key. Derivation walks bump seeds, so it is done once.
type accountCache struct {
	mu   sync.RWMutex
	data map[model.PoolKey]poolAccounts
}

func newAccountCache() *accountCache {
	return &accountCache{data: make(map[model.PoolKey]poolAccounts)}
}

func (c *accountCache) Get(key model.PoolKey) (poolAccounts, bool) {
	c.mu.RLock()
	accts, ok := c.data[key]
	c.mu.RUnlock()
	return accts, ok
}

func (c *accountCache) Set(key model.PoolKey, accts poolAccounts) {
	c.mu.Lock()
	c.data[key] = accts
	c.mu.Unlock()
}

// loadPoolAccounts derives the pool's accounts and obtains its authority from the ledger.
func loadPoolAccounts(led *ledger.Memory, pool model.Pool) (poolAccounts, error) {
	addrs, err := address.Pool(pool.Market, pool.AssetA, pool.AssetB)
	if err != nil {
		return poolAccounts{}, err
	}
	auth, err := led.IssueAuthority(pool)
	if err != nil {
		return poolAccounts{}, err
	}
	return poolAccounts{addrs: addrs, auth: auth}, nil
}
