package ledger

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammCore/internal/address"
	ammerrors "ammCore/internal/errors"
	"ammCore/internal/fixedpoint"
	"ammCore/internal/model"
)

type mintInfo struct {
	authority solana.PublicKey
	decimals  uint8
	supply    uint64
}

// Memory is an in-process ledger. Changes to a pool go through Atomic, which serializes them per
// pool and commits all of an operation's effects or none of them.
type Memory struct {
	mu       sync.RWMutex
	balances map[Holding]uint64
	mints    map[solana.PublicKey]*mintInfo
	signers  map[solana.PublicKey]*Authority

	poolMu sync.Mutex
	pools  map[model.PoolKey]*sync.Mutex

	logger *zap.Logger
}

func NewMemory(logger *zap.Logger) *Memory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memory{
		balances: make(map[Holding]uint64),
		mints:    make(map[solana.PublicKey]*mintInfo),
		signers:  make(map[solana.PublicKey]*Authority),
		pools:    make(map[model.PoolKey]*sync.Mutex),
		logger:   logger,
	}
}

// IssueAuthority returns the pool's signing capability, creating it on first use.
func (m *Memory) IssueAuthority(pool model.Pool) (*Authority, error) {
	addrs, err := address.Pool(pool.Market, pool.AssetA, pool.AssetB)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if auth, ok := m.signers[addrs.Authority]; ok {
		return auth, nil
	}
	auth := &Authority{
		pool:    pool.Key(),
		address: addrs.Authority,
		bump:    addrs.AuthorityBump,
		issuer:  m,
	}
	m.signers[addrs.Authority] = auth
	m.logger.Debug("authority issued",
		zap.String("pool", pool.Key().String()),
		zap.String("authority", addrs.Authority.String()),
	)
	return auth, nil
}

// CreateMint registers a share mint controlled by authority.
func (m *Memory) CreateMint(mint, authority solana.PublicKey, decimals uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.mints[mint]; exists {
		return ammerrors.Newf(ammerrors.KindAlreadyExists, "mint %s already exists", mint)
	}
	m.mints[mint] = &mintInfo{authority: authority, decimals: decimals}
	return nil
}

// Decimals returns a registered mint's precision.
func (m *Memory) Decimals(mint solana.PublicKey) (uint8, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.mints[mint]
	if !ok {
		return 0, ammerrors.Newf(ammerrors.KindNotFound, "mint %s not found", mint)
	}
	return info.decimals, nil
}

// Fund credits an external asset to a holding. Share mints only grow through Mint.
func (m *Memory) Fund(h Holding, amount uint64) error {
	if err := checkHolding(h); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.mints[h.Mint]; ok {
		return ammerrors.Newf(ammerrors.KindUnauthorized, "cannot fund share mint %s", h.Mint)
	}
	next, err := fixedpoint.Add64(m.balances[h], amount)
	if err != nil {
		return err
	}
	m.balances[h] = next
	return nil
}

// Balance returns the committed balance of h. Unknown holdings hold zero; a holding without a
// mint is an error.
func (m *Memory) Balance(h Holding) (uint64, error) {
	if err := checkHolding(h); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[h], nil
}

// Supply returns the committed supply of a share mint.
func (m *Memory) Supply(mint solana.PublicKey) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.mints[mint]
	if !ok {
		return 0, ammerrors.Newf(ammerrors.KindNotFound, "mint %s not found", mint)
	}
	return info.supply, nil
}

// Atomic runs fn with exclusive access to the pool identified by key. Effects staged through tx
// are committed only when fn returns nil.
func (m *Memory) Atomic(ctx context.Context, key model.PoolKey, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock := m.poolLock(key)
	lock.Lock()
	defer lock.Unlock()

	tx := &Tx{
		m:        m,
		holdings: make(map[Holding]*delta),
		supplies: make(map[solana.PublicKey]*delta),
	}
	if err := fn(tx); err != nil {
		m.logger.Debug("atomic section discarded", zap.String("pool", key.String()), zap.Error(err))
		return err
	}
	return m.commit(tx)
}

func (m *Memory) poolLock(key model.PoolKey) *sync.Mutex {
	m.poolMu.Lock()
	defer m.poolMu.Unlock()

	lock, ok := m.pools[key]
	if !ok {
		lock = &sync.Mutex{}
		m.pools[key] = lock
	}
	return lock
}

// commit applies staged deltas. Holdings shared with other pools may have moved since they were
// read, so every result is checked again before anything is written.
func (m *Memory) commit(tx *Tx) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	balances := make(map[Holding]uint64, len(tx.holdings))
	for h, d := range tx.holdings {
		next, err := d.apply(m.balances[h])
		if err != nil {
			return ammerrors.Newf(ammerrors.KindInsufficientFunds, "holding %s changed during operation", h).WithCause(err)
		}
		balances[h] = next
	}

	supplies := make(map[solana.PublicKey]uint64, len(tx.supplies))
	for mint, d := range tx.supplies {
		info, ok := m.mints[mint]
		if !ok {
			return ammerrors.Newf(ammerrors.KindNotFound, "mint %s not found", mint)
		}
		next, err := d.apply(info.supply)
		if err != nil {
			return ammerrors.Newf(ammerrors.KindInsufficientFunds, "supply of %s changed during operation", mint).WithCause(err)
		}
		supplies[mint] = next
	}

	for h, v := range balances {
		m.balances[h] = v
	}
	for mint, v := range supplies {
		m.mints[mint].supply = v
	}
	return nil
}

func (m *Memory) authorize(owner solana.PublicKey, auth *Authority) error {
	if owner.Equals(LockedOwner) {
		return ammerrors.Newf(ammerrors.KindUnauthorized, "holdings of %s are locked", owner)
	}

	m.mu.RLock()
	issued, isPool := m.signers[owner]
	m.mu.RUnlock()

	if isPool && auth != issued {
		return ammerrors.Newf(ammerrors.KindUnauthorized, "transfer from %s requires its pool authority", owner)
	}
	return nil
}

type delta struct {
	credit uint64
	debit  uint64
}

func (d *delta) apply(base uint64) (uint64, error) {
	v, err := fixedpoint.Add64(base, d.credit)
	if err != nil {
		return 0, err
	}
	return fixedpoint.Sub64(v, d.debit)
}

// Tx stages the effects of one atomic section. Reads see committed state plus staged effects.
type Tx struct {
	m        *Memory
	holdings map[Holding]*delta
	supplies map[solana.PublicKey]*delta
}

// Balance returns the balance of h as seen by this section.
func (tx *Tx) Balance(h Holding) (uint64, error) {
	base, err := tx.m.Balance(h)
	if err != nil {
		return 0, err
	}
	d, ok := tx.holdings[h]
	if !ok {
		return base, nil
	}
	return d.apply(base)
}

// Transfer moves amount from one holding to another of the same mint.
func (tx *Tx) Transfer(from, to Holding, amount uint64, auth *Authority) error {
	if !from.Mint.Equals(to.Mint) {
		return ammerrors.Newf(ammerrors.KindAccountMismatch, "transfer between mints %s and %s", from.Mint, to.Mint)
	}
	if err := tx.m.authorize(from.Owner, auth); err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	if err := tx.debit(from, amount); err != nil {
		return err
	}
	return tx.credit(to, amount)
}

// Mint creates amount shares of mint for to. auth must be the mint's authority.
func (tx *Tx) Mint(mint solana.PublicKey, to Holding, amount uint64, auth *Authority) error {
	tx.m.mu.RLock()
	info, ok := tx.m.mints[mint]
	tx.m.mu.RUnlock()
	if !ok {
		return ammerrors.Newf(ammerrors.KindNotFound, "mint %s not found", mint)
	}
	if !to.Mint.Equals(mint) {
		return ammerrors.Newf(ammerrors.KindAccountMismatch, "holding %s is not of mint %s", to, mint)
	}
	if auth == nil || auth.issuer != tx.m || !auth.address.Equals(info.authority) {
		return ammerrors.Newf(ammerrors.KindUnauthorized, "mint %s requires its authority", mint)
	}
	if amount == 0 {
		return nil
	}

	supply, err := tx.Supply(mint)
	if err != nil {
		return err
	}
	if _, err := fixedpoint.Add64(supply, amount); err != nil {
		return err
	}
	tx.supply(mint).credit += amount
	return tx.credit(to, amount)
}

// Burn destroys amount shares held by from.
func (tx *Tx) Burn(from Holding, amount uint64) error {
	if err := tx.m.authorize(from.Owner, nil); err != nil {
		return err
	}
	supply, err := tx.Supply(from.Mint)
	if err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	if supply < amount {
		return ammerrors.Newf(ammerrors.KindInsufficientFunds, "burn %d exceeds supply %d", amount, supply)
	}
	if err := tx.debit(from, amount); err != nil {
		return err
	}
	tx.supply(from.Mint).debit += amount
	return nil
}

// Supply returns the supply of mint as seen by this section.
func (tx *Tx) Supply(mint solana.PublicKey) (uint64, error) {
	base, err := tx.m.Supply(mint)
	if err != nil {
		return 0, err
	}
	d, ok := tx.supplies[mint]
	if !ok {
		return base, nil
	}
	return d.apply(base)
}

func checkHolding(h Holding) error {
	if h.Mint.IsZero() {
		return ammerrors.Newf(ammerrors.KindInvalidMint, "holding %s has no mint", h)
	}
	return nil
}

func (tx *Tx) debit(h Holding, amount uint64) error {
	bal, err := tx.Balance(h)
	if err != nil {
		return err
	}
	if bal < amount {
		return ammerrors.Newf(ammerrors.KindInsufficientFunds, "holding %s has %d, needs %d", h, bal, amount).
			WithDetails(map[string]any{"balance": bal, "amount": amount})
	}
	tx.holding(h).debit += amount
	return nil
}

func (tx *Tx) credit(h Holding, amount uint64) error {
	bal, err := tx.Balance(h)
	if err != nil {
		return err
	}
	if _, err := fixedpoint.Add64(bal, amount); err != nil {
		return err
	}
	tx.holding(h).credit += amount
	return nil
}

func (tx *Tx) holding(h Holding) *delta {
	d, ok := tx.holdings[h]
	if !ok {
		d = &delta{}
		tx.holdings[h] = d
	}
	return d
}

func (tx *Tx) supply(mint solana.PublicKey) *delta {
	d, ok := tx.supplies[mint]
	if !ok {
		d = &delta{}
		tx.supplies[mint] = d
	}
	return d
}
