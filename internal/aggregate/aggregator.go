package aggregate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"ammCore/internal/address"
	"ammCore/internal/model"
	"ammCore/internal/storage"
)

// Config controls aggregation behavior.
type Config struct {
	BatchSize       int
	Recompute       bool
	Decimals        map[string]uint8
	DefaultDecimals uint8
	// Mints is consulted for assets missing from Decimals. *chain.Client satisfies it.
	Mints      MintSource
	StateStore StateStore
}

// MintSource looks up a token mint's decimals.
type MintSource interface {
	MintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error)
}

// Sink receives aggregated rows. *postgres.Store satisfies it.
type Sink interface {
	UpsertMarkets(ctx context.Context, markets []model.Market) error
	UpsertPools(ctx context.Context, pools []model.PoolRecord) error
	UpsertPoolStats(ctx context.Context, stats []model.PoolStats) error
}

// Aggregator folds a journal into market, pool and per-run pool statistics rows.
type Aggregator struct {
	cfg          Config
	sink         Sink
	logger       *zap.Logger
	now          func() time.Time
	accumulators map[statsKey]*Accumulator
	touched      map[string]bool
	poolSeen     map[model.PoolKey]uint64
}

type statsKey struct {
	runID string
	pool  string
}

func NewAggregator(cfg Config, sink Sink, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	decimals := make(map[string]uint8, len(cfg.Decimals))
	for asset, d := range cfg.Decimals {
		decimals[asset] = d
	}
	cfg.Decimals = decimals
	return &Aggregator{
		cfg:          cfg,
		sink:         sink,
		logger:       logger,
		now:          time.Now,
		accumulators: make(map[statsKey]*Accumulator),
		touched:      make(map[string]bool),
		poolSeen:     make(map[model.PoolKey]uint64),
	}
}

// Run aggregates a JSONL journal. Records up to the stored offset have already been exported;
// they are still folded into the totals so that a run spanning the offset gets complete stats.
func (a *Aggregator) Run(ctx context.Context, journalPath string) error {
	if a.sink == nil {
		return fmt.Errorf("sink is nil")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	offset, err := a.loadOffset(ctx)
	if err != nil {
		return err
	}

	markets := make([]model.Market, 0, 64)
	pools := make([]model.PoolRecord, 0, 64)
	var position uint64
	var total, exported, failed int

	err = storage.ReadOperations(journalPath, func(record model.OperationRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		position++
		total++
		fresh := position > offset
		if fresh {
			a.touched[record.RunID] = true
			exported++
		}

		switch record.Op {
		case model.OpCreateMarket:
			if fresh && record.Status == model.StatusApplied {
				market, err := marketFromRecord(record)
				if err != nil {
					failed++
					a.logger.Warn("decode market", zap.Uint64("seq", record.Seq), zap.Error(err))
					return nil
				}
				markets = append(markets, market)
			}
		case model.OpCreatePool:
			if fresh && record.Status == model.StatusApplied {
				pool, ok, err := a.registerPool(record)
				if err != nil {
					failed++
					a.logger.Warn("decode pool", zap.Uint64("seq", record.Seq), zap.Error(err))
					return nil
				}
				if ok {
					pools = append(pools, pool)
				}
			}
		case model.OpDeposit, model.OpWithdraw, model.OpSwap:
			key := statsKey{runID: record.RunID, pool: record.Market + "/" + record.AssetA + "/" + record.AssetB}
			acc := a.accumulators[key]
			if acc == nil {
				acc = NewAccumulator(record)
				a.accumulators[key] = acc
			}
			if err := acc.AddRecord(record); err != nil {
				failed++
				a.logger.Warn("aggregate record", zap.Uint64("seq", record.Seq), zap.String("op", record.Op), zap.Error(err))
			}
		}

		if len(markets)+len(pools) >= a.cfg.BatchSize {
			if err := a.flushRegistry(ctx, markets, pools); err != nil {
				return err
			}
			markets = markets[:0]
			pools = pools[:0]
		}
		return nil
	})
	if err != nil {
		return err
	}
	if position < offset {
		return fmt.Errorf("journal %s has %d records but %d were already exported; rerun with recompute", journalPath, position, offset)
	}

	if err := a.flushRegistry(ctx, markets, pools); err != nil {
		return err
	}
	stats := a.buildStats(ctx)
	for start := 0; start < len(stats); start += a.cfg.BatchSize {
		end := start + a.cfg.BatchSize
		if end > len(stats) {
			end = len(stats)
		}
		if err := a.sink.UpsertPoolStats(ctx, stats[start:end]); err != nil {
			return err
		}
	}

	if err := a.saveOffset(ctx, position); err != nil {
		return err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("exported", exported),
		zap.Int("pool_stats", len(stats)),
		zap.Int("failed", failed),
	)
	return nil
}

func (a *Aggregator) loadOffset(ctx context.Context) (uint64, error) {
	if a.cfg.Recompute || a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

func (a *Aggregator) saveOffset(ctx context.Context, offset uint64) error {
	if a.cfg.StateStore == nil {
		return nil
	}
	return a.cfg.StateStore.Save(ctx, offset)
}

func (a *Aggregator) flushRegistry(ctx context.Context, markets []model.Market, pools []model.PoolRecord) error {
	if len(markets) > 0 {
		if err := a.sink.UpsertMarkets(ctx, markets); err != nil {
			return err
		}
	}
	if len(pools) > 0 {
		if err := a.sink.UpsertPools(ctx, pools); err != nil {
			return err
		}
	}
	return nil
}

// buildStats renders accumulators of runs that have unexported records, ordered by run and pool.
func (a *Aggregator) buildStats(ctx context.Context) []model.PoolStats {
	keys := make([]statsKey, 0, len(a.accumulators))
	for key := range a.accumulators {
		if a.touched[key.runID] {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].runID != keys[j].runID {
			return keys[i].runID < keys[j].runID
		}
		return keys[i].pool < keys[j].pool
	})

	now := a.now().UTC()
	stats := make([]model.PoolStats, 0, len(keys))
	for _, key := range keys {
		stats = append(stats, a.render(ctx, a.accumulators[key], now))
	}
	return stats
}

func (a *Aggregator) render(ctx context.Context, acc *Accumulator, now time.Time) model.PoolStats {
	decimalsA := a.decimals(ctx, acc.AssetA)
	decimalsB := a.decimals(ctx, acc.AssetB)
	return model.PoolStats{
		RunID:         acc.RunID,
		Market:        acc.Market,
		AssetA:        acc.AssetA,
		AssetB:        acc.AssetB,
		SwapCount:     acc.SwapCount,
		DepositCount:  acc.DepositCount,
		WithdrawCount: acc.WithdrawCount,
		FailedCount:   acc.FailedCount,
		VolumeA:       formatTokenAmount(acc.VolumeA, decimalsA),
		VolumeB:       formatTokenAmount(acc.VolumeB, decimalsB),
		FeeA:          formatTokenAmount(acc.FeeA, decimalsA),
		FeeB:          formatTokenAmount(acc.FeeB, decimalsB),
		Minted:        formatTokenAmount(acc.Minted, address.LiquidityDecimals),
		Burned:        formatTokenAmount(acc.Burned, address.LiquidityDecimals),
		ReserveA:      formatUint(acc.Last.A, decimalsA),
		ReserveB:      formatUint(acc.Last.B, decimalsB),
		Supply:        formatUint(acc.Last.Supply, address.LiquidityDecimals),
		Price:         computePrice(acc.Last.A, acc.Last.B, decimalsA, decimalsB),
		UpdatedAt:     now,
	}
}

// decimals resolves an asset's decimals from configuration, then the mint source. Lookup failures
// fall back to DefaultDecimals and are remembered so each asset is fetched once.
func (a *Aggregator) decimals(ctx context.Context, asset string) uint8 {
	if d, ok := a.cfg.Decimals[asset]; ok {
		return d
	}
	if a.cfg.Mints == nil {
		return a.cfg.DefaultDecimals
	}

	d := a.cfg.DefaultDecimals
	mint, err := solana.PublicKeyFromBase58(asset)
	if err == nil {
		var fetched uint8
		if fetched, err = a.cfg.Mints.MintDecimals(ctx, mint); err == nil {
			d = fetched
		}
	}
	if err != nil {
		a.logger.Warn("mint decimals", zap.String("asset", asset), zap.Error(err))
	}
	a.cfg.Decimals[asset] = d
	return d
}

// registerPool derives a created pool's accounts. Pools already seen at an earlier sequence are skipped.
func (a *Aggregator) registerPool(record model.OperationRecord) (model.PoolRecord, bool, error) {
	keys, err := parseKeys(record.Market, record.AssetA, record.AssetB)
	if err != nil {
		return model.PoolRecord{}, false, err
	}
	pool := model.Pool{Market: keys[0], AssetA: keys[1], AssetB: keys[2]}

	if seen, ok := a.poolSeen[pool.Key()]; ok && seen <= record.Seq {
		return model.PoolRecord{}, false, nil
	}

	addrs, err := address.Pool(pool.Market, pool.AssetA, pool.AssetB)
	if err != nil {
		return model.PoolRecord{}, false, err
	}
	a.poolSeen[pool.Key()] = record.Seq
	return model.PoolRecord{
		Pool:          pool,
		Address:       addrs.Pool,
		Authority:     addrs.Authority,
		LiquidityMint: addrs.Liquidity,
		FirstSeenSeq:  record.Seq,
	}, true, nil
}

func marketFromRecord(record model.OperationRecord) (model.Market, error) {
	keys, err := parseKeys(record.Owner, record.Market)
	if err != nil {
		return model.Market{}, err
	}
	return model.Market{Admin: keys[0], ID: keys[1], FeeBps: record.FeeBps}, nil
}

func parseKeys(values ...string) ([]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, 0, len(values))
	for _, v := range values {
		key, err := solana.PublicKeyFromBase58(v)
		if err != nil {
			return nil, fmt.Errorf("invalid key %q: %w", v, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}
