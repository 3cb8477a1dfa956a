package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ammCore/internal/model"
)

// Store provides Postgres persistence for the journal, the registry and pool statistics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate brings the schema up to date and returns how many migrations were applied.
func (s *Store) Migrate(ctx context.Context) (int, error) {
	return NewMigrator(s.pool).Up(ctx)
}

// Rollback reverts the newest steps migrations.
func (s *Store) Rollback(ctx context.Context, steps int) (int, error) {
	return NewMigrator(s.pool).Down(ctx, steps)
}

// UpsertMarkets inserts or updates market metadata.
func (s *Store) UpsertMarkets(ctx context.Context, markets []model.Market) error {
	if len(markets) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range markets {
		batch.Queue(`
			INSERT INTO markets (market_id, admin, fee_bps, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
			ON CONFLICT (market_id)
			DO UPDATE SET
				admin = EXCLUDED.admin,
				fee_bps = EXCLUDED.fee_bps,
				updated_at = now()
		`,
			m.ID.String(),
			m.Admin.String(),
			int32(m.FeeBps),
		)
	}
	return s.sendBatch(ctx, batch, len(markets))
}

// UpsertPools inserts or updates pool metadata.
func (s *Store) UpsertPools(ctx context.Context, pools []model.PoolRecord) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range pools {
		batch.Queue(`
			INSERT INTO pools (
				market_id, asset_a, asset_b, pool_address, authority, liquidity_mint, first_seen_seq, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			ON CONFLICT (market_id, asset_a, asset_b)
			DO UPDATE SET
				pool_address = EXCLUDED.pool_address,
				authority = EXCLUDED.authority,
				liquidity_mint = EXCLUDED.liquidity_mint,
				first_seen_seq = LEAST(pools.first_seen_seq, EXCLUDED.first_seen_seq),
				updated_at = now()
		`,
			p.Market.String(),
			p.AssetA.String(),
			p.AssetB.String(),
			p.Address.String(),
			p.Authority.String(),
			p.LiquidityMint.String(),
			int64(p.FirstSeenSeq),
		)
	}
	return s.sendBatch(ctx, batch, len(pools))
}

// InsertOperations writes journal records. Records already stored for a (run_id, seq) are kept,
// so replaying a batch after a failed flush is harmless.
func (s *Store) InsertOperations(ctx context.Context, records []model.OperationRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		payload, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal operation %d: %w", r.Seq, err)
		}
		batch.Queue(`
			INSERT INTO operations (
				run_id, seq, op, status, error_kind, market_id, asset_a, asset_b, owner, payload, ts, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
			ON CONFLICT (run_id, seq) DO NOTHING
		`,
			r.RunID,
			int64(r.Seq),
			r.Op,
			r.Status,
			r.ErrorKind,
			r.Market,
			r.AssetA,
			r.AssetB,
			r.Owner,
			payload,
			r.Timestamp,
		)
	}
	return s.sendBatch(ctx, batch, len(records))
}

// PutOperationBatch lets the store act as a journal sink.
func (s *Store) PutOperationBatch(ctx context.Context, records []model.OperationRecord) error {
	return s.InsertOperations(ctx, records)
}

// UpsertPoolStats inserts or updates per-run pool statistics.
func (s *Store) UpsertPoolStats(ctx context.Context, stats []model.PoolStats) error {
	if len(stats) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, st := range stats {
		batch.Queue(`
			INSERT INTO pool_stats (
				run_id, market_id, asset_a, asset_b,
				swap_count, deposit_count, withdraw_count, failed_count,
				volume_a, volume_b, fee_a, fee_b, minted, burned,
				reserve_a, reserve_b, supply, price, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,now(),$19)
			ON CONFLICT (run_id, market_id, asset_a, asset_b)
			DO UPDATE SET
				swap_count = EXCLUDED.swap_count,
				deposit_count = EXCLUDED.deposit_count,
				withdraw_count = EXCLUDED.withdraw_count,
				failed_count = EXCLUDED.failed_count,
				volume_a = EXCLUDED.volume_a,
				volume_b = EXCLUDED.volume_b,
				fee_a = EXCLUDED.fee_a,
				fee_b = EXCLUDED.fee_b,
				minted = EXCLUDED.minted,
				burned = EXCLUDED.burned,
				reserve_a = EXCLUDED.reserve_a,
				reserve_b = EXCLUDED.reserve_b,
				supply = EXCLUDED.supply,
				price = EXCLUDED.price,
				updated_at = EXCLUDED.updated_at
		`,
			st.RunID,
			st.Market,
			st.AssetA,
			st.AssetB,
			int64(st.SwapCount),
			int64(st.DepositCount),
			int64(st.WithdrawCount),
			int64(st.FailedCount),
			st.VolumeA,
			st.VolumeB,
			st.FeeA,
			st.FeeB,
			st.Minted,
			st.Burned,
			st.ReserveA,
			st.ReserveB,
			st.Supply,
			st.Price,
			st.UpdatedAt,
		)
	}
	return s.sendBatch(ctx, batch, len(stats))
}

// LoadState returns the stored offset for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var offset int64
	row := s.pool.QueryRow(ctx, `SELECT last_offset FROM run_state WHERE name=$1`, name)
	if err := row.Scan(&offset); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(offset), true, nil
}

// SaveState upserts the offset for a name.
func (s *Store) SaveState(ctx context.Context, name string, offset uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO run_state (name, last_offset, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_offset = EXCLUDED.last_offset, updated_at = now()
	`, name, int64(offset))
	return err
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
