package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: `
		CREATE TABLE IF NOT EXISTS markets (
			market_id TEXT PRIMARY KEY,
			admin TEXT NOT NULL,
			fee_bps INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS pools (
			market_id TEXT NOT NULL REFERENCES markets(market_id),
			asset_a TEXT NOT NULL,
			asset_b TEXT NOT NULL,
			pool_address TEXT UNIQUE NOT NULL,
			authority TEXT NOT NULL,
			liquidity_mint TEXT NOT NULL,
			first_seen_seq BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (market_id, asset_a, asset_b)
		);

		CREATE TABLE IF NOT EXISTS operations (
			run_id TEXT NOT NULL,
			seq BIGINT NOT NULL,
			op TEXT NOT NULL,
			status TEXT NOT NULL,
			error_kind TEXT,
			market_id TEXT,
			asset_a TEXT,
			asset_b TEXT,
			owner TEXT,
			payload JSONB NOT NULL,
			ts TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (run_id, seq)
		);
		CREATE INDEX IF NOT EXISTS idx_operations_pool ON operations(market_id, asset_a, asset_b);
		CREATE INDEX IF NOT EXISTS idx_operations_status ON operations(status);

		CREATE TABLE IF NOT EXISTS pool_stats (
			run_id TEXT NOT NULL,
			market_id TEXT NOT NULL,
			asset_a TEXT NOT NULL,
			asset_b TEXT NOT NULL,
			swap_count BIGINT NOT NULL,
			deposit_count BIGINT NOT NULL,
			withdraw_count BIGINT NOT NULL,
			failed_count BIGINT NOT NULL,
			volume_a NUMERIC NOT NULL,
			volume_b NUMERIC NOT NULL,
			fee_a NUMERIC NOT NULL,
			fee_b NUMERIC NOT NULL,
			minted NUMERIC NOT NULL,
			burned NUMERIC NOT NULL,
			reserve_a NUMERIC NOT NULL,
			reserve_b NUMERIC NOT NULL,
			supply NUMERIC NOT NULL,
			price NUMERIC,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (run_id, market_id, asset_a, asset_b)
		);

		CREATE TABLE IF NOT EXISTS run_state (
			name TEXT PRIMARY KEY,
			last_offset BIGINT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		`,
		Down: `
		DROP TABLE IF EXISTS run_state;
		DROP TABLE IF EXISTS pool_stats;
		DROP TABLE IF EXISTS operations;
		DROP TABLE IF EXISTS pools;
		DROP TABLE IF EXISTS markets;
		`,
	},
}

type Migrator struct {
	pool *pgxpool.Pool
}

func NewMigrator(pool *pgxpool.Pool) *Migrator {
	return &Migrator{pool: pool}
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INT PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`)
	return err
}

func (m *Migrator) currentVersion(ctx context.Context) (int, error) {
	var version int
	err := m.pool.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// Up applies every pending migration in one transaction.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.createMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("create migrations table: %w", err)
	}
	current, err := m.currentVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("get current version: %w", err)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	applied := 0
	for _, migration := range pending(current) {
		if _, err := tx.Exec(ctx, migration.Up); err != nil {
			return 0, fmt.Errorf("apply migration %d: %w", migration.Version, err)
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			return 0, fmt.Errorf("record migration %d: %w", migration.Version, err)
		}
		applied++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit migrations: %w", err)
	}
	return applied, nil
}

// Down rolls back up to steps migrations, newest first.
func (m *Migrator) Down(ctx context.Context, steps int) (int, error) {
	current, err := m.currentVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("get current version: %w", err)
	}
	if current == 0 {
		return 0, fmt.Errorf("no migrations to rollback")
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rolledBack := 0
	for i := len(migrations) - 1; i >= 0 && rolledBack < steps; i-- {
		migration := migrations[i]
		if migration.Version > current {
			continue
		}
		if _, err := tx.Exec(ctx, migration.Down); err != nil {
			return 0, fmt.Errorf("rollback migration %d: %w", migration.Version, err)
		}
		if _, err := tx.Exec(ctx, "DELETE FROM schema_migrations WHERE version = $1", migration.Version); err != nil {
			return 0, fmt.Errorf("remove migration record %d: %w", migration.Version, err)
		}
		rolledBack++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit rollback: %w", err)
	}
	return rolledBack, nil
}

// pending returns the migrations newer than version, in order.
func pending(version int) []Migration {
	var out []Migration
	for _, migration := range migrations {
		if migration.Version > version {
			out = append(out, migration)
		}
	}
	return out
}
