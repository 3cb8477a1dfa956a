package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ammCore/internal/config"
	"ammCore/internal/executor"
	"ammCore/internal/ledger"
	"ammCore/internal/registry"
	"ammCore/internal/simulate"
	"ammCore/internal/storage"
	"ammCore/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "amm",
		Short:        "Constant-product AMM accounting core",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a JSONL request script and journal every outcome",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().String("in", "", "input request script JSONL")
	simulateCmd.Flags().String("out", "./data/journal.jsonl", "output journal JSONL path")
	simulateCmd.Flags().String("run-id", "", "run id stamped on journal records (random when empty)")
	simulateCmd.Flags().String("pg-dsn", "", "optional Postgres DSN; the journal is also written there")
	simulateCmd.Flags().Bool("migrate", true, "apply pending schema migrations before writing")
	simulateCmd.Flags().Uint64("batch-size", 500, "requests per journal batch")
	simulateCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	simulateCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	simulateCmd.Flags().Int("max-retries", 5, "maximum retry attempts for journal writes")
	simulateCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	simulateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(simulateCmd)

	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate a journal into market, pool and pool stats tables",
		RunE:  runAggregate,
	}

	aggregateCmd.Flags().String("in", "./data/journal.jsonl", "input journal JSONL")
	aggregateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	aggregateCmd.Flags().String("rpc", "", "optional Solana RPC URL for looking up mint decimals")
	aggregateCmd.Flags().Bool("migrate", true, "apply pending schema migrations first")
	aggregateCmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	aggregateCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	aggregateCmd.Flags().String("state-name", "aggregate", "progress entry name in the state file or the run_state table")
	aggregateCmd.Flags().Bool("recompute", false, "ignore saved progress and export the whole journal")
	aggregateCmd.Flags().String("decimals", "", "asset decimals (comma-separated asset=decimals, labels allowed)")
	aggregateCmd.Flags().Uint("default-decimals", 0, "decimals for assets missing from --decimals")
	aggregateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(aggregateCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the Postgres schema",
		RunE:  runMigrate,
	}

	migrateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	migrateCmd.Flags().Int("down", 0, "roll back this many migrations instead of applying pending ones")
	migrateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd)

	root.AddCommand(newQuoteCmd(), newDepositCmd(), newWithdrawCmd(), newAddressCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks := storage.Multi{storage.NewJsonlStorage(cfg.Out)}
	if cfg.PGDSN != "" {
		store, err := openStore(ctx, cfg.PGDSN, cfg.Migrate, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		sinks = append(sinks, store)
	}

	exec := executor.New(registry.New(), ledger.NewMemory(logger), logger)
	runner := simulate.NewRunner(simulate.RunConfig{
		ScriptPath:        cfg.In,
		RunID:             cfg.RunID,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, exec, sinks, logger)

	logger.Info("simulate start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), summary)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadMigrate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.PGDSN, false, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Down > 0 {
		reverted, err := store.Rollback(ctx, cfg.Down)
		if err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
		logger.Info("schema rolled back", zap.String("pg_dsn", redactDSN(cfg.PGDSN)), zap.Int("reverted", reverted))
		return nil
	}

	applied, err := store.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("schema migrated", zap.String("pg_dsn", redactDSN(cfg.PGDSN)), zap.Int("applied", applied))
	return nil
}

func openStore(ctx context.Context, dsn string, migrate bool, logger *zap.Logger) (*postgres.Store, error) {
	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if migrate {
		applied, err := store.Migrate(ctx)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		if applied > 0 {
			logger.Info("schema migrated", zap.Int("applied", applied))
		}
	}
	return store, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
