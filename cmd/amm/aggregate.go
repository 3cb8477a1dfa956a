package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammCore/internal/address"
	"ammCore/internal/aggregate"
	"ammCore/internal/chain"
	"ammCore/internal/config"
)

func runAggregate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAggregate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}

	decimals := make(map[string]uint8, len(cfg.Decimals))
	for ref, d := range cfg.Decimals {
		asset, err := address.Resolve(ref)
		if err != nil {
			return fmt.Errorf("decimals: %w", err)
		}
		decimals[asset.String()] = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.PGDSN, cfg.Migrate, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var mints aggregate.MintSource
	if cfg.RPCURL != "" {
		client := chain.NewClient(cfg.RPCURL)
		defer client.Close()
		mints = client
	}

	var stateStore aggregate.StateStore
	if cfg.StateFile != "" {
		stateStore = &aggregate.FileStateStore{Path: cfg.StateFile, Name: cfg.StateName}
	} else {
		stateStore = &aggregate.DBStateStore{Store: store, Name: cfg.StateName}
	}

	agg := aggregate.NewAggregator(aggregate.Config{
		BatchSize:       cfg.BatchSize,
		Recompute:       cfg.Recompute,
		Decimals:        decimals,
		DefaultDecimals: cfg.DefaultDecimals,
		Mints:           mints,
		StateStore:      stateStore,
	}, store, logger)

	logger.Info("aggregate start",
		zap.String("input", cfg.Input),
		zap.Bool("rpc", cfg.RPCURL != ""),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Bool("recompute", cfg.Recompute),
		zap.Int("decimals", len(decimals)),
	)

	return agg.Run(ctx, cfg.Input)
}
