package config

import (
	"fmt"
	"strconv"

	"github.com/spf13/pflag"
)

// AggregateConfig holds configuration for aggregation.
type AggregateConfig struct {
	Input           string
	RPCURL          string
	PGDSN           string
	Migrate         bool
	BatchSize       int
	StateFile       string
	StateName       string
	Recompute       bool
	Decimals        map[string]uint8
	DefaultDecimals uint8
	LogLevel        string
}

// LoadAggregate merges config file, environment variables, and flags into AggregateConfig.
func LoadAggregate(cfgFile string, flags *pflag.FlagSet) (AggregateConfig, error) {
	v, err := load(cfgFile, flags, map[string]any{
		"in":               "./data/journal.jsonl",
		"batch-size":       1000,
		"state-name":       "aggregate",
		"migrate":          true,
		"default-decimals": 0,
		"log-level":        "info",
	})
	if err != nil {
		return AggregateConfig{}, err
	}

	decimals, err := ParseDecimals(getStringMap(v, "decimals"))
	if err != nil {
		return AggregateConfig{}, err
	}
	defaultDecimals := v.GetUint("default-decimals")
	if defaultDecimals > maxDecimals {
		return AggregateConfig{}, fmt.Errorf("default-decimals %d exceeds %d", defaultDecimals, maxDecimals)
	}

	cfg := AggregateConfig{
		Input:           v.GetString("in"),
		RPCURL:          v.GetString("rpc"),
		PGDSN:           v.GetString("pg-dsn"),
		Migrate:         v.GetBool("migrate"),
		BatchSize:       v.GetInt("batch-size"),
		StateFile:       v.GetString("state-file"),
		StateName:       v.GetString("state-name"),
		Recompute:       v.GetBool("recompute"),
		Decimals:        decimals,
		DefaultDecimals: uint8(defaultDecimals),
		LogLevel:        v.GetString("log-level"),
	}
	if cfg.PGDSN == "" {
		return AggregateConfig{}, fmt.Errorf("--pg-dsn is required")
	}
	return cfg, nil
}

const maxDecimals = 19

// ParseDecimals converts asset=decimals pairs. Keys are kept as written; callers resolve labels.
func ParseDecimals(raw map[string]string) (map[string]uint8, error) {
	out := make(map[string]uint8, len(raw))
	for asset, value := range raw {
		d, err := strconv.ParseUint(value, 10, 8)
		if err != nil || d > maxDecimals {
			return nil, fmt.Errorf("invalid decimals for %s: %q", asset, value)
		}
		out[asset] = uint8(d)
	}
	return out, nil
}
