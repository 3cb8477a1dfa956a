package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// MigrateConfig holds configuration for the migrate command.
type MigrateConfig struct {
	PGDSN    string
	Down     int
	LogLevel string
}

func LoadMigrate(cfgFile string, flags *pflag.FlagSet) (MigrateConfig, error) {
	v, err := load(cfgFile, flags, map[string]any{
		"log-level": "info",
	})
	if err != nil {
		return MigrateConfig{}, err
	}

	cfg := MigrateConfig{
		PGDSN:    v.GetString("pg-dsn"),
		Down:     v.GetInt("down"),
		LogLevel: v.GetString("log-level"),
	}
	if cfg.PGDSN == "" {
		return MigrateConfig{}, fmt.Errorf("--pg-dsn is required")
	}
	if cfg.Down < 0 {
		return MigrateConfig{}, fmt.Errorf("--down must not be negative")
	}
	return cfg, nil
}
