package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestParseStringMap(t *testing.T) {
	got := parseStringMap(" sol=9, usdc = 6,broken,=1,empty=")
	want := map[string]string{"sol": "9", "usdc": "6"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("map mismatch: %+v != %+v", got, want)
	}
}

func TestParseDecimals(t *testing.T) {
	got, err := ParseDecimals(map[string]string{"sol": "9", "usdc": "6"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, map[string]uint8{"sol": 9, "usdc": 6}) {
		t.Fatalf("unexpected decimals: %+v", got)
	}
	for _, bad := range []string{"-1", "20", "x", "256"} {
		if _, err := ParseDecimals(map[string]string{"a": bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestLoadSimulateFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "amm.yaml")
	body := "in: ./script.jsonl\nbatch-size: 50\nretry-backoff: 2s\n"
	if err := os.WriteFile(cfgFile, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	flags := pflag.NewFlagSet("simulate", pflag.ContinueOnError)
	flags.Uint64("batch-size", 0, "")
	flags.String("out", "", "")
	if err := flags.Parse([]string{"--batch-size", "7"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := LoadSimulate(cfgFile, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.In != "./script.jsonl" || cfg.BatchSize != 7 || cfg.RetryBackoff != 2*time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Out != "./data/journal.jsonl" || !cfg.CheckpointEnabled || cfg.MaxRetries != 5 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadSimulateRequiresInput(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "amm.yaml")
	if err := os.WriteFile(cfgFile, []byte("out: x.jsonl\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadSimulate(cfgFile, nil); err == nil {
		t.Fatalf("expected missing input error")
	}
}

func TestLoadAggregateReadsEnv(t *testing.T) {
	t.Setenv("AMM_PG_DSN", "postgres://localhost/amm")
	t.Setenv("AMM_DECIMALS", "sol=9,usdc=6")

	cfgFile := filepath.Join(t.TempDir(), "amm.yaml")
	if err := os.WriteFile(cfgFile, []byte("recompute: true\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadAggregate(cfgFile, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.PGDSN != "postgres://localhost/amm" || !cfg.Recompute || cfg.StateName != "aggregate" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Decimals, map[string]uint8{"sol": 9, "usdc": 6}) {
		t.Fatalf("unexpected decimals: %+v", cfg.Decimals)
	}
}

func TestLoadPlanRejectsWideFee(t *testing.T) {
	flags := pflag.NewFlagSet("quote", pflag.ContinueOnError)
	flags.Uint64("fee-bps", 0, "")
	if err := flags.Parse([]string{"--fee-bps", "70000"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfgFile := filepath.Join(t.TempDir(), "amm.yaml")
	if err := os.WriteFile(cfgFile, []byte("reserve-a: 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadPlan(cfgFile, flags); err == nil {
		t.Fatalf("expected fee range error")
	}
}

func TestLoadMigrate(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "amm.yaml")
	if err := os.WriteFile(cfgFile, []byte("log-level: debug\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadMigrate(cfgFile, nil); err == nil {
		t.Fatalf("expected missing dsn error")
	}

	t.Setenv("AMM_PG_DSN", "postgres://localhost/amm")
	t.Setenv("AMM_DOWN", "-1")
	if _, err := LoadMigrate(cfgFile, nil); err == nil {
		t.Fatalf("expected negative steps error")
	}

	t.Setenv("AMM_DOWN", "2")
	cfg, err := LoadMigrate(cfgFile, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != (MigrateConfig{PGDSN: "postgres://localhost/amm", Down: 2, LogLevel: "debug"}) {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
