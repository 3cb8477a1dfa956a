package postgres

import (
	"strings"
	"testing"
)

func TestMigrationsAreOrdered(t *testing.T) {
	for i, m := range migrations {
		if m.Version != i+1 {
			t.Fatalf("migration %d has version %d", i, m.Version)
		}
		if strings.TrimSpace(m.Up) == "" || strings.TrimSpace(m.Down) == "" {
			t.Fatalf("migration %d missing up or down", m.Version)
		}
	}
}

func TestPending(t *testing.T) {
	if got := pending(0); len(got) != len(migrations) {
		t.Fatalf("pending(0) = %d migrations", len(got))
	}
	if got := pending(len(migrations)); len(got) != 0 {
		t.Fatalf("pending(latest) = %d migrations", len(got))
	}
}

func TestSchemaCoversStoreTables(t *testing.T) {
	schema := migrations[0].Up
	for _, table := range []string{"markets", "pools", "operations", "pool_stats", "run_state"} {
		if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Fatalf("schema missing table %s", table)
		}
	}
	if !strings.Contains(schema, "PRIMARY KEY (run_id, seq)") {
		t.Fatalf("operations must be keyed by run and sequence")
	}
}
