package aggregate

import (
	"context"
	"fmt"
	"math"

	"ammCore/internal/storage/postgres"
)

// DBStateStore keeps the exported-record offset in a run_state row. The column is a signed
// BIGINT, so offsets past math.MaxInt64 are refused rather than wrapped.
type DBStateStore struct {
	Store *postgres.Store
	Name  string
}

func (s *DBStateStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Store == nil {
		return 0, false, nil
	}
	name, err := stateName(s.Name)
	if err != nil {
		return 0, false, err
	}
	offset, ok, err := s.Store.LoadState(ctx, name)
	if err != nil {
		return 0, false, fmt.Errorf("load offset %q: %w", name, err)
	}
	if offset > math.MaxInt64 {
		return 0, false, fmt.Errorf("load offset %q: stored value is negative", name)
	}
	return offset, ok, nil
}

func (s *DBStateStore) Save(ctx context.Context, offset uint64) error {
	if s == nil || s.Store == nil {
		return nil
	}
	name, err := stateName(s.Name)
	if err != nil {
		return err
	}
	if offset > math.MaxInt64 {
		return fmt.Errorf("save offset %q: %d does not fit the state column", name, offset)
	}
	if err := s.Store.SaveState(ctx, name, offset); err != nil {
		return fmt.Errorf("save offset %q: %w", name, err)
	}
	return nil
}
