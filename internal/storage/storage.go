package storage

import (
	"context"
	"errors"

	"ammCore/internal/model"
)

// Storage is a sink for journal records.
type Storage interface {
	PutOperationBatch(ctx context.Context, records []model.OperationRecord) error
}

// Multi writes every batch to each sink in order.
type Multi []Storage

func (m Multi) PutOperationBatch(ctx context.Context, records []model.OperationRecord) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.PutOperationBatch(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
