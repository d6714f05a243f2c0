package obligation

import (
	"context"

	"fintrack/internal/domain/period"
)

// Repository is the obligation store. It is defined here and implemented in
// the infrastructure layer.
type Repository interface {
	// CreateBatch inserts the rows in one write and skips rows whose
	// (source_id, period) already exists. It returns how many rows were
	// inserted. Stores that cannot skip silently return ErrDuplicateObligation.
	CreateBatch(ctx context.Context, params []CreateParams) (int, error)

	// GetByID returns (nil, nil) when the obligation does not exist
	GetByID(ctx context.Context, id string) (*Obligation, error)

	// GetByIDForUpdate is GetByID with a row lock held until the surrounding
	// database transaction ends
	GetByIDForUpdate(ctx context.Context, id string) (*Obligation, error)

	// GetBySourceAndPeriod returns (nil, nil) when no obligation matches
	GetBySourceAndPeriod(ctx context.Context, sourceID string, p period.Period) (*Obligation, error)

	// ListBySourceID returns the source's obligations ordered by period
	ListBySourceID(ctx context.Context, sourceID string) ([]*Obligation, error)

	UpdatePayment(ctx context.Context, id string, update PaymentUpdate) (*Obligation, error)

	// DeleteBySourceID removes every obligation of a source and reports the count
	DeleteBySourceID(ctx context.Context, sourceID string) (int64, error)
}
