package transaction

import (
	"context"
)

// Repository defines the interface for transaction data access
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Transaction, error)
	// GetByID returns (nil, nil) when the transaction does not exist
	GetByID(ctx context.Context, id string) (*Transaction, error)
	List(ctx context.Context, filter Filter) ([]*Transaction, error)
	// ListByObligationIDs returns every transaction linked to one of the given obligations
	ListByObligationIDs(ctx context.Context, obligationIDs []string) ([]*Transaction, error)
	// Delete returns ErrTransactionNotFound when no row was removed
	Delete(ctx context.Context, id string) error
	// ClearObligationLinks sets obligation_id to NULL for transactions linked to the
	// given obligations and reports how many rows changed
	ClearObligationLinks(ctx context.Context, obligationIDs []string) (int64, error)
}
