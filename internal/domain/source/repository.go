package source

import "context"

// Repository defines the interface for source data access
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Source, error)

	// GetByID returns (nil, nil) when the source does not exist
	GetByID(ctx context.Context, id string) (*Source, error)

	List(ctx context.Context, limit, offset int) ([]*Source, error)

	// Delete returns ErrSourceNotFound when no row was removed
	Delete(ctx context.Context, id string) error
}
