package driving

import (
	"context"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

// AdminService exposes index health and the document registry to
// operators.
type AdminService interface {
	// Status reports index-wide counts, the last successful index time
	// and the active retrieval settings.
	Status(ctx context.Context) (domain.Stats, error)

	// Documents lists all registered documents with their states.
	Documents(ctx context.Context) ([]domain.Document, error)

	// Document retrieves one document by ID.
	// Returns domain.ErrNotFound for unknown IDs.
	Document(ctx context.Context, docID string) (*domain.Document, error)
}
