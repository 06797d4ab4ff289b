package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

// RegistryStore persists per-document indexing state.
// Backed by SQLite; an in-memory implementation exists for tests.
//
// State machine: pending -> indexed (success) or pending -> failed
// (error during chunk/embed/upsert). Both terminal states re-enter
// pending on a re-index request.
type RegistryStore interface {
	// MarkPending registers the document (or re-registers a known one)
	// as queued for indexing, updating its attribution metadata.
	MarkPending(ctx context.Context, sub domain.Submission) error

	// MarkIndexed records a successful index with its chunk count and
	// stamps LastIndexed.
	MarkIndexed(ctx context.Context, docID string, chunkCount int) error

	// MarkFailed records a failed indexing attempt with its reason.
	MarkFailed(ctx context.Context, docID, reason string) error

	// Get returns the document stored under docID.
	// Returns domain.ErrNotFound for unknown IDs.
	Get(ctx context.Context, docID string) (*domain.Document, error)

	// List returns all registered documents, ordered by ID.
	List(ctx context.Context) ([]domain.Document, error)

	// Delete removes a document from the registry.
	Delete(ctx context.Context, docID string) error

	// Count returns the number of registered documents.
	Count(ctx context.Context) (int, error)

	// LastIndexed returns the most recent successful index time across
	// all documents, zero when nothing has been indexed yet.
	LastIndexed(ctx context.Context) (time.Time, error)
}
