package driving

import (
	"context"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

// ReindexStatus is the outcome of a corpus reindex request.
type ReindexStatus string

// Reindex request outcomes.
const (
	// ReindexStarted means a reindex pass was accepted and is running.
	ReindexStarted ReindexStatus = "started"

	// ReindexAlreadyRunning means a pass is in flight and the request
	// was rejected rather than overlapped.
	ReindexAlreadyRunning ReindexStatus = "already_running"
)

// IndexService runs the indexing pipeline.
type IndexService interface {
	// Index chunks, embeds and stores one document, superseding any
	// previous version with the same DocID. Failures are recorded in
	// the registry and reported in the receipt; only infrastructure
	// errors (embedding outages, storage faults) are also returned.
	// Concurrent calls for the same DocID are serialised.
	Index(ctx context.Context, sub domain.Submission) (domain.Receipt, error)

	// ReindexAll re-indexes the whole corpus directory asynchronously.
	// One failing document does not abort the batch. A second call
	// while a pass is running reports ReindexAlreadyRunning.
	ReindexAll(ctx context.Context) (ReindexStatus, error)

	// Remove deletes a document's chunks and registry entry, used when
	// a corpus file disappears.
	Remove(ctx context.Context, docID string) error
}
