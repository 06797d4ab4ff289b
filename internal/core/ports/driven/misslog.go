package driven

import (
	"context"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

// MissLog records questions the corpus could not answer confidently,
// for later corpus curation. Append-only; a write failure must never
// fail the query that produced the miss.
type MissLog interface {
	// Record appends one miss.
	Record(ctx context.Context, miss domain.Miss) error

	// Close closes the log file or sink.
	Close() error
}
