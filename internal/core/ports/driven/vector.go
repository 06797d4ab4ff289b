package driven

import (
	"context"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

// VectorIndex stores chunk embeddings and performs cosine similarity
// search. The metric is fixed for the lifetime of an index generation.
//
// Implementations must be safe for concurrent use: upserts for different
// documents may interleave with searches.
type VectorIndex interface {
	// Upsert stores the chunks' vectors, text and metadata, replacing any
	// existing records with the same chunk IDs. Chunks must carry
	// embeddings of the index generation's dimensionality; a mismatch
	// returns domain.ErrDimensionMismatch.
	Upsert(ctx context.Context, chunks []domain.Chunk) error

	// DeleteByDocument removes every chunk belonging to the document.
	// Run before re-upserting so stale chunks from a longer prior
	// version cannot survive.
	DeleteByDocument(ctx context.Context, docID string) error

	// Search returns the k nearest chunks to the query vector, ordered
	// by descending similarity, ties broken by chunk ID ascending.
	// An empty index returns an empty slice, never an error.
	Search(ctx context.Context, query []float32, k int) ([]domain.Passage, error)

	// Count returns the number of stored chunk vectors.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying storage handle.
	Close() error
}
