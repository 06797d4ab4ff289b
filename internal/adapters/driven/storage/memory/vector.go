package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/ansa/internal/adapters/driven/storage/rank"
	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// VectorIndex is an in-memory implementation of driven.VectorIndex.
//
// Chunks are keyed by chunk ID, so upserting a chunk with an existing ID
// replaces the stored record. The embedding dimensionality is learned from
// the first upsert and enforced afterwards.
type VectorIndex struct {
	mu     sync.RWMutex
	chunks map[string]domain.Chunk
	dims   int
}

// NewVectorIndex creates an empty in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		chunks: make(map[string]domain.Chunk),
	}
}

// Upsert stores chunks with their embeddings, replacing entries that share
// a chunk ID.
func (s *VectorIndex) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("upsert chunk %q: empty embedding: %w", chunk.ID, domain.ErrInvalidInput)
		}
		if s.dims == 0 {
			s.dims = len(chunk.Embedding)
		}
		if len(chunk.Embedding) != s.dims {
			return fmt.Errorf("upsert chunk %q: got %d dimensions, index has %d: %w",
				chunk.ID, len(chunk.Embedding), s.dims, domain.ErrDimensionMismatch)
		}
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

// DeleteByDocument removes every chunk belonging to a document. Deleting a
// document with no stored chunks is not an error.
func (s *VectorIndex) DeleteByDocument(ctx context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, chunk := range s.chunks {
		if chunk.DocumentID == docID {
			delete(s.chunks, id)
		}
	}
	return nil
}

// Search returns the k chunks most similar to the query embedding, ordered
// by descending cosine similarity. An empty index yields an empty result.
func (s *VectorIndex) Search(ctx context.Context, query []float32, k int) ([]domain.Passage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.chunks) == 0 {
		return []domain.Passage{}, nil
	}
	if s.dims != 0 && len(query) != s.dims {
		return nil, fmt.Errorf("search: got %d dimensions, index has %d: %w",
			len(query), s.dims, domain.ErrDimensionMismatch)
	}

	passages := make([]domain.Passage, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		passages = append(passages, domain.Passage{
			Chunk: chunk,
			Score: rank.Cosine(query, chunk.Embedding),
		})
	}
	return rank.TopK(passages, k), nil
}

// Count returns the number of stored chunks.
func (s *VectorIndex) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Close releases the store. It is a no-op for the in-memory index.
func (s *VectorIndex) Close() error {
	return nil
}

var _ driven.VectorIndex = (*VectorIndex)(nil)
