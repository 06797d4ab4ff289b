package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// RegistryStore is an in-memory implementation of driven.RegistryStore.
type RegistryStore struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

// NewRegistryStore creates an empty in-memory registry.
func NewRegistryStore() *RegistryStore {
	return &RegistryStore{
		docs: make(map[string]domain.Document),
	}
}

// MarkPending records a document as awaiting indexing. Metadata from the
// submission replaces whatever was stored before; the chunk count and last
// indexed time from a previous successful pass are preserved.
func (s *RegistryStore) MarkPending(ctx context.Context, sub domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.docs[sub.DocID]
	if !exists {
		doc = domain.Document{
			ID:        sub.DocID,
			CreatedAt: time.Now().UTC(),
		}
	}

	doc.Title = sub.Title
	doc.SourceURL = sub.SourceURL
	doc.Category = sub.Category
	doc.Tags = append([]string(nil), sub.Tags...)
	doc.Status = domain.StatusPending
	doc.Failure = ""

	s.docs[sub.DocID] = doc
	return nil
}

// MarkIndexed transitions a document to indexed.
func (s *RegistryStore) MarkIndexed(ctx context.Context, docID string, chunkCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.docs[docID]
	if !exists {
		return fmt.Errorf("mark indexed %q: %w", docID, domain.ErrNotFound)
	}

	doc.Status = domain.StatusIndexed
	doc.ChunkCount = chunkCount
	doc.Failure = ""
	doc.LastIndexed = time.Now().UTC()

	s.docs[docID] = doc
	return nil
}

// MarkFailed transitions a document to failed with a reason.
func (s *RegistryStore) MarkFailed(ctx context.Context, docID string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.docs[docID]
	if !exists {
		return fmt.Errorf("mark failed %q: %w", docID, domain.ErrNotFound)
	}

	doc.Status = domain.StatusFailed
	doc.Failure = reason

	s.docs[docID] = doc
	return nil
}

// Get returns a document by ID.
func (s *RegistryStore) Get(ctx context.Context, docID string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.docs[docID]
	if !exists {
		return nil, fmt.Errorf("get document %q: %w", docID, domain.ErrNotFound)
	}
	return &doc, nil
}

// List returns all documents ordered by ID.
func (s *RegistryStore) List(ctx context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

// Delete removes a document from the registry.
func (s *RegistryStore) Delete(ctx context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[docID]; !exists {
		return fmt.Errorf("delete document %q: %w", docID, domain.ErrNotFound)
	}
	delete(s.docs, docID)
	return nil
}

// Count returns the number of registered documents.
func (s *RegistryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

// LastIndexed returns the most recent successful index time across all
// documents, or the zero time when nothing has been indexed yet.
func (s *RegistryStore) LastIndexed(ctx context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest time.Time
	for _, doc := range s.docs {
		if doc.LastIndexed.After(latest) {
			latest = doc.LastIndexed
		}
	}
	return latest, nil
}

var _ driven.RegistryStore = (*RegistryStore)(nil)
