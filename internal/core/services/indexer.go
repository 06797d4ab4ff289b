package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
	"github.com/custodia-labs/ansa/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.IndexService = (*Indexer)(nil)

// Indexer runs the indexing pipeline: chunk, embed, supersede the
// previous vectors, record the outcome in the registry.
//
// Concurrency: different documents index in parallel; calls for the
// same document serialise on a per-ID lock so interleaved partial
// upserts cannot leave stale chunks behind. Corpus-wide reindex passes
// never overlap.
type Indexer struct {
	chunker  driven.Chunker
	embedder driven.EmbeddingService
	vectors  driven.VectorIndex
	registry driven.RegistryStore
	corpus   driven.CorpusSource

	mu         sync.Mutex
	docLocks   map[string]*sync.Mutex
	reindexing bool
}

// NewIndexer creates a new indexer.
// The corpus source is optional; nil disables ReindexAll.
func NewIndexer(
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	vectors driven.VectorIndex,
	registry driven.RegistryStore,
	corpus driven.CorpusSource,
) *Indexer {
	return &Indexer{
		chunker:  chunker,
		embedder: embedder,
		vectors:  vectors,
		registry: registry,
		corpus:   corpus,
		docLocks: make(map[string]*sync.Mutex),
	}
}

// Index chunks, embeds and stores one document, superseding any
// previous version with the same DocID.
//
// An empty document is recorded as failed and reported in the receipt
// without an error: the boundary contract is "recorded, not thrown".
// Infrastructure failures (embedding outages, storage faults) also mark
// the document failed but are returned as well, since they are
// retryable and the caller needs to know the batch member broke.
func (s *Indexer) Index(ctx context.Context, sub domain.Submission) (domain.Receipt, error) {
	if err := sub.Validate(); err != nil {
		return domain.Receipt{}, fmt.Errorf("validate submission: %w", err)
	}

	lock := s.lockFor(sub.DocID)
	lock.Lock()
	defer lock.Unlock()

	logger.Section("Index Document")
	logger.Debug("Document: %s (%q)", sub.DocID, sub.Title)

	if err := s.registry.MarkPending(ctx, sub); err != nil {
		return domain.Receipt{}, fmt.Errorf("mark pending: %w", err)
	}

	meta := domain.ChunkMeta{
		Title:     sub.Title,
		SourceURL: sub.SourceURL,
		Category:  sub.Category,
		Tags:      sub.Tags,
	}

	chunks, err := s.chunker.Chunk(ctx, sub.DocID, sub.Text, meta)
	if err != nil {
		s.markFailed(ctx, sub.DocID, err)
		receipt := failedReceipt(sub.DocID, err)
		if errors.Is(err, domain.ErrEmptyDocument) {
			logger.Warn("Document %s has no extractable text", sub.DocID)
			return receipt, nil
		}
		return receipt, fmt.Errorf("chunk document: %w", err)
	}
	logger.Debug("Chunked into %d chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		s.markFailed(ctx, sub.DocID, err)
		return failedReceipt(sub.DocID, err), fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		err := fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrEmbeddingFailed, len(embeddings), len(chunks))
		s.markFailed(ctx, sub.DocID, err)
		return failedReceipt(sub.DocID, err), err
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}
	logger.Debug("Embedded %d chunks", len(chunks))

	// Delete before upsert: a shrunk document must not keep chunks
	// from its longer previous version.
	if err := s.vectors.DeleteByDocument(ctx, sub.DocID); err != nil {
		s.markFailed(ctx, sub.DocID, err)
		return failedReceipt(sub.DocID, err), fmt.Errorf("delete stale vectors: %w", err)
	}
	if err := s.vectors.Upsert(ctx, chunks); err != nil {
		s.markFailed(ctx, sub.DocID, err)
		return failedReceipt(sub.DocID, err), fmt.Errorf("upsert vectors: %w", err)
	}

	if err := s.registry.MarkIndexed(ctx, sub.DocID, len(chunks)); err != nil {
		return failedReceipt(sub.DocID, err), fmt.Errorf("mark indexed: %w", err)
	}

	logger.Info("Indexed %s: %d chunks", sub.DocID, len(chunks))
	return domain.Receipt{
		DocID:      sub.DocID,
		Status:     domain.StatusIndexed,
		ChunkCount: len(chunks),
	}, nil
}

// ReindexAll re-indexes the whole corpus directory asynchronously,
// pruning registry entries whose files have disappeared. A second call
// while a pass runs reports ReindexAlreadyRunning rather than
// interleaving two passes.
func (s *Indexer) ReindexAll(_ context.Context) (driving.ReindexStatus, error) {
	if s.corpus == nil {
		return "", fmt.Errorf("reindex: no corpus directory configured")
	}
	if !s.beginReindex() {
		logger.Info("Reindex requested while a pass is running")
		return driving.ReindexAlreadyRunning, nil
	}

	// The pass outlives the triggering request, so it runs on its own
	// context rather than the caller's.
	go s.runReindex(context.Background())

	return driving.ReindexStarted, nil
}

// Reindex runs a full corpus pass synchronously, for one-shot callers
// whose process exits when the command returns. Reports
// domain.ErrReindexRunning if a pass is already underway.
func (s *Indexer) Reindex(ctx context.Context) error {
	if s.corpus == nil {
		return fmt.Errorf("reindex: no corpus directory configured")
	}
	if !s.beginReindex() {
		return domain.ErrReindexRunning
	}
	s.runReindex(ctx)
	return nil
}

// beginReindex takes the corpus-wide pass guard without blocking.
// runReindex releases it.
func (s *Indexer) beginReindex() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reindexing {
		return false
	}
	s.reindexing = true
	return true
}

// Remove deletes a document's vectors and registry entry.
func (s *Indexer) Remove(ctx context.Context, docID string) error {
	lock := s.lockFor(docID)
	lock.Lock()
	defer lock.Unlock()

	logger.Debug("Removing document %s", docID)
	if err := s.vectors.DeleteByDocument(ctx, docID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := s.registry.Delete(ctx, docID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete registry entry: %w", err)
	}
	return nil
}

// runReindex walks the corpus and indexes every file. One failing
// document does not abort the batch; its failure is recorded in the
// registry and observable via status and document listings.
func (s *Indexer) runReindex(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.reindexing = false
		s.mu.Unlock()
	}()

	logger.Section("Reindex")

	subs, err := s.corpus.LoadAll(ctx)
	if err != nil {
		logger.Warn("Reindex aborted: %v", err)
		return
	}
	logger.Info("Reindexing %d corpus files", len(subs))

	current := make(map[string]bool, len(subs))
	indexed, failed := 0, 0
	for _, sub := range subs {
		if ctx.Err() != nil {
			logger.Warn("Reindex cancelled: %v", ctx.Err())
			return
		}
		current[sub.DocID] = true

		receipt, err := s.Index(ctx, sub)
		if err != nil {
			failed++
			logger.Warn("Reindex of %s failed: %v", sub.DocID, err)
			continue
		}
		if receipt.Status == domain.StatusFailed {
			failed++
			logger.Warn("Reindex of %s failed: %s", sub.DocID, receipt.Reason)
			continue
		}
		indexed++
	}

	s.pruneMissing(ctx, current)
	logger.Info("Reindex complete: %d indexed, %d failed", indexed, failed)
}

// pruneMissing removes registry entries and vectors for documents whose
// corpus files no longer exist, so a full pass fully supersedes the
// previous index generation.
func (s *Indexer) pruneMissing(ctx context.Context, current map[string]bool) {
	docs, err := s.registry.List(ctx)
	if err != nil {
		logger.Warn("Prune skipped, cannot list registry: %v", err)
		return
	}
	for _, doc := range docs {
		if current[doc.ID] {
			continue
		}
		if err := s.Remove(ctx, doc.ID); err != nil {
			logger.Warn("Prune of %s failed: %v", doc.ID, err)
			continue
		}
		logger.Info("Pruned %s: corpus file is gone", doc.ID)
	}
}

// lockFor returns the per-document lock, creating it on first use.
// The table is bounded by the corpus size.
func (s *Indexer) lockFor(docID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.docLocks[docID]
	if !ok {
		lock = &sync.Mutex{}
		s.docLocks[docID] = lock
	}
	return lock
}

// markFailed records a failure reason, logging rather than masking a
// registry write error so the original failure stays primary.
func (s *Indexer) markFailed(ctx context.Context, docID string, cause error) {
	if err := s.registry.MarkFailed(ctx, docID, cause.Error()); err != nil {
		logger.Warn("Could not mark %s failed: %v", docID, err)
	}
}

func failedReceipt(docID string, cause error) domain.Receipt {
	return domain.Receipt{
		DocID:  docID,
		Status: domain.StatusFailed,
		Reason: cause.Error(),
	}
}
