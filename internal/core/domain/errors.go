package domain

import "errors"

// Sentinel errors callers match with errors.Is. Adapters wrap their
// transport failures around these so the core and the surfaces (CLI,
// HTTP, MCP) classify outcomes without knowing providers.
var (
	// ErrNotFound marks lookups of documents that were never indexed.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks malformed submissions and queries.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyDocument indicates a document has no extractable text.
	// The document is recorded as failed, never indexed as zero chunks.
	ErrEmptyDocument = errors.New("document has no extractable text")

	// Indexing Errors.

	// ErrReindexRunning indicates a corpus reindex is already running.
	// Overlapping reindex passes are rejected, never interleaved.
	ErrReindexRunning = errors.New("reindex already running")

	// ErrDimensionMismatch indicates a vector's dimensionality differs
	// from the index generation's. Changing embedding models requires
	// a full reindex.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// Model Service Errors.

	// ErrEmbeddingFailed indicates the embedding service call failed.
	ErrEmbeddingFailed = errors.New("embedding service failed")

	// ErrEmbeddingTimeout indicates the embedding service call exceeded
	// its per-call deadline.
	ErrEmbeddingTimeout = errors.New("embedding service timed out")

	// ErrGenerationFailed indicates the generation service call failed.
	// Distinct from a low-confidence result: callers must be able to
	// tell "couldn't find it" from "the model call broke".
	ErrGenerationFailed = errors.New("generation service failed")

	// ErrGenerationTimeout indicates the generation service call
	// exceeded its per-call deadline.
	ErrGenerationTimeout = errors.New("generation service timed out")
)
