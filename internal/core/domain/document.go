package domain

import (
	"strings"
	"time"
)

// DocumentStatus tracks a document through the indexing lifecycle.
type DocumentStatus string

// Document lifecycle states.
const (
	// StatusPending means the document is queued or mid-index.
	StatusPending DocumentStatus = "pending"

	// StatusIndexed means the document's chunks and vectors are current.
	StatusIndexed DocumentStatus = "indexed"

	// StatusFailed means the last indexing attempt failed.
	// Failed documents may be retried; retrying moves them back to pending.
	StatusFailed DocumentStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusIndexed, StatusFailed:
		return true
	default:
		return false
	}
}

// String renders the status for logs and tables.
func (s DocumentStatus) String() string {
	return string(s)
}

// Document represents a registered document and its indexing state.
// Only the indexing pipeline mutates documents.
type Document struct {
	// ID is the stable document identifier. Corpus files derive it from
	// their path; API submissions supply it or receive a generated one.
	ID string

	// Title labels the document in source attributions.
	Title string

	// SourceURL is the canonical location of the document, if any.
	SourceURL string

	// Category groups related documents.
	Category string

	// Tags are free-form labels inherited by every chunk.
	Tags []string

	// Status is the current lifecycle state.
	Status DocumentStatus

	// ChunkCount is the number of chunks produced by the last
	// successful index. It survives later pending and failed passes.
	ChunkCount int

	// Failure describes why the last indexing attempt failed.
	// Empty unless Status is StatusFailed.
	Failure string

	// CreatedAt is when the document was first registered.
	CreatedAt time.Time

	// LastIndexed is when the document was last successfully indexed.
	// Zero until the first successful index.
	LastIndexed time.Time
}

// Submission is the input to the indexing pipeline: one document's
// extracted plain text plus its attribution metadata.
type Submission struct {
	// DocID identifies the document. Re-submitting the same DocID
	// supersedes the previous version.
	DocID string

	// Title labels the document in source attributions.
	Title string

	// SourceURL is the canonical location, if any.
	SourceURL string

	// Category groups related documents.
	Category string

	// Tags are free-form labels.
	Tags []string

	// Text is the extracted plain text to chunk and embed.
	Text string
}

// Validate checks the submission is well-formed enough to register.
// Empty text is not rejected here: it must reach the pipeline so the
// document can be recorded as failed rather than silently dropped.
func (s Submission) Validate() error {
	if strings.TrimSpace(s.DocID) == "" {
		return ErrInvalidInput
	}
	return nil
}

// Receipt reports the outcome of one indexing request.
type Receipt struct {
	// DocID is the document the receipt describes.
	DocID string

	// Status is indexed on success, failed otherwise.
	Status DocumentStatus

	// ChunkCount is the number of chunks now indexed for the document.
	ChunkCount int

	// Reason describes the failure. Empty on success.
	Reason string
}
