// Package chunker provides deterministic token-window text chunking.
package chunker

import (
	"context"
	"strings"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// DefaultChunkSize is the default number of tokens per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping tokens
// between consecutive chunks.
const DefaultChunkOverlap = 100

// Chunker splits document text into overlapping token windows.
// Tokens are whitespace-delimited, so a boundary never splits a word,
// and the overlap window repeats the tail of the previous chunk so a
// concept spanning a boundary appears whole in at least one chunk.
//
// Chunk IDs are derived from the document ID and the window ordinal,
// never generated, so identical input always yields identical chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in tokens.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in tokens.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// An overlap at or above the chunk size would never advance.
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Chunk splits the text into ordered chunks carrying the document's
// attribution metadata. Text shorter than one window produces exactly
// one chunk. Text with no extractable tokens returns
// domain.ErrEmptyDocument so the document is recorded as failed rather
// than silently indexed as zero chunks.
func (c *Chunker) Chunk(_ context.Context, docID, text string, meta domain.ChunkMeta) ([]domain.Chunk, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	step := c.chunkSize - c.overlap
	chunks := make([]domain.Chunk, 0, len(tokens)/step+1)

	for start, index := 0, 0; start < len(tokens); start, index = start+step, index+1 {
		end := start + c.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}

		window := tokens[start:end]
		chunks = append(chunks, domain.Chunk{
			ID:          domain.ChunkID(docID, index),
			DocumentID:  docID,
			Text:        strings.Join(window, " "),
			Index:       index,
			TokenCount:  len(window),
			StartOffset: start,
			Meta:        meta,
		})

		// The tail is consumed; a further window would only repeat
		// the overlap of this one.
		if end == len(tokens) {
			break
		}
	}

	return chunks, nil
}
