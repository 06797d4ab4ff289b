package driven

import (
	"context"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

// Chunker splits document text into overlapping token-bounded chunks.
//
// Chunking is deterministic: identical text and parameters produce
// byte-identical chunk boundaries and IDs every time, which is what
// makes re-indexing idempotent.
type Chunker interface {
	// Chunk splits the text into ordered chunks carrying the document's
	// attribution metadata. Text shorter than one chunk produces exactly
	// one chunk; text with no extractable tokens returns
	// domain.ErrEmptyDocument.
	Chunk(ctx context.Context, docID, text string, meta domain.ChunkMeta) ([]domain.Chunk, error)
}
