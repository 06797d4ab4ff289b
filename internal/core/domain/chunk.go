package domain

import "strconv"

// Chunk is a bounded text segment derived from a document: the unit of
// embedding and retrieval. Chunk identifiers are deterministic so that
// re-indexing a document overwrites its chunks rather than appending.
type Chunk struct {
	// ID is the deterministic chunk identifier, DocumentID + ":" + Index.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Text is the chunk's content.
	Text string

	// Index is the ordinal position within the document, starting at zero.
	Index int

	// TokenCount is the number of whitespace-delimited tokens in Text.
	TokenCount int

	// StartOffset is the token offset of the chunk's first token
	// within the document.
	StartOffset int

	// Embedding is the vector representation. Populated by the indexing
	// pipeline before upsert; empty on chunks fresh from the chunker.
	Embedding []float32

	// Meta is the attribution metadata inherited from the document.
	Meta ChunkMeta
}

// ChunkMeta is the document attribution a retrieved chunk carries.
// Fields are fixed and validated at the boundary; open key-value maps
// are deliberately not used.
type ChunkMeta struct {
	// Title is the owning document's title.
	Title string

	// SourceURL is the owning document's canonical location, if any.
	SourceURL string

	// Category is the owning document's category.
	Category string

	// Tags are the owning document's labels.
	Tags []string
}

// ChunkID returns the deterministic identifier for a document's chunk
// at the given ordinal position.
func ChunkID(docID string, index int) string {
	return docID + ":" + strconv.Itoa(index)
}
