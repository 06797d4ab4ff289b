package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/ansa/internal/adapters/driven/storage/rank"
	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// vectorIndex implements driven.VectorIndex.
//
// The embedding dimensionality is not stored separately: it is implied
// by the blob width of whatever is already in the table, so an empty
// index accepts the first upsert's width as the generation's.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Upsert stores chunk vectors in a single transaction, replacing rows
// that share a chunk ID.
func (s *vectorIndex) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	dims, err := s.dimensions(ctx)
	if err != nil {
		return err
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, position, token_count, start_offset, text, title, source_url, category, tags, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			position = excluded.position,
			token_count = excluded.token_count,
			start_offset = excluded.start_offset,
			text = excluded.text,
			title = excluded.title,
			source_url = excluded.source_url,
			category = excluded.category,
			tags = excluded.tags,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("upsert chunk %q: empty embedding: %w", chunk.ID, domain.ErrInvalidInput)
		}
		if dims == 0 {
			dims = len(chunk.Embedding)
		}
		if len(chunk.Embedding) != dims {
			return fmt.Errorf("upsert chunk %q: got %d dimensions, index has %d: %w",
				chunk.ID, len(chunk.Embedding), dims, domain.ErrDimensionMismatch)
		}

		tagsJSON, err := json.Marshal(chunk.Meta.Tags)
		if err != nil {
			return fmt.Errorf("marshalling tags: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Index,
			chunk.TokenCount, chunk.StartOffset, chunk.Text, chunk.Meta.Title,
			chunk.Meta.SourceURL, chunk.Meta.Category, string(tagsJSON),
			float32SliceToBytes(chunk.Embedding)); err != nil {
			return fmt.Errorf("upserting chunk %q: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteByDocument removes every chunk belonging to a document. Deleting a
// document with no stored chunks is not an error.
func (s *vectorIndex) DeleteByDocument(ctx context.Context, docID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", docID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// Search returns the k chunks most similar to the query embedding, ordered
// by descending cosine similarity. An empty index yields an empty result.
func (s *vectorIndex) Search(ctx context.Context, query []float32, k int) ([]domain.Passage, error) {
	dims, err := s.dimensions(ctx)
	if err != nil {
		return nil, err
	}
	if dims == 0 {
		return []domain.Passage{}, nil
	}
	if len(query) != dims {
		return nil, fmt.Errorf("search: got %d dimensions, index has %d: %w",
			len(query), dims, domain.ErrDimensionMismatch)
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, position, token_count, start_offset, text, title, source_url, category, tags, embedding
		FROM chunks
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var passages []domain.Passage //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanStoredChunk(rows)
		if err != nil {
			return nil, err
		}
		passages = append(passages, domain.Passage{
			Chunk: *chunk,
			Score: rank.Cosine(query, chunk.Embedding),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return rank.TopK(passages, k), nil
}

// Count returns the number of stored chunk vectors.
func (s *vectorIndex) Count(ctx context.Context) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// Close is a no-op: the owning Store closes the shared connection.
func (s *vectorIndex) Close() error {
	return nil
}

// dimensions returns the stored embedding width, zero for an empty index.
func (s *vectorIndex) dimensions(ctx context.Context) (int, error) {
	var width int
	err := s.store.db.QueryRowContext(ctx, "SELECT length(embedding) FROM chunks LIMIT 1").Scan(&width)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying dimensions: %w", err)
	}
	return width / 4, nil
}

// scanStoredChunk scans one chunk row, decoding the embedding blob and
// the tags JSON.
func scanStoredChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var tagsJSON string
	var embeddingBlob []byte

	if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index, &chunk.TokenCount,
		&chunk.StartOffset, &chunk.Text, &chunk.Meta.Title, &chunk.Meta.SourceURL,
		&chunk.Meta.Category, &tagsJSON, &embeddingBlob); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

	if err := json.Unmarshal([]byte(tagsJSON), &chunk.Meta.Tags); err != nil {
		return nil, fmt.Errorf("unmarshalling tags: %w", err)
	}

	return &chunk, nil
}
