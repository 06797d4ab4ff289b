package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// registryStore implements driven.RegistryStore.
type registryStore struct {
	store *Store
}

var _ driven.RegistryStore = (*registryStore)(nil)

// MarkPending records a document as awaiting indexing. Metadata from the
// submission replaces whatever was stored before; the chunk count and last
// indexed time from a previous successful pass are preserved.
func (s *registryStore) MarkPending(ctx context.Context, sub domain.Submission) error {
	tagsJSON, err := json.Marshal(sub.Tags)
	if err != nil {
		return fmt.Errorf("marshalling tags: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, source_url, category, tags, status, failure, chunk_count, created_at, last_indexed)
		VALUES (?, ?, ?, ?, ?, ?, '', 0, ?, NULL)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			source_url = excluded.source_url,
			category = excluded.category,
			tags = excluded.tags,
			status = excluded.status,
			failure = ''
	`, sub.DocID, sub.Title, sub.SourceURL, sub.Category, string(tagsJSON),
		string(domain.StatusPending), time.Now().UTC())

	if err != nil {
		return fmt.Errorf("marking pending: %w", err)
	}
	return nil
}

// MarkIndexed transitions a document to indexed.
func (s *registryStore) MarkIndexed(ctx context.Context, docID string, chunkCount int) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents
		SET status = ?, chunk_count = ?, failure = '', last_indexed = ?
		WHERE id = ?
	`, string(domain.StatusIndexed), chunkCount, time.Now().UTC(), docID)
	if err != nil {
		return fmt.Errorf("marking indexed: %w", err)
	}
	return oneRowOr(res, fmt.Errorf("mark indexed %q: %w", docID, domain.ErrNotFound))
}

// MarkFailed transitions a document to failed with a reason. The chunk
// count and last indexed time of a previous successful pass survive.
func (s *registryStore) MarkFailed(ctx context.Context, docID, reason string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents
		SET status = ?, failure = ?
		WHERE id = ?
	`, string(domain.StatusFailed), reason, docID)
	if err != nil {
		return fmt.Errorf("marking failed: %w", err)
	}
	return oneRowOr(res, fmt.Errorf("mark failed %q: %w", docID, domain.ErrNotFound))
}

// Get returns a document by ID.
func (s *registryStore) Get(ctx context.Context, docID string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, source_url, category, tags, status, failure, chunk_count, created_at, last_indexed
		FROM documents WHERE id = ?
	`, docID)

	doc, err := scanRegistryDocument(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get document %q: %w", docID, domain.ErrNotFound)
	}
	return doc, err
}

// List returns all documents ordered by ID.
func (s *registryStore) List(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, title, source_url, category, tags, status, failure, chunk_count, created_at, last_indexed
		FROM documents ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanRegistryDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// Delete removes a document from the registry.
func (s *registryStore) Delete(ctx context.Context, docID string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", docID)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return oneRowOr(res, fmt.Errorf("delete document %q: %w", docID, domain.ErrNotFound))
}

// Count returns the number of registered documents.
func (s *registryStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// LastIndexed returns the most recent successful index time across all
// documents, or the zero time when nothing has been indexed yet. The column
// is selected directly rather than through MAX() so the driver keeps the
// declared DATETIME type and parses the value for us.
func (s *registryStore) LastIndexed(ctx context.Context) (time.Time, error) {
	var last time.Time
	err := s.store.db.QueryRowContext(ctx, `
		SELECT last_indexed FROM documents
		WHERE last_indexed IS NOT NULL
		ORDER BY last_indexed DESC
		LIMIT 1
	`).Scan(&last)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("querying last indexed: %w", err)
	}
	return last, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRegistryDocument scans one registry row. sql.ErrNoRows passes
// through untouched so callers can attach the document ID.
func scanRegistryDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var tagsJSON, status string
	var lastIndexed sql.NullTime

	if err := row.Scan(&doc.ID, &doc.Title, &doc.SourceURL, &doc.Category, &tagsJSON,
		&status, &doc.Failure, &doc.ChunkCount, &doc.CreatedAt, &lastIndexed); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	if lastIndexed.Valid {
		doc.LastIndexed = lastIndexed.Time
	}

	if err := json.Unmarshal([]byte(tagsJSON), &doc.Tags); err != nil {
		return nil, fmt.Errorf("unmarshalling tags: %w", err)
	}

	return &doc, nil
}

// oneRowOr returns notFound when the statement touched no rows.
func oneRowOr(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
