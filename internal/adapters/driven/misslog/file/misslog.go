// Package file provides an append-only miss log backed by a JSONL file.
//
// Each line is one JSON-encoded miss record. The format is deliberately
// plain so the log can be inspected with standard line tools and fed
// into corpus curation scripts without a reader in this codebase.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// MissLog appends unanswered questions to misses.jsonl in the data
// directory. Writes are serialised with a mutex so concurrent queries
// never interleave partial lines.
type MissLog struct {
	mu   sync.Mutex
	file *os.File
	path string
}

var _ driven.MissLog = (*MissLog)(nil)

// missRecord is the wire form of one logged miss.
type missRecord struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	TopScore  float64   `json:"top_score"`
	Threshold float64   `json:"threshold"`
	AskedAt   time.Time `json:"asked_at"`
}

// NewMissLog opens (or creates) the miss log in the given data directory.
// If dataDir is empty, it defaults to ~/.ansa/data.
func NewMissLog(dataDir string) (*MissLog, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ansa", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, "misses.jsonl")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening miss log: %w", err)
	}

	return &MissLog{file: file, path: path}, nil
}

// Record appends one miss as a single JSON line. The line is built in
// memory and written with one call so a crash cannot leave a partial
// record followed by a complete one.
func (l *MissLog) Record(_ context.Context, miss domain.Miss) error {
	line, err := json.Marshal(missRecord{
		ID:        miss.ID,
		Question:  miss.Question,
		TopScore:  miss.TopScore,
		Threshold: miss.Threshold,
		AskedAt:   miss.AskedAt,
	})
	if err != nil {
		return fmt.Errorf("marshalling miss record: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("appending miss record: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (l *MissLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Path returns the full path to the JSONL file.
func (l *MissLog) Path() string {
	return l.path
}
