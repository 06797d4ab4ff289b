package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// MissLog is an in-memory implementation of driven.MissLog.
type MissLog struct {
	mu     sync.Mutex
	misses []domain.Miss
}

// NewMissLog creates an empty in-memory miss log.
func NewMissLog() *MissLog {
	return &MissLog{}
}

// Record appends a miss to the log.
func (l *MissLog) Record(ctx context.Context, miss domain.Miss) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.misses = append(l.misses, miss)
	return nil
}

// Misses returns a copy of everything recorded so far.
func (l *MissLog) Misses() []domain.Miss {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Miss(nil), l.misses...)
}

// Close releases the log. It is a no-op for the in-memory log.
func (l *MissLog) Close() error {
	return nil
}

var _ driven.MissLog = (*MissLog)(nil)
