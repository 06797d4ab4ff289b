package corpus

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
)

// mockIndexService implements driving.IndexService for testing,
// recording what the watcher asked it to do.
type mockIndexService struct {
	mu      sync.Mutex
	subs    []domain.Submission
	removed []string
}

func (m *mockIndexService) Index(_ context.Context, sub domain.Submission) (domain.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, sub)
	return domain.Receipt{DocID: sub.DocID, Status: domain.StatusIndexed, ChunkCount: 1}, nil
}

func (m *mockIndexService) ReindexAll(_ context.Context) (driving.ReindexStatus, error) {
	return driving.ReindexStarted, nil
}

func (m *mockIndexService) Remove(_ context.Context, docID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, docID)
	return nil
}

func (m *mockIndexService) indexed() []domain.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Submission(nil), m.subs...)
}

func (m *mockIndexService) removals() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}

func TestWatcher_Classify(t *testing.T) {
	dir := t.TempDir()
	existing := writeFile(t, dir, "note.md", "# Note\n\nbody")
	subdir := filepath.Join(dir, "guides")
	require.NoError(t, os.Mkdir(subdir, 0o755))

	loader := NewLoader(dir)
	watcher := NewWatcher(loader, &mockIndexService{})

	tests := []struct {
		name   string
		event  fsnotify.Event
		wantOp changeOp
		wantID string
		none   bool
	}{
		{
			name:   "write to supported file",
			event:  fsnotify.Event{Name: existing, Op: fsnotify.Write},
			wantOp: opIndex,
			wantID: "note",
		},
		{
			name:   "create supported file",
			event:  fsnotify.Event{Name: existing, Op: fsnotify.Create},
			wantOp: opIndex,
			wantID: "note",
		},
		{
			name:   "remove supported file",
			event:  fsnotify.Event{Name: filepath.Join(dir, "gone.md"), Op: fsnotify.Remove},
			wantOp: opRemove,
			wantID: "gone",
		},
		{
			name:   "rename treated as removal",
			event:  fsnotify.Event{Name: filepath.Join(dir, "gone.md"), Op: fsnotify.Rename},
			wantOp: opRemove,
			wantID: "gone",
		},
		{
			name:  "chmod ignored",
			event: fsnotify.Event{Name: existing, Op: fsnotify.Chmod},
			none:  true,
		},
		{
			name:  "unsupported extension ignored",
			event: fsnotify.Event{Name: filepath.Join(dir, "data.json"), Op: fsnotify.Write},
			none:  true,
		},
		{
			name:  "hidden file ignored",
			event: fsnotify.Event{Name: filepath.Join(dir, ".draft.md"), Op: fsnotify.Write},
			none:  true,
		},
		{
			name:  "vanished file ignored",
			event: fsnotify.Event{Name: filepath.Join(dir, "flash.md"), Op: fsnotify.Write},
			none:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := watcher.classify(tt.event)
			if tt.none {
				assert.Nil(t, ch)
				return
			}
			require.NotNil(t, ch)
			assert.Equal(t, tt.wantOp, ch.op)
			assert.Equal(t, tt.wantID, ch.docID)
		})
	}
}

func TestWatcher_Watch_IndexesOnWrite(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(dir)
	index := &mockIndexService{}
	watcher := NewWatcher(loader, index, WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watcher.Watch(ctx) }()

	// Let the watch registration settle before producing events.
	time.Sleep(100 * time.Millisecond)

	writeFile(t, dir, "note.md", "# Note\n\nSnapshot nightly.")

	require.Eventually(t, func() bool {
		return len(index.indexed()) >= 1
	}, 5*time.Second, 20*time.Millisecond)

	subs := index.indexed()
	assert.Equal(t, "note", subs[0].DocID)
	assert.Equal(t, "Note", subs[0].Title)

	cancel()
	assert.NoError(t, <-done)
}

func TestWatcher_Watch_RemovesOnDelete(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "note.md", "# Note\n\nbody")
	loader := NewLoader(dir)
	index := &mockIndexService{}
	watcher := NewWatcher(loader, index, WithDebounce(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watcher.Watch(ctx) }()

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool {
		removed := index.removals()
		return len(removed) == 1 && removed[0] == "note"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestWatcher_Watch_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(dir)
	index := &mockIndexService{}
	watcher := NewWatcher(loader, index, WithDebounce(150*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watcher.Watch(ctx) }()

	time.Sleep(100 * time.Millisecond)

	// A burst of writes inside the debounce window folds into one pass.
	path := filepath.Join(dir, "note.md")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("revision"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return len(index.indexed()) >= 1
	}, 5*time.Second, 20*time.Millisecond)

	// Settle past the debounce window; no further passes should land.
	time.Sleep(300 * time.Millisecond)
	assert.Len(t, index.indexed(), 1)

	cancel()
	assert.NoError(t, <-done)
}
