package services

import (
	"context"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// --- Port mocks ---

// mockEmbedder implements driven.EmbeddingService for testing. It
// carries no mutable state so indexer tests may call it from several
// goroutines at once.
type mockEmbedder struct {
	embedding  []float32
	embedErr   error
	batchErr   error
	batchShort bool // drop one embedding to simulate a count mismatch
	dims       int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	n := len(texts)
	if m.batchShort && n > 0 {
		n--
	}
	result := make([][]float32, n)
	for i := range result {
		result[i] = m.vector()
	}
	return result, nil
}

func (m *mockEmbedder) vector() []float32 {
	if m.embedding != nil {
		return m.embedding
	}
	vec := make([]float32, m.Dimensions())
	vec[0] = 1
	return vec
}

func (m *mockEmbedder) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 3
}

func (m *mockEmbedder) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbedder) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbedder) Close() error {
	return nil
}

// mockGenerator implements driven.GenerationService for testing,
// recording every prompt it is given.
type mockGenerator struct {
	response    string
	generateErr error
	prompts     []string
	opts        []driven.GenerateOptions
}

func (m *mockGenerator) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	if m.generateErr != nil {
		return "", m.generateErr
	}
	if m.response != "" {
		return m.response, nil
	}
	return "generated answer", nil
}

func (m *mockGenerator) ModelName() string {
	return "mock-generate"
}

func (m *mockGenerator) Ping(_ context.Context) error {
	return nil
}

func (m *mockGenerator) Close() error {
	return nil
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	templates map[string]string
	loadErr   error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.loadErr != nil {
		return "", m.loadErr
	}
	if tpl, ok := m.templates[name]; ok {
		return tpl, nil
	}
	switch name {
	case driven.PromptAnswer:
		return "Context:\n%s\n\nQuestion: %s", nil
	case driven.PromptRephrase:
		return "Offer %d rephrasings of: %s", nil
	case driven.PromptRefusal:
		return "I can only help with questions about the indexed documentation.", nil
	}
	return "", domain.ErrNotFound
}

func (m *mockPromptStore) Reload() {}

// mockVectorIndex implements driven.VectorIndex for testing, recording
// the last search it served.
type mockVectorIndex struct {
	passages  []domain.Passage
	searchErr error
	lastQuery []float32
	lastK     int
}

func (m *mockVectorIndex) Upsert(_ context.Context, _ []domain.Chunk) error {
	return nil
}

func (m *mockVectorIndex) DeleteByDocument(_ context.Context, _ string) error {
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, query []float32, k int) ([]domain.Passage, error) {
	m.lastQuery = query
	m.lastK = k
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k >= 0 && k < len(m.passages) {
		return m.passages[:k], nil
	}
	return m.passages, nil
}

func (m *mockVectorIndex) Count(_ context.Context) (int, error) {
	return len(m.passages), nil
}

func (m *mockVectorIndex) Close() error {
	return nil
}

// mockCorpus implements driven.CorpusSource for testing.
type mockCorpus struct {
	root        string
	subs        []domain.Submission
	loadAllFunc func(ctx context.Context) ([]domain.Submission, error)
}

func (m *mockCorpus) Root() string {
	if m.root != "" {
		return m.root
	}
	return "/corpus"
}

func (m *mockCorpus) LoadAll(ctx context.Context) ([]domain.Submission, error) {
	if m.loadAllFunc != nil {
		return m.loadAllFunc(ctx)
	}
	return m.subs, nil
}

func (m *mockCorpus) LoadFile(_ context.Context, path string) (domain.Submission, error) {
	for _, sub := range m.subs {
		if sub.DocID == m.DocID(path) {
			return sub, nil
		}
	}
	return domain.Submission{}, domain.ErrNotFound
}

func (m *mockCorpus) DocID(path string) string {
	return path
}

// failingMissLog implements driven.MissLog for testing write failures.
type failingMissLog struct {
	err error
}

func (l *failingMissLog) Record(_ context.Context, _ domain.Miss) error {
	return l.err
}

func (l *failingMissLog) Close() error {
	return nil
}

// --- Builders ---

// passageWith builds a scored passage with attribution metadata.
func passageWith(docID string, index int, title, url, text string, score float64) domain.Passage {
	return domain.Passage{
		Chunk: domain.Chunk{
			ID:         domain.ChunkID(docID, index),
			DocumentID: docID,
			Text:       text,
			Index:      index,
			Meta:       domain.ChunkMeta{Title: title, SourceURL: url},
		},
		Score: score,
	}
}
