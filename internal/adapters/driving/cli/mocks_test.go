package cli

import (
	"context"
	"time"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
)

// Shared service mocks for command tests. setupTestServices installs a
// happy-path stack and marks the services ready so the persistent
// pre-run never touches real config or storage; tests needing specific
// behaviour swap the individual package vars afterwards.

// mockQueryService implements driving.QueryService.
type mockQueryService struct {
	result domain.QueryResult
	err    error
}

func (m *mockQueryService) Query(_ context.Context, _ string, _ int) (domain.QueryResult, error) {
	if m.err != nil {
		return domain.QueryResult{}, m.err
	}
	return m.result, nil
}

// mockIndexService implements driving.IndexService. Index echoes a
// receipt derived from the submission so tests can assert the derived
// document ID; failWith flips the receipt to failed.
type mockIndexService struct {
	subs          []domain.Submission
	failWith      string
	err           error
	reindexStatus driving.ReindexStatus
	removed       []string
}

func (m *mockIndexService) Index(_ context.Context, sub domain.Submission) (domain.Receipt, error) {
	if m.err != nil {
		return domain.Receipt{}, m.err
	}
	m.subs = append(m.subs, sub)
	if m.failWith != "" {
		return domain.Receipt{DocID: sub.DocID, Status: domain.StatusFailed, Reason: m.failWith}, nil
	}
	return domain.Receipt{DocID: sub.DocID, Status: domain.StatusIndexed, ChunkCount: 4}, nil
}

func (m *mockIndexService) ReindexAll(_ context.Context) (driving.ReindexStatus, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.reindexStatus, nil
}

func (m *mockIndexService) Remove(_ context.Context, docID string) error {
	m.removed = append(m.removed, docID)
	return m.err
}

// mockAdminService implements driving.AdminService.
type mockAdminService struct {
	stats domain.Stats
	docs  []domain.Document
	err   error
}

func (m *mockAdminService) Status(_ context.Context) (domain.Stats, error) {
	if m.err != nil {
		return domain.Stats{}, m.err
	}
	return m.stats, nil
}

func (m *mockAdminService) Documents(_ context.Context) ([]domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.docs, nil
}

func (m *mockAdminService) Document(_ context.Context, docID string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].ID == docID {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// mockSettingsService implements driving.SettingsService. Update
// stores the new settings so a follow-up Get reflects them.
type mockSettingsService struct {
	settings  domain.RetrievalSettings
	updated   *domain.RetrievalSettings
	updateErr error
}

func (m *mockSettingsService) Get() (domain.RetrievalSettings, error) {
	return m.settings, nil
}

func (m *mockSettingsService) Update(settings domain.RetrievalSettings) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = &settings
	m.settings = settings
	return nil
}

// mockReindexer implements corpusReindexer.
type mockReindexer struct {
	err   error
	calls int
}

func (m *mockReindexer) Reindex(_ context.Context) error {
	m.calls++
	return m.err
}

func setupTestServices() func() {
	oldQuery := queryService
	oldIndex := indexService
	oldAdmin := adminService
	oldSettings := settingsService
	oldReindex := reindexService
	oldReady := servicesReady

	answer := "Run the indexer before your first query."
	queryService = &mockQueryService{
		result: domain.QueryResult{
			Answer: &answer,
			Sources: []domain.Source{
				{
					DocID:     "guides/getting-started",
					Title:     "Getting Started",
					SourceURL: "/corpus/guides/getting-started",
					Score:     0.91,
				},
			},
			TopScore:  0.91,
			Threshold: 0.78,
			Strict:    true,
		},
	}
	indexService = &mockIndexService{}
	adminService = &mockAdminService{
		stats: domain.Stats{
			DocumentCount: 3,
			VectorCount:   42,
			LastIndexed:   time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
			Threshold:     0.78,
			TopK:          5,
		},
		docs: []domain.Document{
			{
				ID:          "guides/getting-started",
				Title:       "Getting Started",
				SourceURL:   "/corpus/guides/getting-started",
				Category:    "guides",
				Tags:        []string{"setup"},
				Status:      domain.StatusIndexed,
				ChunkCount:  4,
				CreatedAt:   time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC),
				LastIndexed: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
			},
			{
				ID:      "guides/broken",
				Title:   "Broken Guide",
				Status:  domain.StatusFailed,
				Failure: "document text is empty",
			},
		},
	}
	settingsService = &mockSettingsService{
		settings: domain.RetrievalSettings{Threshold: 0.78, TopK: 5, RefusalFloor: 0.35},
	}
	reindexService = &mockReindexer{}
	servicesReady = true

	return func() {
		queryService = oldQuery
		indexService = oldIndex
		adminService = oldAdmin
		settingsService = oldSettings
		reindexService = oldReindex
		servicesReady = oldReady
	}
}
