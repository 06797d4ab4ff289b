package httpapi

import (
	"context"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	result       domain.QueryResult
	err          error
	lastQuestion string
	lastTopK     int
}

func (m *mockQueryService) Query(_ context.Context, question string, topK int) (domain.QueryResult, error) {
	m.lastQuestion = question
	m.lastTopK = topK
	return m.result, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	receipt        domain.Receipt
	reindexStatus  driving.ReindexStatus
	err            error
	lastSubmission domain.Submission
}

func (m *mockIndexService) Index(_ context.Context, sub domain.Submission) (domain.Receipt, error) {
	m.lastSubmission = sub
	return m.receipt, m.err
}

func (m *mockIndexService) ReindexAll(_ context.Context) (driving.ReindexStatus, error) {
	return m.reindexStatus, m.err
}

func (m *mockIndexService) Remove(_ context.Context, _ string) error {
	return m.err
}

// mockAdminService is a mock implementation of driving.AdminService.
type mockAdminService struct {
	stats     domain.Stats
	documents []domain.Document
	document  *domain.Document
	err       error
}

func (m *mockAdminService) Status(_ context.Context) (domain.Stats, error) {
	return m.stats, m.err
}

func (m *mockAdminService) Documents(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockAdminService) Document(_ context.Context, _ string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.document == nil {
		return nil, domain.ErrNotFound
	}
	return m.document, nil
}
