package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
	"github.com/custodia-labs/ansa/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService answers questions by chaining retrieval and composition.
// Each query runs the state machine RECEIVED -> EMBEDDING -> SEARCHING
// -> {CONFIDENT_ANSWER | LOW_CONFIDENCE} -> RESPONDED, with no retries
// inside a single query: a failed model call surfaces as an error, not
// as a silently degraded answer.
type QueryService struct {
	retriever *Retriever
	composer  *Composer
}

// NewQueryService creates a new query service.
func NewQueryService(retriever *Retriever, composer *Composer) *QueryService {
	return &QueryService{
		retriever: retriever,
		composer:  composer,
	}
}

// Query answers a question from the indexed corpus.
func (s *QueryService) Query(ctx context.Context, question string, topK int) (domain.QueryResult, error) {
	logger.Section("Query")
	logger.Debug("Question: %q", question)

	retrieval, err := s.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("retrieve: %w", err)
	}

	result, err := s.composer.Compose(ctx, question, retrieval)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("compose: %w", err)
	}

	logger.Info("Responded: answered=%t, top_score=%.4f", result.Answered(), result.TopScore)
	return result, nil
}
