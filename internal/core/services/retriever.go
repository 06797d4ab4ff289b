package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
	"github.com/custodia-labs/ansa/internal/logger"
)

// Retriever embeds a question, searches the vector index and applies
// the confidence threshold policy. It decides between the confident and
// low-confidence paths; composing the response is the Composer's job.
type Retriever struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	settings driving.SettingsService
}

// NewRetriever creates a new retriever.
func NewRetriever(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	settings driving.SettingsService,
) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		settings: settings,
	}
}

// Retrieve finds the passages most similar to the question. topK bounds
// the search depth; zero or negative uses the configured default.
//
// Embedding failures propagate to the caller wrapped around their
// domain sentinel; they are never converted into an empty retrieval.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) (domain.Retrieval, error) {
	logger.Section("Retrieval")

	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Retrieval{}, fmt.Errorf("retrieve: %w", domain.ErrInvalidInput)
	}

	settings, err := r.settings.Get()
	if err != nil {
		return domain.Retrieval{}, fmt.Errorf("load retrieval settings: %w", err)
	}
	if topK <= 0 {
		topK = settings.TopK
	}
	logger.Debug("Question: %q, top_k: %d, threshold: %.2f", question, topK, settings.Threshold)

	embedding, err := r.embedder.Embed(ctx, question)
	if err != nil {
		logger.Warn("Question embedding failed: %v", err)
		return domain.Retrieval{}, fmt.Errorf("embed question: %w", err)
	}
	logger.Debug("Question embedding: %d dimensions", len(embedding))

	passages, err := r.index.Search(ctx, embedding, topK)
	if err != nil {
		logger.Warn("Vector search failed: %v", err)
		return domain.Retrieval{}, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Retrieved %d passages", len(passages))

	// A small corpus may return fewer than topK passages; zero passages
	// is itself a low-confidence outcome, not an error.
	topScore := domain.MinScore
	if len(passages) > 0 {
		topScore = passages[0].Score
	}

	// The boundary is inclusive: a top score exactly at the threshold
	// is confident.
	confident := topScore >= settings.Threshold
	logger.Info("Top score %.4f against threshold %.2f: confident=%t", topScore, settings.Threshold, confident)

	return domain.Retrieval{
		Passages:  passages,
		TopScore:  topScore,
		Threshold: settings.Threshold,
		Confident: confident,
	}, nil
}
