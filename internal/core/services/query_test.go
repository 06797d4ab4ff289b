package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ansa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ansa/internal/core/domain"
)

func setupQueryService(t *testing.T, index *mockVectorIndex, generator *mockGenerator) *QueryService {
	t.Helper()
	settings := NewSettings(memory.NewConfigStore())
	retriever := NewRetriever(&mockEmbedder{}, index, settings)
	composer := NewComposer(generator, &mockPromptStore{}, memory.NewMissLog(), settings)
	return NewQueryService(retriever, composer)
}

func TestQueryService_Query_ConfidentFlow(t *testing.T) {
	index := &mockVectorIndex{passages: []domain.Passage{
		passageWith("guides/backup", 0, "Backup Guide", "https://docs.example.com/backup", "backup steps", 0.91),
	}}
	generator := &mockGenerator{response: "Take a snapshot nightly."}
	service := setupQueryService(t, index, generator)
	ctx := context.Background()

	result, err := service.Query(ctx, "how do I back up?", 0)

	require.NoError(t, err)
	require.True(t, result.Answered())
	assert.Contains(t, *result.Answer, "Take a snapshot nightly.")
	assert.Contains(t, *result.Answer, "Sources:")
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "guides/backup", result.Sources[0].DocID)
}

func TestQueryService_Query_LowConfidenceFlow(t *testing.T) {
	index := &mockVectorIndex{passages: []domain.Passage{
		passageWith("guides/backup", 0, "Backup Guide", "", "backup steps", 0.55),
	}}
	generator := &mockGenerator{response: "1. Alternative phrasing?"}
	service := setupQueryService(t, index, generator)
	ctx := context.Background()

	result, err := service.Query(ctx, "unrelated question", 0)

	require.NoError(t, err)
	assert.False(t, result.Answered())
	assert.Len(t, result.Suggestions, 1)
	assert.Equal(t, []string{"Alternative phrasing?"}, result.Rephrases)
}

func TestQueryService_Query_EmptyQuestion(t *testing.T) {
	service := setupQueryService(t, &mockVectorIndex{}, &mockGenerator{})
	ctx := context.Background()

	_, err := service.Query(ctx, "", 0)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQueryService_Query_GenerationErrorPropagates(t *testing.T) {
	index := &mockVectorIndex{passages: []domain.Passage{
		passageWith("doc-1", 0, "Doc", "", "text", 0.95),
	}}
	generator := &mockGenerator{generateErr: domain.ErrGenerationFailed}
	service := setupQueryService(t, index, generator)
	ctx := context.Background()

	_, err := service.Query(ctx, "question", 0)

	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
}
