package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
)

// Ensure Admin implements the interface.
var _ driving.AdminService = (*Admin)(nil)

// Admin exposes index health and the document registry.
type Admin struct {
	registry driven.RegistryStore
	vectors  driven.VectorIndex
	settings driving.SettingsService
}

// NewAdmin creates a new admin service.
func NewAdmin(registry driven.RegistryStore, vectors driven.VectorIndex, settings driving.SettingsService) *Admin {
	return &Admin{
		registry: registry,
		vectors:  vectors,
		settings: settings,
	}
}

// Status reports index-wide counts, the last successful index time and
// the active retrieval settings.
func (a *Admin) Status(ctx context.Context) (domain.Stats, error) {
	docCount, err := a.registry.Count(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count documents: %w", err)
	}

	vectorCount, err := a.vectors.Count(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count vectors: %w", err)
	}

	lastIndexed, err := a.registry.LastIndexed(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("last indexed: %w", err)
	}

	settings, err := a.settings.Get()
	if err != nil {
		return domain.Stats{}, fmt.Errorf("load retrieval settings: %w", err)
	}

	return domain.Stats{
		DocumentCount: docCount,
		VectorCount:   vectorCount,
		LastIndexed:   lastIndexed,
		Threshold:     settings.Threshold,
		TopK:          settings.TopK,
	}, nil
}

// Documents lists all registered documents with their states.
func (a *Admin) Documents(ctx context.Context) ([]domain.Document, error) {
	docs, err := a.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Document retrieves one document by ID.
func (a *Admin) Document(ctx context.Context, docID string) (*domain.Document, error) {
	doc, err := a.registry.Get(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", docID, err)
	}
	return doc, nil
}
