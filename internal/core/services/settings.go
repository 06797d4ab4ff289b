package services

import (
	"fmt"
	"os"
	"strconv"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
	"github.com/custodia-labs/ansa/internal/logger"
)

// Ensure Settings implements the interface.
var _ driving.SettingsService = (*Settings)(nil)

// Config keys for retrieval settings storage.
const (
	keyThreshold    = "retrieval.threshold"
	keyTopK         = "retrieval.top_k"
	keyRefusalFloor = "retrieval.refusal_floor"
)

// EnvThreshold overrides the configured similarity threshold, taking
// precedence over the config file. Deployments tune the threshold per
// corpus without touching configuration.
const EnvThreshold = "ANSA_SIM_THRESHOLD"

// Retrieval setting defaults.
const (
	DefaultThreshold    = 0.78
	DefaultTopK         = 5
	DefaultRefusalFloor = 0.35
)

// Settings manages the runtime-tunable retrieval knobs on top of the
// config store.
type Settings struct {
	config driven.ConfigStore
}

// NewSettings creates a new settings service.
func NewSettings(config driven.ConfigStore) *Settings {
	return &Settings{config: config}
}

// Get retrieves the current retrieval settings, applying defaults for
// unset keys and the environment override for the threshold.
func (s *Settings) Get() (domain.RetrievalSettings, error) {
	settings := domain.RetrievalSettings{
		Threshold:    DefaultThreshold,
		TopK:         DefaultTopK,
		RefusalFloor: DefaultRefusalFloor,
	}

	if _, ok := s.config.Get(keyThreshold); ok {
		settings.Threshold = s.config.GetFloat(keyThreshold)
	}
	if _, ok := s.config.Get(keyTopK); ok {
		settings.TopK = s.config.GetInt(keyTopK)
	}
	if _, ok := s.config.Get(keyRefusalFloor); ok {
		settings.RefusalFloor = s.config.GetFloat(keyRefusalFloor)
	}

	if raw := os.Getenv(EnvThreshold); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			logger.Warn("Ignoring %s=%q: %v", EnvThreshold, raw, err)
		} else {
			settings.Threshold = value
		}
	}

	if err := settings.Validate(); err != nil {
		return domain.RetrievalSettings{}, fmt.Errorf("retrieval settings: %w", err)
	}
	return settings, nil
}

// Update validates and persists new retrieval settings.
func (s *Settings) Update(settings domain.RetrievalSettings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}

	if err := s.config.Set(keyThreshold, settings.Threshold); err != nil {
		return fmt.Errorf("save threshold: %w", err)
	}
	if err := s.config.Set(keyTopK, settings.TopK); err != nil {
		return fmt.Errorf("save top_k: %w", err)
	}
	if err := s.config.Set(keyRefusalFloor, settings.RefusalFloor); err != nil {
		return fmt.Errorf("save refusal_floor: %w", err)
	}
	return nil
}
