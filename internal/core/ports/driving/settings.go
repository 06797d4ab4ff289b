package driving

import "github.com/custodia-labs/ansa/internal/core/domain"

// SettingsService manages the runtime-tunable retrieval knobs.
// Threshold and retrieval depth are configuration, not constants:
// operators tune them against their corpus without redeploying.
type SettingsService interface {
	// Get retrieves the current retrieval settings.
	Get() (domain.RetrievalSettings, error)

	// Update validates and persists new retrieval settings.
	Update(settings domain.RetrievalSettings) error
}
