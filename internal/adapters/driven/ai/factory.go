// Package ai assembles the embedding and generation adapters from
// configuration. Providers are selected by name, credentials fall back
// to the conventional environment variables, and both services come
// back wrapped in rate-limiting decorators.
package ai

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/time/rate"

	ollamaembed "github.com/custodia-labs/ansa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ansa/internal/adapters/driven/embedding/openai"
	anthropicgen "github.com/custodia-labs/ansa/internal/adapters/driven/generation/anthropic"
	ollamagen "github.com/custodia-labs/ansa/internal/adapters/driven/generation/ollama"
	openaigen "github.com/custodia-labs/ansa/internal/adapters/driven/generation/openai"
	"github.com/custodia-labs/ansa/internal/adapters/driven/throttle"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for a connectivity probe.
const pingTimeout = 5 * time.Second

// Supported provider names for the *.provider config keys.
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
)

// Config keys read by Build. An unset provider disables the
// corresponding service without error; a misconfigured one fails the
// build. API keys fall back to OPENAI_API_KEY / ANTHROPIC_API_KEY.
const (
	KeyEmbeddingProvider   = "embedding.provider"
	KeyEmbeddingModel      = "embedding.model"
	KeyEmbeddingBaseURL    = "embedding.base_url"
	KeyEmbeddingAPIKey     = "embedding.api_key"
	KeyEmbeddingDimensions = "embedding.dimensions"

	KeyGenerationProvider = "generation.provider"
	KeyGenerationModel    = "generation.model"
	KeyGenerationBaseURL  = "generation.base_url"
	KeyGenerationAPIKey   = "generation.api_key"

	KeyEmbedRate     = "throttle.embed_rps"
	KeyEmbedBurst    = "throttle.embed_burst"
	KeyGenerateRate  = "throttle.generate_rps"
	KeyGenerateBurst = "throttle.generate_burst"
)

// Result holds the model services Build assembled. Either service may
// be nil when its provider is not configured; Warnings says what that
// disables.
type Result struct {
	Embedding  driven.EmbeddingService
	Generation driven.GenerationService
	Warnings   []string
}

// Close releases both services.
func (r *Result) Close() error {
	var firstErr error
	if r.Embedding != nil {
		if err := r.Embedding.Close(); err != nil {
			firstErr = err
		}
	}
	if r.Generation != nil {
		if err := r.Generation.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Ping probes every configured service, returning the first failure.
// Intended for server startup, where an unreachable provider should
// surface before the first request does.
func (r *Result) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if r.Embedding != nil {
		if err := r.Embedding.Ping(ctx); err != nil {
			return fmt.Errorf("embedding service unreachable: %w", err)
		}
	}
	if r.Generation != nil {
		if err := r.Generation.Ping(ctx); err != nil {
			return fmt.Errorf("generation service unreachable: %w", err)
		}
	}
	return nil
}

// Build assembles the embedding and generation services named in the
// configuration. A provider left unset yields a nil service plus a
// warning; a provider that is set but unusable is an error.
func Build(cfg driven.ConfigStore) (*Result, error) {
	result := &Result{}

	embedder, err := buildEmbedding(cfg)
	if err != nil {
		return nil, err
	}
	if embedder == nil {
		result.Warnings = append(result.Warnings,
			"no embedding provider configured (embedding.provider): indexing and query are disabled")
	} else {
		result.Embedding = throttle.NewEmbedder(embedder, limiter(cfg, KeyEmbedRate, KeyEmbedBurst))
	}

	generator, err := buildGeneration(cfg)
	if err != nil {
		result.Close()
		return nil, err
	}
	if generator == nil {
		result.Warnings = append(result.Warnings,
			"no generation provider configured (generation.provider): query is disabled")
	} else {
		result.Generation = throttle.NewGenerator(generator, limiter(cfg, KeyGenerateRate, KeyGenerateBurst))
	}

	return result, nil
}

// buildEmbedding constructs the configured embedding adapter, or nil
// when no provider is set.
func buildEmbedding(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	provider := cfg.GetString(KeyEmbeddingProvider)

	switch provider {
	case "":
		return nil, nil

	case ProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.GetString(KeyEmbeddingBaseURL),
			Model:      cfg.GetString(KeyEmbeddingModel),
			Dimensions: cfg.GetInt(KeyEmbeddingDimensions),
		}), nil

	case ProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     apiKey(cfg, KeyEmbeddingAPIKey, "OPENAI_API_KEY"),
			BaseURL:    cfg.GetString(KeyEmbeddingBaseURL),
			Model:      cfg.GetString(KeyEmbeddingModel),
			Dimensions: cfg.GetInt(KeyEmbeddingDimensions),
		})
		if err != nil {
			return nil, fmt.Errorf("embedding provider %s: %w", provider, err)
		}
		return svc, nil

	case ProviderAnthropic:
		return nil, fmt.Errorf("embedding provider %s: no embedding API, use %s or %s",
			provider, ProviderOpenAI, ProviderOllama)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}

// buildGeneration constructs the configured generation adapter, or nil
// when no provider is set.
func buildGeneration(cfg driven.ConfigStore) (driven.GenerationService, error) {
	provider := cfg.GetString(KeyGenerationProvider)

	switch provider {
	case "":
		return nil, nil

	case ProviderOllama:
		return ollamagen.NewGenerationService(ollamagen.Config{
			BaseURL: cfg.GetString(KeyGenerationBaseURL),
			Model:   cfg.GetString(KeyGenerationModel),
		}), nil

	case ProviderOpenAI:
		svc, err := openaigen.NewGenerationService(openaigen.Config{
			APIKey:  apiKey(cfg, KeyGenerationAPIKey, "OPENAI_API_KEY"),
			BaseURL: cfg.GetString(KeyGenerationBaseURL),
			Model:   cfg.GetString(KeyGenerationModel),
		})
		if err != nil {
			return nil, fmt.Errorf("generation provider %s: %w", provider, err)
		}
		return svc, nil

	case ProviderAnthropic:
		svc, err := anthropicgen.NewGenerationService(anthropicgen.Config{
			APIKey:  apiKey(cfg, KeyGenerationAPIKey, "ANTHROPIC_API_KEY"),
			BaseURL: cfg.GetString(KeyGenerationBaseURL),
			Model:   cfg.GetString(KeyGenerationModel),
		})
		if err != nil {
			return nil, fmt.Errorf("generation provider %s: %w", provider, err)
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", provider)
	}
}

// apiKey reads a credential from config, falling back to the
// conventional environment variable.
func apiKey(cfg driven.ConfigStore, key, envVar string) string {
	if v := cfg.GetString(key); v != "" {
		return v
	}
	return os.Getenv(envVar)
}

// limiter builds a rate limiter from config, or nil for the wrapper's
// defaults when the rate is unset.
func limiter(cfg driven.ConfigStore, rateKey, burstKey string) *rate.Limiter {
	rps := cfg.GetFloat(rateKey)
	if rps <= 0 {
		return nil
	}
	burst := cfg.GetInt(burstKey)
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
