// Package openai adapts the OpenAI embeddings API to the embedding
// service port.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Defaults applied when Config leaves a field zero.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	// maxBatchInputs caps how many texts go into a single API call;
	// the embeddings endpoint rejects larger batches.
	maxBatchInputs = 2048
)

// modelDimensions maps known embedding models to their native vector width.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config carries the client settings. Only APIKey is required.
type Config struct {
	// APIKey authenticates every request. Required.
	APIKey string

	// BaseURL reroutes requests, e.g. to Azure OpenAI or a compatible
	// server. Empty means https://api.openai.com/v1.
	BaseURL string

	// Model is the embedding model (default: text-embedding-3-small).
	Model string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions shortens the returned vectors. Only the
	// text-embedding-3 family accepts this parameter.
	Dimensions int
}

// EmbeddingService generates embeddings using the OpenAI API.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
}

// embeddingRequest mirrors the embeddings endpoint's request schema.
type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embeddingResponse mirrors the response schema. Vectors decode
// straight into float32, which is the width the index stores.
type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewEmbeddingService validates cfg and returns a ready client.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	dims := cfg.Dimensions
	if dims == 0 {
		if known, ok := modelDimensions[cfg.Model]; ok {
			dims = known
		} else {
			dims = modelDimensions[DefaultModel]
		}
	}

	return &EmbeddingService{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: dims,
	}, nil
}

// Embed generates a vector embedding for one text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts, splitting the
// input into API-sized batches. The result is ordered to match the
// input regardless of the order the API returns entries in.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += maxBatchInputs {
		end := start + maxBatchInputs
		if end > len(texts) {
			end = len(texts)
		}
		if err := s.embedInto(ctx, texts[start:end], out[start:end]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// embedInto embeds one API-sized batch, placing each vector at the slot
// named by its returned index.
func (s *EmbeddingService) embedInto(ctx context.Context, texts []string, out [][]float32) error {
	payload := embeddingRequest{Model: s.model, Input: texts}
	if s.dimensions > 0 && strings.HasPrefix(s.model, "text-embedding-3-") {
		payload.Dimensions = s.dimensions
	}

	var decoded embeddingResponse
	if err := s.post(ctx, "/embeddings", payload, &decoded); err != nil {
		return err
	}

	if len(decoded.Data) != len(texts) {
		return fmt.Errorf("%w: got %d embeddings for %d inputs", domain.ErrEmbeddingFailed, len(decoded.Data), len(texts))
	}
	for _, item := range decoded.Data {
		if item.Index < 0 || item.Index >= len(out) {
			return fmt.Errorf("%w: embedding index %d out of range", domain.ErrEmbeddingFailed, item.Index)
		}
		out[item.Index] = item.Embedding
	}
	return nil
}

// post sends one JSON request and decodes the body into out. An API
// failure surfaces as domain.ErrEmbeddingFailed carrying the server's
// message when it sent one; transport failures are classified so an
// exceeded deadline maps to domain.ErrEmbeddingTimeout instead.
func (s *EmbeddingService) post(ctx context.Context, path string, in any, out *embeddingResponse) error {
	blob, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(blob))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", classifyErr(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", classifyErr(err))
	}

	if err := json.Unmarshal(body, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: status %d: %s", domain.ErrEmbeddingFailed, resp.StatusCode, string(body))
		}
		return fmt.Errorf("decode response: %w: %v", domain.ErrEmbeddingFailed, err)
	}
	if out.Error != nil {
		return fmt.Errorf("%w: %s", domain.ErrEmbeddingFailed, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", domain.ErrEmbeddingFailed, resp.StatusCode, string(body))
	}
	return nil
}

// Dimensions reports the width of vectors the model emits.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName reports which embedding model requests use.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping verifies the API key against the models endpoint without
// running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("openai: ping returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources. The HTTP client holds none.
func (s *EmbeddingService) Close() error {
	return nil
}

// classifyErr maps a transport failure onto the domain sentinels so
// callers can tell an exceeded deadline from a broken service.
func classifyErr(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", domain.ErrEmbeddingTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err)
}
