// Package anthropic adapts the Anthropic messages API to the generation
// service port.
package anthropic

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

var _ driven.GenerationService = (*GenerationService)(nil)

// Defaults applied when Config leaves a field zero.
const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second

	// DefaultMaxTokens applies when the caller sets no limit; the
	// messages API rejects requests without max_tokens.
	DefaultMaxTokens = 1024

	// anthropicVersion is the mandatory API version header.
	anthropicVersion = "2023-06-01"
)

// Config carries the client settings. Only APIKey is required.
type Config struct {
	// APIKey authenticates every request. Required.
	APIKey string

	// BaseURL reroutes requests, e.g. through a proxy. Empty means
	// https://api.anthropic.com.
	BaseURL string

	// Model is the generation model (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the per-request timeout (default: 120s). Generation is
	// slow compared to embedding, so the window is generous.
	Timeout time.Duration
}

// GenerationService produces text using the Anthropic API.
type GenerationService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// messagesRequest mirrors the /v1/messages request schema. MaxTokens
// carries no omitempty: the API requires it on every request.
type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature float64           `json:"temperature,omitempty"`
	StopSeqs    []string          `json:"stop_sequences,omitempty"`
}

type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse mirrors the response schema; only the content blocks
// and the error envelope matter here.
type messagesResponse struct {
	Content []contentBlock `json:"content"`
	Error   *apiError      `json:"error,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewGenerationService creates a new Anthropic generation service.
func NewGenerationService(cfg Config) (*GenerationService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
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

	return &GenerationService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Generate produces a text completion from a prompt.
func (s *GenerationService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	payload := messagesRequest{
		Model:       s.model,
		Messages:    []messagesMessage{{Role: "user", Content: prompt}},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		StopSeqs:    opts.StopWords,
	}
	if payload.MaxTokens == 0 {
		payload.MaxTokens = DefaultMaxTokens
	}

	var decoded messagesResponse
	if err := s.post(ctx, "/v1/messages", payload, &decoded); err != nil {
		return "", err
	}

	if len(decoded.Content) == 0 {
		return "", fmt.Errorf("%w: response carried no content", domain.ErrGenerationFailed)
	}
	return joinText(decoded.Content), nil
}

// joinText concatenates the text blocks of a response. The API may
// interleave other block types; those are skipped.
func joinText(blocks []contentBlock) string {
	var b strings.Builder
	for _, block := range blocks {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// post sends one JSON request and decodes the body into out. The API's
// own error message wins over a bare status code; transport failures
// are classified so an exceeded deadline maps to
// domain.ErrGenerationTimeout instead of the generic failure kind.
func (s *GenerationService) post(ctx context.Context, path string, in any, out *messagesResponse) error {
	blob, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(blob))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

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
			return fmt.Errorf("%w: status %d: %s", domain.ErrGenerationFailed, resp.StatusCode, string(body))
		}
		return fmt.Errorf("decode response: %w: %v", domain.ErrGenerationFailed, err)
	}
	if out.Error != nil {
		return fmt.Errorf("%w: %s", domain.ErrGenerationFailed, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", domain.ErrGenerationFailed, resp.StatusCode, string(body))
	}
	return nil
}

// ModelName returns the name of the generation model being used.
func (s *GenerationService) ModelName() string {
	return s.model
}

// Ping verifies the API key against the models endpoint without
// running inference.
func (s *GenerationService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("anthropic: create ping request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("anthropic: ping: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("anthropic: ping returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources. The HTTP client holds none.
func (s *GenerationService) Close() error {
	return nil
}

// classifyErr maps a transport failure onto the domain sentinels so
// callers can tell an exceeded deadline from a broken service.
func classifyErr(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", domain.ErrGenerationTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
}
