package driven

import "context"

// GenerationService produces text from a prompt. It is only ever invoked
// with retrieved passages as grounding context (answer composition) or
// for explicitly-labelled rephrase suggestions, never to answer from the
// model's general knowledge.
//
// Adapters exist for the OpenAI chat completions API, the Anthropic
// messages API, and local models via Ollama.
//
// Calls block on network I/O and carry a per-call timeout inside the
// adapter. On deadline the adapter returns domain.ErrGenerationTimeout;
// other transport failures map to domain.ErrGenerationFailed.
type GenerationService interface {
	// Generate produces a text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close frees whatever the implementation holds open.
	Close() error
}

// GenerateOptions tunes a single Generate call.
type GenerateOptions struct {
	// MaxTokens caps the completion length. Zero lets the adapter pick
	// its own limit.
	MaxTokens int

	// Temperature steers sampling: zero keeps output deterministic,
	// higher values loosen it.
	Temperature float64

	// StopWords end the completion early when the model emits one.
	StopWords []string
}
