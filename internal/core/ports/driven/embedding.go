package driven

import "context"

// EmbeddingService turns text into vectors. It only generates them;
// VectorIndex owns storage and search.
//
// Adapters exist for OpenAI and Ollama. Calls block on network I/O and
// enforce a per-call timeout inside the adapter: an exceeded deadline
// returns domain.ErrEmbeddingTimeout, any other transport failure
// domain.ErrEmbeddingFailed.
type EmbeddingService interface {
	// Embed generates an embedding for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds several texts, preserving input order. Prefer
	// it over looping: some providers accept whole batches per request.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector width the model produces. Every
	// vector in one index generation must share it.
	Dimensions() int

	// ModelName identifies the embedding model.
	ModelName() string

	// Ping verifies the service is reachable without running inference.
	Ping(ctx context.Context) error

	// Close releases any held connections or handles.
	Close() error
}
