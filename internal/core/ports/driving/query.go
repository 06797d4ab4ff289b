package driving

import (
	"context"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

// QueryService answers natural-language questions from the indexed
// corpus. Results are always grounded: a confident answer cites the
// retrieved documents, and a low-confidence result carries suggestions
// and rephrases instead of a fabricated answer.
type QueryService interface {
	// Query answers a question. topK bounds the retrieval depth;
	// zero or negative uses the configured default.
	//
	// Embedding and generation failures return wrapped
	// domain.ErrEmbedding*/ErrGeneration* errors so callers can tell
	// an upstream outage from a legitimate low-confidence result.
	Query(ctx context.Context, question string, topK int) (domain.QueryResult, error)
}
