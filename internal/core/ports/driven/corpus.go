package driven

import (
	"context"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

// CorpusSource reads indexable documents from a local corpus directory.
// Document IDs derive from paths relative to the root, so the same file
// always resolves to the same document across runs.
type CorpusSource interface {
	// Root returns the corpus root directory.
	Root() string

	// LoadAll reads every corpus file under the root, in sorted path
	// order. Unreadable files are skipped with a logged warning rather
	// than aborting the walk.
	LoadAll(ctx context.Context) ([]domain.Submission, error)

	// LoadFile reads a single corpus file into a submission.
	LoadFile(ctx context.Context, path string) (domain.Submission, error)

	// DocID derives the stable document ID for a corpus file path.
	DocID(path string) string
}
