// Package rank scores and orders vector search candidates. It is
// shared by the storage adapters so the memory and SQLite indexes rank
// identically.
package rank

import (
	"math"
	"sort"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

// Cosine returns the cosine similarity between two vectors in [-1, 1].
// Mismatched lengths or zero-magnitude vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TopK orders passages by descending score, breaking ties by chunk ID
// ascending so results are deterministic, and truncates to k.
func TopK(passages []domain.Passage, k int) []domain.Passage {
	sort.Slice(passages, func(i, j int) bool {
		if passages[i].Score != passages[j].Score {
			return passages[i].Score > passages[j].Score
		}
		return passages[i].Chunk.ID < passages[j].Chunk.ID
	})
	if k >= 0 && len(passages) > k {
		passages = passages[:k]
	}
	return passages
}
