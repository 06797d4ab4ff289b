// Package throttle provides rate-limited decorators for the model
// service ports. Providers meter requests aggressively; wrapping the
// adapters keeps quota pacing out of the core services, which see the
// same interfaces either way.
package throttle

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driven"
)

// Ensure the decorators implement the ports they wrap.
var (
	_ driven.EmbeddingService  = (*Embedder)(nil)
	_ driven.GenerationService = (*Generator)(nil)
)

// Default pacing. Embedding endpoints tolerate far more traffic than
// generation endpoints, so they get a looser bucket.
const (
	DefaultEmbedRate  = 10.0 // requests per second
	DefaultEmbedBurst = 20

	DefaultGenerateRate  = 2.0 // requests per second
	DefaultGenerateBurst = 4
)

// Embedder paces calls to an EmbeddingService with a token bucket.
type Embedder struct {
	inner  driven.EmbeddingService
	bucket *rate.Limiter
}

// NewEmbedder wraps an embedding service with proactive throttling.
// A nil limiter gets the default pacing.
func NewEmbedder(inner driven.EmbeddingService, limiter *rate.Limiter) *Embedder {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(DefaultEmbedRate), DefaultEmbedBurst)
	}
	return &Embedder{inner: inner, bucket: limiter}
}

// Embed waits for bucket capacity, then delegates.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := waitBucket(ctx, e.bucket, domain.ErrEmbeddingTimeout); err != nil {
		return nil, err
	}
	return e.inner.Embed(ctx, text)
}

// EmbedBatch waits for bucket capacity, then delegates. A batch counts
// as a single request against the bucket: providers bill batch
// endpoints per request, not per input.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := waitBucket(ctx, e.bucket, domain.ErrEmbeddingTimeout); err != nil {
		return nil, err
	}
	return e.inner.EmbedBatch(ctx, texts)
}

// Dimensions returns the wrapped service's embedding size.
func (e *Embedder) Dimensions() int {
	return e.inner.Dimensions()
}

// ModelName returns the wrapped service's model name.
func (e *Embedder) ModelName() string {
	return e.inner.ModelName()
}

// Ping delegates without consuming bucket capacity.
func (e *Embedder) Ping(ctx context.Context) error {
	return e.inner.Ping(ctx)
}

// Close closes the wrapped service.
func (e *Embedder) Close() error {
	return e.inner.Close()
}

// Generator paces calls to a GenerationService with a token bucket.
type Generator struct {
	inner  driven.GenerationService
	bucket *rate.Limiter
}

// NewGenerator wraps a generation service with proactive throttling.
// A nil limiter gets the default pacing.
func NewGenerator(inner driven.GenerationService, limiter *rate.Limiter) *Generator {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Limit(DefaultGenerateRate), DefaultGenerateBurst)
	}
	return &Generator{inner: inner, bucket: limiter}
}

// Generate waits for bucket capacity, then delegates.
func (g *Generator) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := waitBucket(ctx, g.bucket, domain.ErrGenerationTimeout); err != nil {
		return "", err
	}
	return g.inner.Generate(ctx, prompt, opts)
}

// ModelName returns the wrapped service's model name.
func (g *Generator) ModelName() string {
	return g.inner.ModelName()
}

// Ping delegates without consuming bucket capacity.
func (g *Generator) Ping(ctx context.Context) error {
	return g.inner.Ping(ctx)
}

// Close closes the wrapped service.
func (g *Generator) Close() error {
	return g.inner.Close()
}

// waitBucket blocks until the bucket has capacity. A wait cut short by
// the context deadline maps onto the given timeout sentinel; plain
// cancellation passes through untouched.
func waitBucket(ctx context.Context, bucket *rate.Limiter, timeoutErr error) error {
	if err := bucket.Wait(ctx); err != nil {
		if ctx.Err() == context.Canceled {
			return err
		}
		return fmt.Errorf("throttle: %w: %v", timeoutErr, err)
	}
	return nil
}
