package interfaces

import "context"

// EmbeddingService converts text into fixed-dimension, unit-L2-normalized
// vectors. The underlying model is initialized lazily, at most once per
// process; concurrent first callers block until initialization completes.
type EmbeddingService interface {
	// Embed generates a normalized embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in input order.
	// It is semantically equivalent to mapping Embed over the batch and
	// never returns a partial result.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the fixed vector dimension of the active model.
	Dimension() int

	// IsAvailable reports whether the embedding backend is reachable.
	IsAvailable(ctx context.Context) bool
}
