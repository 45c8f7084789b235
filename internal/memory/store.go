package memory

import "context"

// Store persists learned query patterns so they survive restarts.
// It abstracts the storage layer; the in-process QueryMemory works the
// same with or without one.
type Store interface {
	// SavePattern stores a new pattern with its context embedding.
	SavePattern(ctx context.Context, p Pattern, vector []float32) error

	// SearchSimilarPatterns performs a vector similarity search over the
	// stored pattern contexts and returns the closest matches.
	SearchSimilarPatterns(ctx context.Context, vector []float32, limit int) ([]Pattern, error)

	// Close releases any resources held by the store.
	Close() error
}
