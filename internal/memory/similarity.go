package memory

import "context"

// SimilarityIndex is the optional semantic-lookup capability behind the
// memory store. Absence is modeled with [NoopIndex] rather than feature
// probing; every operation on it must degrade to empty results.
type SimilarityIndex interface {
	// Index adds one document under the given id with searchable metadata.
	Index(ctx context.Context, doc, id string, metadata map[string]string) error
	// Query returns up to n documents ordered by similarity to text.
	Query(ctx context.Context, text string, n int) ([]string, error)
}

// NoopIndex is the null-object SimilarityIndex used when no semantic backend
// is configured.
type NoopIndex struct{}

func (NoopIndex) Index(context.Context, string, string, map[string]string) error { return nil }

func (NoopIndex) Query(context.Context, string, int) ([]string, error) { return nil, nil }
