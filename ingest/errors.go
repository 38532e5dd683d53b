package ingest

import "errors"

var (
	// ErrExtractionStageRequired is returned when an extraction stage is not provided.
	ErrExtractionStageRequired = errors.New("extraction stage required")

	// ErrUpserterRequired is returned when an upserter is not provided.
	ErrUpserterRequired = errors.New("upserter required")

	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrResolverRequired is returned when a provider resolver is not provided.
	ErrResolverRequired = errors.New("provider resolver required")

	// ErrCatalogRequired is returned when a provider catalog is not provided.
	ErrCatalogRequired = errors.New("provider catalog required")

	// ErrEmbeddingExhausted means every catalogued embedding provider failed
	// while vectorizing a chunk batch.
	ErrEmbeddingExhausted = errors.New("embedding providers exhausted")

	// ErrIndexWriteFailed means chunks were embedded but could not be
	// persisted to the vector index.
	ErrIndexWriteFailed = errors.New("index write failed")

	// ErrNoExtractableText means a document produced no indexable chunks.
	ErrNoExtractableText = errors.New("no extractable text")
)
