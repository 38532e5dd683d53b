package ai

import "context"

// Generator produces text from a prompt using a bound generation session.
// Temperature and sampling settings are fixed at session construction.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate produces the completion text for a single prompt.
	// Returns an error if the generation call fails.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// SessionFactory constructs provider-bound handles for the resolver.
// A factory binds one catalogued provider descriptor at a time; the resolver
// owns the decision of which descriptor to try next.
//
// Constructed handles must be fully usable on return. Factories should
// validate the binding eagerly (for embedders, a lightweight live probe)
// so that the resolver can fail over before the caller holds a dead handle.
// On error, the factory must release any partially-constructed resources.
type SessionFactory interface {
	// NewGenerator binds a generation session to the descriptor.
	// The temperature is clamped to the descriptor's range before use.
	NewGenerator(ctx context.Context, desc ProviderDescriptor, temperature float64) (Generator, error)

	// NewEmbedder binds an embedding session to the descriptor.
	NewEmbedder(ctx context.Context, desc ProviderDescriptor) (Embedder, error)
}
