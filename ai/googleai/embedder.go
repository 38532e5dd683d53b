package googleai

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"

	"github.com/poiesic/docquery/ai"
)

// Embedder implements ai.Embedder over one bound Google embedding model.
type Embedder struct {
	providerID string
	embedder   embeddings.Embedder
	logger     *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, ai.NewProviderError(e.providerID, ai.Classify(err), err)
	}

	if len(vectors) == 0 {
		e.logger.Warn("embedder returned empty result")
		return []float32{}, nil
	}

	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, ai.NewProviderError(e.providerID, ai.Classify(err), err)
	}

	return vectors, nil
}
