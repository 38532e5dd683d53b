package googleai

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/poiesic/docquery/ai"
)

// Factory implements ai.SessionFactory using Google generative model APIs.
type Factory struct {
	config *ai.Config
	logger *slog.Logger
}

var _ ai.SessionFactory = (*Factory)(nil)

// NewSessionFactory creates a session factory for Google generative models.
// The config is validated before use.
//
// Returns ai.SessionFactory interface (not *Factory) to enforce abstraction
// and prevent coupling to Google-specific implementation details.
func NewSessionFactory(config *ai.Config) (ai.SessionFactory, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Factory{
		config: config,
		logger: slog.Default().With("component", "googleai-factory"),
	}, nil
}

// NewGenerator binds a generation session to the descriptor's model.
func (f *Factory) NewGenerator(ctx context.Context, desc ai.ProviderDescriptor, temperature float64) (ai.Generator, error) {
	f.logger.Debug("binding generation session", "model", desc.ID, "temperature", temperature)

	client, err := googleai.New(ctx,
		googleai.WithAPIKey(f.config.APIKey),
		googleai.WithDefaultModel(desc.ID),
	)
	if err != nil {
		return nil, ai.NewProviderError(desc.ID, ai.Classify(err), err)
	}

	return &Generator{
		client:      client,
		descriptor:  desc,
		temperature: temperature,
		topP:        f.config.TopP,
		topK:        f.config.TopK,
		logger:      f.logger.With("model", desc.ID),
	}, nil
}

// NewEmbedder binds an embedding session to the descriptor's model and
// probes it with a trivial input to confirm the provider responds.
func (f *Factory) NewEmbedder(ctx context.Context, desc ai.ProviderDescriptor) (ai.Embedder, error) {
	f.logger.Debug("binding embedding session", "model", desc.ID)

	client, err := googleai.New(ctx,
		googleai.WithAPIKey(f.config.APIKey),
		googleai.WithDefaultEmbeddingModel(desc.ID),
	)
	if err != nil {
		return nil, ai.NewProviderError(desc.ID, ai.Classify(err), err)
	}

	wrapped, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, ai.NewProviderError(desc.ID, ai.Classify(err), err)
	}

	embedder := &Embedder{
		providerID: desc.ID,
		embedder:   wrapped,
		logger:     f.logger.With("model", desc.ID),
	}

	// Live probe: a rate-limited or misconfigured embedding model should
	// fail resolution here, not halfway through an ingestion batch.
	if _, err := embedder.EmbedText(ctx, "ping"); err != nil {
		return nil, err
	}

	return embedder, nil
}
