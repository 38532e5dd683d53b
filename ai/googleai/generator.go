package googleai

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/poiesic/docquery/ai"
)

// Generator implements ai.Generator over one bound Google generative model.
// Temperature and sampling settings are fixed at binding time.
type Generator struct {
	client      *googleai.GoogleAI
	descriptor  ai.ProviderDescriptor
	temperature float64
	topP        float64
	topK        int
	logger      *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

// Generate produces the completion text for a single prompt.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	g.logger.Debug("generating completion", "promptLength", len(prompt))

	opts := []llms.CallOption{
		llms.WithTemperature(g.temperature),
		llms.WithTopP(g.topP),
		llms.WithTopK(g.topK),
	}
	if g.descriptor.MaxOutputTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.descriptor.MaxOutputTokens))
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, g.client, prompt, opts...)
	if err != nil {
		g.logger.Error("generation call failed", "err", err)
		return "", ai.NewProviderError(g.descriptor.ID, ai.Classify(err), err)
	}

	return text, nil
}
