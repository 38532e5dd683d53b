package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

const (
	// DefaultTopK is how many retrieved chunks are kept as answer context.
	DefaultTopK = 5
	// DefaultFetchK is how many candidates are fetched from the index
	// before the top ones are retained.
	DefaultFetchK = 10
)

// Request is one question against the indexed documents.
type Request struct {
	Question string
	// ProviderID is the preferred generation provider. Optional; when the
	// provider is unavailable the executor falls back through the catalog.
	ProviderID  string
	Temperature float64
}

// Answer is the grounded reply to a Request.
type Answer struct {
	Text string
	// ProviderID identifies the generation provider that produced the text.
	ProviderID string
	// UsedFallback is true when a provider other than the requested (or
	// default) one produced the answer.
	UsedFallback bool
	// Sources lists the distinct documents the context was drawn from,
	// in first-retrieved order.
	Sources []string
	// Matches is the retained context, ranked by similarity.
	Matches []*core.ChunkMatch
}

// Executor answers questions from the vector index, grounding every reply
// in retrieved chunk text.
type Executor struct {
	index    storage.Index
	resolver *ai.Resolver
	topK     int
	fetchK   int
	logger   *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor) error

// WithTopK sets how many retrieved chunks are kept as context.
// Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(e *Executor) error {
		if k < 1 {
			return fmt.Errorf("topK must be positive, got %d", k)
		}
		e.topK = k
		return nil
	}
}

// WithFetchK sets how many candidates are fetched from the index.
// Default is DefaultFetchK.
func WithFetchK(k int) Option {
	return func(e *Executor) error {
		if k < 1 {
			return fmt.Errorf("fetchK must be positive, got %d", k)
		}
		e.fetchK = k
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewExecutor creates a query executor over the index and providers.
func NewExecutor(index storage.Index, resolver *ai.Resolver, opts ...Option) (*Executor, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if resolver == nil {
		return nil, ErrResolverRequired
	}

	e := &Executor{
		index:    index,
		resolver: resolver,
		topK:     DefaultTopK,
		fetchK:   DefaultFetchK,
		logger:   slog.Default().With("component", "query"),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if e.fetchK < e.topK {
		e.fetchK = e.topK
	}

	return e, nil
}

// Ask answers the question from indexed document content.
func (e *Executor) Ask(ctx context.Context, req *Request) (*Answer, error) {
	return e.AskWithMonitor(ctx, req, nil)
}

// AskWithMonitor answers the question with monitoring callbacks at each
// stage of the process.
//
// The index must be populated; an absent or empty index yields
// ErrIndexUnavailable rather than an answer hallucinated from nothing.
// The question is embedded, the fetchK nearest chunks are retrieved and
// the topK best retained, and a generation provider produces the answer
// from a prompt that forbids using knowledge outside that context.
func (e *Executor) AskWithMonitor(ctx context.Context, req *Request, monitor QueryMonitor) (*Answer, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if req == nil || strings.TrimSpace(req.Question) == "" {
		return nil, ErrEmptyQuestion
	}

	monitor.Start(req.Question)

	state, err := e.index.State(ctx)
	if err != nil {
		return nil, err
	}
	if state != storage.IndexPopulated {
		e.logger.Warn("query against unusable index", "state", state.String())
		return nil, fmt.Errorf("%w: index is %s", ErrIndexUnavailable, state)
	}

	// Embed the question
	embRes, err := e.resolver.Resolve(ctx, ai.ResolutionRequest{Kind: ai.KindEmbedding})
	if err != nil {
		return nil, err
	}
	monitor.AfterQueryEmbedding(embRes.ProviderID)

	vector, err := embRes.Embedder.EmbedText(ctx, req.Question)
	if err != nil {
		e.logger.Error("error embedding question", "provider", embRes.ProviderID, "err", err)
		return nil, err
	}

	// Retrieve and retain context
	matches, err := e.index.Query(ctx, vector, e.fetchK)
	if err != nil {
		e.logger.Error("error querying index", "err", err)
		return nil, err
	}
	if len(matches) > e.topK {
		matches = matches[:e.topK]
	}
	monitor.AfterRetrieval(matches)

	prompt := buildPrompt(req.Question, matches)
	monitor.AfterContextAssembly(prompt)

	// Generate the answer
	genRes, err := e.resolver.Resolve(ctx, ai.ResolutionRequest{
		ProviderID:  req.ProviderID,
		Kind:        ai.KindGeneration,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}

	text, err := genRes.Generator.Generate(ctx, prompt)
	if err != nil {
		e.logger.Error("error generating answer", "provider", genRes.ProviderID, "err", err)
		return nil, err
	}

	answer := &Answer{
		Text:         text,
		ProviderID:   genRes.ProviderID,
		UsedFallback: genRes.UsedFallback,
		Sources:      distinctSources(matches),
		Matches:      matches,
	}

	e.logger.Info("question answered",
		"provider", answer.ProviderID,
		"fallback", answer.UsedFallback,
		"context_chunks", len(matches),
		"sources", len(answer.Sources))

	monitor.Finish(answer)
	return answer, nil
}

// distinctSources lists source ids in first-retrieved order without duplicates.
func distinctSources(matches []*core.ChunkMatch) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, match := range matches {
		if seen[match.Chunk.SourceID] {
			continue
		}
		seen[match.Chunk.SourceID] = true
		sources = append(sources, match.Chunk.SourceID)
	}
	return sources
}
