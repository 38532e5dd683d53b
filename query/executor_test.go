package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/ai/mock"
	"github.com/poiesic/docquery/core"
	storagebadger "github.com/poiesic/docquery/storage/badger"
)

func testCatalog(t *testing.T) *ai.Catalog {
	t.Helper()
	catalog, err := ai.NewCatalog(
		ai.ProviderDescriptor{ID: "gen-1", Priority: 1, Kind: ai.KindGeneration, TemperatureMax: 2.0},
		ai.ProviderDescriptor{ID: "gen-2", Priority: 2, Kind: ai.KindGeneration, TemperatureMax: 1.0},
		ai.ProviderDescriptor{ID: "gen-3", Priority: 3, Kind: ai.KindGeneration, TemperatureMax: 2.0},
		ai.ProviderDescriptor{ID: "emb-1", Priority: 1, Kind: ai.KindEmbedding},
		ai.ProviderDescriptor{ID: "emb-2", Priority: 2, Kind: ai.KindEmbedding},
	)
	require.NoError(t, err)
	return catalog
}

func testResolver(t *testing.T, factory ai.SessionFactory) *ai.Resolver {
	t.Helper()
	resolver, err := ai.NewResolver(testCatalog(t), factory, ai.WithBackoff(ai.BackoffPolicy{
		RateLimitBase: time.Millisecond,
		RateLimitCap:  time.Millisecond,
		TransientBase: time.Millisecond,
		TransientCap:  time.Millisecond,
	}))
	require.NoError(t, err)
	return resolver
}

// seededIndex creates a populated in-memory index with chunks spread
// across the given sources.
func seededIndex(t *testing.T, chunksPerSource int, sources ...string) *storagebadger.Index {
	t.Helper()
	index, err := storagebadger.NewMemoryIndex()
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	var chunks []*core.Chunk
	for _, source := range sources {
		for i := 0; i < chunksPerSource; i++ {
			text := fmt.Sprintf("%s chunk %d content", source, i)
			chunks = append(chunks, &core.Chunk{
				SourceID:   source,
				PageNumber: 1,
				ChunkIndex: i,
				Text:       text,
				Vector:     mock.DeterministicVector(text, 64),
			})
		}
	}
	require.NoError(t, index.Create(context.Background(), chunks...))
	return index
}

func TestNewExecutor_Validation(t *testing.T) {
	index, err := storagebadger.NewMemoryIndex()
	require.NoError(t, err)
	defer index.Close()
	resolver := testResolver(t, mock.NewSessionFactory())

	_, err = NewExecutor(nil, resolver)
	assert.ErrorIs(t, err, ErrIndexRequired)

	_, err = NewExecutor(index, nil)
	assert.ErrorIs(t, err, ErrResolverRequired)

	_, err = NewExecutor(index, resolver, WithTopK(0))
	assert.Error(t, err)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	executor, err := NewExecutor(seededIndex(t, 1, "a.pdf"), testResolver(t, mock.NewSessionFactory()))
	require.NoError(t, err)

	_, err = executor.Ask(context.Background(), &Request{Question: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	_, err = executor.Ask(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestAsk_UnpopulatedIndex(t *testing.T) {
	index, err := storagebadger.NewMemoryIndex()
	require.NoError(t, err)
	defer index.Close()

	executor, err := NewExecutor(index, testResolver(t, mock.NewSessionFactory()))
	require.NoError(t, err)

	_, err = executor.Ask(context.Background(), &Request{Question: "what is in the docs?"})
	assert.ErrorIs(t, err, ErrIndexUnavailable)
}

func TestAsk_AnswersFromContext(t *testing.T) {
	generator := mock.NewGenerator("gen-1")
	factory := mock.NewSessionFactory()
	factory.NewGeneratorFunc = func(ctx context.Context, desc ai.ProviderDescriptor, temperature float64) (ai.Generator, error) {
		return generator, nil
	}

	executor, err := NewExecutor(seededIndex(t, 4, "report.pdf", "manual.pdf"), testResolver(t, factory))
	require.NoError(t, err)

	answer, err := executor.Ask(context.Background(), &Request{Question: "report chunk 0 content"})
	require.NoError(t, err)

	assert.Equal(t, "mock answer from gen-1", answer.Text)
	assert.Equal(t, "gen-1", answer.ProviderID)
	assert.False(t, answer.UsedFallback)
	assert.NotEmpty(t, answer.Sources)
	assert.LessOrEqual(t, len(answer.Matches), DefaultTopK)

	prompts := generator.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "report chunk 0 content")
	assert.Contains(t, prompts[0], "Use ONLY the information provided in the context below")
	for _, match := range answer.Matches {
		assert.Contains(t, prompts[0], match.Chunk.Text)
	}
}

func TestAsk_RetainsTopKOfFetchK(t *testing.T) {
	// 12 chunks indexed; 10 fetched, 5 retained.
	executor, err := NewExecutor(seededIndex(t, 4, "a.pdf", "b.pdf", "c.pdf"), testResolver(t, mock.NewSessionFactory()))
	require.NoError(t, err)

	answer, err := executor.Ask(context.Background(), &Request{Question: "anything"})
	require.NoError(t, err)
	assert.Len(t, answer.Matches, DefaultTopK)
}

func TestAsk_SourcesAreDistinctFirstSeen(t *testing.T) {
	executor, err := NewExecutor(seededIndex(t, 6, "solo.pdf"), testResolver(t, mock.NewSessionFactory()))
	require.NoError(t, err)

	answer, err := executor.Ask(context.Background(), &Request{Question: "anything"})
	require.NoError(t, err)
	assert.Equal(t, []string{"solo.pdf"}, answer.Sources)
}

func TestAsk_HonorsRequestedProvider(t *testing.T) {
	executor, err := NewExecutor(seededIndex(t, 2, "a.pdf"), testResolver(t, mock.NewSessionFactory()))
	require.NoError(t, err)

	answer, err := executor.Ask(context.Background(), &Request{
		Question:   "anything",
		ProviderID: "gen-2",
	})
	require.NoError(t, err)
	assert.Equal(t, "gen-2", answer.ProviderID)
	assert.False(t, answer.UsedFallback, "the requested provider served the request")
}

func TestAsk_FallsBackWhenRequestedProviderFails(t *testing.T) {
	factory := mock.NewSessionFactory()
	factory.Fail["gen-2"] = ai.NewProviderError("gen-2", ai.KindFatal, errors.New("401 invalid api key"))

	executor, err := NewExecutor(seededIndex(t, 2, "a.pdf"), testResolver(t, factory))
	require.NoError(t, err)

	answer, err := executor.Ask(context.Background(), &Request{
		Question:   "anything",
		ProviderID: "gen-2",
	})
	require.NoError(t, err)
	assert.Equal(t, "gen-3", answer.ProviderID, "rotation continues after the requested provider")
	assert.True(t, answer.UsedFallback)
}

func TestAsk_TemperatureClampedToProviderRange(t *testing.T) {
	var seenTemperature float64
	factory := mock.NewSessionFactory()
	factory.NewGeneratorFunc = func(ctx context.Context, desc ai.ProviderDescriptor, temperature float64) (ai.Generator, error) {
		seenTemperature = temperature
		return mock.NewGenerator(desc.ID), nil
	}

	executor, err := NewExecutor(seededIndex(t, 2, "a.pdf"), testResolver(t, factory))
	require.NoError(t, err)

	// gen-2 caps temperature at 1.0
	_, err = executor.Ask(context.Background(), &Request{
		Question:    "anything",
		ProviderID:  "gen-2",
		Temperature: 7.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, seenTemperature)
}

// recordingMonitor captures every callback.
type recordingMonitor struct {
	started   string
	embedded  string
	retrieved int
	prompt    string
	finished  *Answer
}

func (r *recordingMonitor) Start(question string)                  { r.started = question }
func (r *recordingMonitor) AfterQueryEmbedding(providerID string)  { r.embedded = providerID }
func (r *recordingMonitor) AfterRetrieval(m []*core.ChunkMatch)    { r.retrieved = len(m) }
func (r *recordingMonitor) AfterContextAssembly(prompt string)     { r.prompt = prompt }
func (r *recordingMonitor) Finish(answer *Answer)                  { r.finished = answer }

func TestAskWithMonitor_CallbacksFire(t *testing.T) {
	executor, err := NewExecutor(seededIndex(t, 3, "a.pdf"), testResolver(t, mock.NewSessionFactory()))
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	answer, err := executor.AskWithMonitor(context.Background(), &Request{Question: "what now?"}, monitor)
	require.NoError(t, err)

	assert.Equal(t, "what now?", monitor.started)
	assert.Equal(t, "emb-1", monitor.embedded)
	assert.Equal(t, len(answer.Matches), monitor.retrieved)
	assert.True(t, strings.Contains(monitor.prompt, "what now?"))
	assert.Same(t, answer, monitor.finished)
}

func TestAsk_EmbeddingProvidersExhausted(t *testing.T) {
	factory := mock.NewSessionFactory()
	factory.Fail["emb-1"] = errors.New("503 unavailable")
	factory.Fail["emb-2"] = errors.New("503 unavailable")

	executor, err := NewExecutor(seededIndex(t, 2, "a.pdf"), testResolver(t, factory))
	require.NoError(t, err)

	_, err = executor.Ask(context.Background(), &Request{Question: "anything"})
	assert.ErrorIs(t, err, ai.ErrProvidersExhausted)
}
