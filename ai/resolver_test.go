package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator is a trivially successful generator for binding tests.
type stubGenerator struct {
	providerID  string
	temperature float64
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "answer from " + g.providerID, nil
}

// stubEmbedder is a trivially successful embedder for binding tests.
type stubEmbedder struct{ providerID string }

func (e *stubEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (e *stubEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

// scriptedFactory fails providers according to a script and records the
// order in which the resolver attempted them.
type scriptedFactory struct {
	failures     map[string]error // provider id -> error to return (nil = success)
	attemptOrder []string
	temperatures map[string]float64
}

func newScriptedFactory() *scriptedFactory {
	return &scriptedFactory{
		failures:     make(map[string]error),
		temperatures: make(map[string]float64),
	}
}

func (f *scriptedFactory) NewGenerator(ctx context.Context, desc ProviderDescriptor, temperature float64) (Generator, error) {
	f.attemptOrder = append(f.attemptOrder, desc.ID)
	f.temperatures[desc.ID] = temperature
	if err := f.failures[desc.ID]; err != nil {
		return nil, err
	}
	return &stubGenerator{providerID: desc.ID, temperature: temperature}, nil
}

func (f *scriptedFactory) NewEmbedder(ctx context.Context, desc ProviderDescriptor) (Embedder, error) {
	f.attemptOrder = append(f.attemptOrder, desc.ID)
	if err := f.failures[desc.ID]; err != nil {
		return nil, err
	}
	return &stubEmbedder{providerID: desc.ID}, nil
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := NewCatalog(
		ProviderDescriptor{ID: "gen-1", Priority: 1, Kind: KindGeneration, TemperatureMax: 2.0},
		ProviderDescriptor{ID: "gen-2", Priority: 2, Kind: KindGeneration, TemperatureMax: 2.0},
		ProviderDescriptor{ID: "gen-3", Priority: 3, Kind: KindGeneration, TemperatureMax: 2.0},
		ProviderDescriptor{ID: "emb-1", Priority: 1, Kind: KindEmbedding},
		ProviderDescriptor{ID: "emb-2", Priority: 2, Kind: KindEmbedding},
	)
	require.NoError(t, err)
	return catalog
}

// fastBackoff keeps resolver tests quick.
func fastBackoff() BackoffPolicy {
	return BackoffPolicy{
		RateLimitBase: time.Millisecond,
		RateLimitCap:  4 * time.Millisecond,
		TransientBase: time.Millisecond,
		TransientCap:  2 * time.Millisecond,
	}
}

func newTestResolver(t *testing.T, factory SessionFactory) *Resolver {
	t.Helper()
	resolver, err := NewResolver(testCatalog(t), factory, WithBackoff(fastBackoff()))
	require.NoError(t, err)
	return resolver
}

func TestResolve_DefaultOrder(t *testing.T) {
	factory := newScriptedFactory()
	resolver := newTestResolver(t, factory)

	res, err := resolver.Resolve(context.Background(), ResolutionRequest{Kind: KindGeneration})
	require.NoError(t, err)
	assert.Equal(t, "gen-1", res.ProviderID)
	assert.False(t, res.UsedFallback)
	assert.NotNil(t, res.Generator)
	assert.Nil(t, res.Embedder)
}

func TestResolve_RequestedProviderFirst(t *testing.T) {
	factory := newScriptedFactory()
	resolver := newTestResolver(t, factory)

	res, err := resolver.Resolve(context.Background(), ResolutionRequest{
		Kind:       KindGeneration,
		ProviderID: "gen-2",
	})
	require.NoError(t, err)
	assert.Equal(t, "gen-2", res.ProviderID)
	assert.False(t, res.UsedFallback)
	// A lower-priority provider is never contacted before the requested one.
	assert.Equal(t, []string{"gen-2"}, factory.attemptOrder)
}

func TestResolve_UnknownRequestedBehavesAsAbsent(t *testing.T) {
	factory := newScriptedFactory()
	resolver := newTestResolver(t, factory)

	res, err := resolver.Resolve(context.Background(), ResolutionRequest{
		Kind:       KindGeneration,
		ProviderID: "no-such-model",
	})
	require.NoError(t, err)
	assert.Equal(t, "gen-1", res.ProviderID)
	assert.False(t, res.UsedFallback, "unknown request is treated as absent and served by the default")
}

func TestResolve_WrapsAroundFromRequested(t *testing.T) {
	factory := newScriptedFactory()
	factory.failures["gen-2"] = NewProviderError("gen-2", KindRateLimited, errors.New("429"))
	factory.failures["gen-3"] = NewProviderError("gen-3", KindRateLimited, errors.New("429"))
	resolver := newTestResolver(t, factory)

	res, err := resolver.Resolve(context.Background(), ResolutionRequest{
		Kind:       KindGeneration,
		ProviderID: "gen-2",
	})
	require.NoError(t, err)
	// Rotation: gen-2 (requested), gen-3, then wrap to gen-1.
	assert.Equal(t, []string{"gen-2", "gen-3", "gen-1"}, factory.attemptOrder)
	assert.Equal(t, "gen-1", res.ProviderID)
	assert.True(t, res.UsedFallback)
}

func TestResolve_FailoverOnRateLimit(t *testing.T) {
	factory := newScriptedFactory()
	factory.failures["gen-1"] = NewProviderError("gen-1", KindRateLimited, errors.New("quota exceeded"))
	resolver := newTestResolver(t, factory)

	res, err := resolver.Resolve(context.Background(), ResolutionRequest{Kind: KindGeneration})
	require.NoError(t, err)
	assert.Equal(t, "gen-2", res.ProviderID)
	assert.True(t, res.UsedFallback, "no explicit request but the default was unavailable")
}

func TestResolve_FatalSkipsWithoutDelay(t *testing.T) {
	factory := newScriptedFactory()
	factory.failures["gen-1"] = NewProviderError("gen-1", KindFatal, errors.New("API key not valid"))
	resolver, err := NewResolver(testCatalog(t), factory, WithBackoff(BackoffPolicy{
		// Deliberately long delays: the test fails on timeout if a fatal
		// classification ever sleeps.
		RateLimitBase: time.Hour,
		RateLimitCap:  time.Hour,
		TransientBase: time.Hour,
		TransientCap:  time.Hour,
	}))
	require.NoError(t, err)

	done := make(chan struct{})
	var res *Resolution
	go func() {
		defer close(done)
		res, err = resolver.Resolve(context.Background(), ResolutionRequest{
			Kind:       KindGeneration,
			ProviderID: "gen-1",
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("resolution slept after a fatal error")
	}

	require.NoError(t, err)
	assert.Equal(t, "gen-2", res.ProviderID)
	assert.True(t, res.UsedFallback)
}

func TestResolve_AllProvidersFail(t *testing.T) {
	factory := newScriptedFactory()
	factory.failures["gen-1"] = NewProviderError("gen-1", KindRateLimited, errors.New("429"))
	factory.failures["gen-2"] = NewProviderError("gen-2", KindTransient, errors.New("connection reset"))
	factory.failures["gen-3"] = NewProviderError("gen-3", KindFatal, errors.New("403"))
	resolver := newTestResolver(t, factory)

	_, err := resolver.Resolve(context.Background(), ResolutionRequest{Kind: KindGeneration})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvidersExhausted)

	var exhaustion *ExhaustionError
	require.ErrorAs(t, err, &exhaustion)
	assert.Len(t, exhaustion.LastErrors, 3, "diagnostics carry the last error per provider")
	assert.LessOrEqual(t, exhaustion.Attempts, 6, "attempts bounded by the default budget")
	assert.Len(t, factory.attemptOrder, 3, "each provider attempted exactly once")
}

func TestResolve_AttemptBudgetBoundsAttempts(t *testing.T) {
	factory := newScriptedFactory()
	factory.failures["gen-1"] = NewProviderError("gen-1", KindTransient, errors.New("boom"))
	factory.failures["gen-2"] = NewProviderError("gen-2", KindTransient, errors.New("boom"))
	factory.failures["gen-3"] = NewProviderError("gen-3", KindTransient, errors.New("boom"))
	resolver, err := NewResolver(testCatalog(t), factory,
		WithBackoff(fastBackoff()), WithAttemptBudget(2))
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), ResolutionRequest{Kind: KindGeneration})
	require.Error(t, err)
	assert.Len(t, factory.attemptOrder, 2, "budget terminates the resolution early")
}

func TestResolve_EmbeddingKind(t *testing.T) {
	factory := newScriptedFactory()
	factory.failures["emb-1"] = NewProviderError("emb-1", KindTransient, errors.New("timeout"))
	resolver := newTestResolver(t, factory)

	res, err := resolver.Resolve(context.Background(), ResolutionRequest{Kind: KindEmbedding})
	require.NoError(t, err)
	assert.Equal(t, "emb-2", res.ProviderID)
	assert.NotNil(t, res.Embedder)
	assert.Nil(t, res.Generator)
	assert.True(t, res.UsedFallback)
}

func TestResolve_TemperatureClamped(t *testing.T) {
	factory := newScriptedFactory()
	resolver := newTestResolver(t, factory)

	_, err := resolver.Resolve(context.Background(), ResolutionRequest{
		Kind:        KindGeneration,
		Temperature: 9.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, factory.temperatures["gen-1"])
}

func TestResolve_ContextCancellation(t *testing.T) {
	factory := newScriptedFactory()
	factory.failures["gen-1"] = NewProviderError("gen-1", KindRateLimited, errors.New("429"))
	factory.failures["gen-2"] = NewProviderError("gen-2", KindRateLimited, errors.New("429"))
	factory.failures["gen-3"] = NewProviderError("gen-3", KindRateLimited, errors.New("429"))
	resolver, err := NewResolver(testCatalog(t), factory, WithBackoff(BackoffPolicy{
		RateLimitBase: time.Hour,
		RateLimitCap:  time.Hour,
		TransientBase: time.Hour,
		TransientCap:  time.Hour,
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, rerr := resolver.Resolve(ctx, ResolutionRequest{Kind: KindGeneration})
		errCh <- rerr
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case rerr := <-errCh:
		assert.ErrorIs(t, rerr, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("resolution ignored cancellation during backoff sleep")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"wrapped provider error keeps kind", NewProviderError("p", KindRateLimited, errors.New("x")), KindRateLimited},
		{"http 429", errors.New("googleapi: Error 429: Resource has been exhausted"), KindRateLimited},
		{"quota text", errors.New("quota exceeded for model"), KindRateLimited},
		{"auth failure", errors.New("API key not valid. Please pass a valid API key"), KindFatal},
		{"permission denied", errors.New("rpc error: code = PermissionDenied desc = permission denied"), KindFatal},
		{"unknown defaults to transient", errors.New("connection reset by peer"), KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
