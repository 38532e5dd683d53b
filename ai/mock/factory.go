package mock

import (
	"context"
	"sync"

	"github.com/poiesic/docquery/ai"
)

// SessionFactory is a test double for ai.SessionFactory.
// By default every binding succeeds with a mock Generator or Embedder;
// tests script per-provider failures via the Fail map or the function fields.
type SessionFactory struct {
	// NewGeneratorFunc is called by NewGenerator if set.
	NewGeneratorFunc func(ctx context.Context, desc ai.ProviderDescriptor, temperature float64) (ai.Generator, error)

	// NewEmbedderFunc is called by NewEmbedder if set.
	NewEmbedderFunc func(ctx context.Context, desc ai.ProviderDescriptor) (ai.Embedder, error)

	// Fail maps a provider id to the error both binding methods return for it.
	Fail map[string]error

	mu       sync.Mutex
	attempts []string
}

// NewSessionFactory creates a mock session factory where every binding succeeds.
func NewSessionFactory() *SessionFactory {
	return &SessionFactory{Fail: make(map[string]error)}
}

// NewGenerator binds a mock generation session.
func (m *SessionFactory) NewGenerator(ctx context.Context, desc ai.ProviderDescriptor, temperature float64) (ai.Generator, error) {
	m.record(desc.ID)

	if m.NewGeneratorFunc != nil {
		return m.NewGeneratorFunc(ctx, desc, temperature)
	}
	if err := m.Fail[desc.ID]; err != nil {
		return nil, err
	}
	return NewGenerator(desc.ID), nil
}

// NewEmbedder binds a mock embedding session.
func (m *SessionFactory) NewEmbedder(ctx context.Context, desc ai.ProviderDescriptor) (ai.Embedder, error) {
	m.record(desc.ID)

	if m.NewEmbedderFunc != nil {
		return m.NewEmbedderFunc(ctx, desc)
	}
	if err := m.Fail[desc.ID]; err != nil {
		return nil, err
	}
	return NewEmbedder(), nil
}

// Attempts returns the provider ids attempted, in order.
func (m *SessionFactory) Attempts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.attempts))
	copy(out, m.attempts)
	return out
}

func (m *SessionFactory) record(id string) {
	m.mu.Lock()
	m.attempts = append(m.attempts, id)
	m.mu.Unlock()
}

var _ ai.SessionFactory = (*SessionFactory)(nil)
