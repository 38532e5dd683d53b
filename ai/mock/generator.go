package mock

import (
	"context"
	"sync"
)

// Generator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type Generator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, returns a canned answer embedding the prompt length.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	// ProviderID is echoed in the default canned answer.
	ProviderID string

	mu        sync.Mutex
	callCount int
	prompts   []string
}

// NewGenerator creates a mock generator with default canned behavior.
func NewGenerator(providerID string) *Generator {
	return &Generator{ProviderID: providerID}
}

// Generate returns the injected behavior's result, or a canned answer.
func (m *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}

	return "mock answer from " + m.ProviderID, nil
}

// CallCount returns the number of Generate calls.
func (m *Generator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Prompts returns a copy of every prompt passed to Generate, in order.
func (m *Generator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
