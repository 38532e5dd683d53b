// Package mock provides test doubles for the extract package capabilities.
package mock

import (
	"context"
	"sync"

	"github.com/poiesic/docquery/core"
)

// Extractor is a test double for both extract.NativeExtractor and
// extract.OCRExtractor. It returns scripted pages or a scripted error.
type Extractor struct {
	// ExtractFunc is called by Extract if set.
	ExtractFunc func(ctx context.Context, doc *core.Document) ([]core.Page, error)

	// Pages is returned by the default behavior.
	Pages []core.Page

	// Err is returned by the default behavior when set.
	Err error

	mu        sync.Mutex
	callCount int
}

// NewExtractor creates a mock extractor returning the given pages.
func NewExtractor(pages ...core.Page) *Extractor {
	return &Extractor{Pages: pages}
}

// NewFailingExtractor creates a mock extractor that always fails with err.
func NewFailingExtractor(err error) *Extractor {
	return &Extractor{Err: err}
}

// Extract returns the scripted result.
func (m *Extractor) Extract(ctx context.Context, doc *core.Document) ([]core.Page, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, doc)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Pages, nil
}

// CallCount returns the number of Extract calls.
func (m *Extractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
