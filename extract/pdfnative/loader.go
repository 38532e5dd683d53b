// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package pdfnative implements extract.NativeExtractor over PDF text layers.
package pdfnative

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/documentloaders"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/extract"
)

// Loader extracts the embedded text layer from PDF documents.
type Loader struct {
	logger *slog.Logger
}

var _ extract.NativeExtractor = (*Loader)(nil)

// NewLoader creates a native PDF text extractor.
//
// Returns extract.NativeExtractor interface to enforce abstraction.
func NewLoader() extract.NativeExtractor {
	return &Loader{
		logger: slog.Default().With("component", "pdf-loader"),
	}
}

// Extract parses the PDF and returns one Page per document page.
// Scanned PDFs typically parse successfully but yield empty text; the
// extraction stage's sufficiency threshold handles that case.
func (l *Loader) Extract(ctx context.Context, doc *core.Document) ([]core.Page, error) {
	loader := documentloaders.NewPDF(bytes.NewReader(doc.Data), int64(len(doc.Data)))

	docs, err := loader.Load(ctx)
	if err != nil {
		l.logger.Warn("pdf parse failed", "source", doc.SourceID, "err", err)
		return nil, err
	}

	pages := make([]core.Page, 0, len(docs))
	for i, d := range docs {
		number := i + 1
		if p, ok := d.Metadata["page"].(int); ok && p > 0 {
			number = p
		}
		pages = append(pages, core.Page{
			SourceID: doc.SourceID,
			Number:   number,
			Text:     d.PageContent,
			Method:   core.MethodNative,
		})
	}

	return pages, nil
}
