package extract

import (
	"context"

	"github.com/poiesic/docquery/core"
)

// NativeExtractor pulls text out of a document's embedded text layer.
// Implementations must be thread-safe for concurrent use.
type NativeExtractor interface {
	// Extract returns one Page per document page that carries text.
	// Page numbers are 1-based. Returns an error if the document
	// cannot be parsed at all.
	Extract(ctx context.Context, doc *core.Document) ([]core.Page, error)
}

// OCRExtractor rasterizes document pages and recognizes their text.
// It is consumed as a black-box capability; implementations are external.
// Implementations must be thread-safe for concurrent use.
type OCRExtractor interface {
	// Extract returns one Page per document page. Pages where recognition
	// found no text may be returned with empty Text; the stage decides
	// whether to keep them. Returns an error only for unrecoverable
	// failures of the OCR engine itself.
	Extract(ctx context.Context, doc *core.Document) ([]core.Page, error)
}
