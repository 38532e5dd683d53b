package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/docquery/core"
)

// SufficiencyThreshold is the minimum total extracted character count below
// which the native result is discarded and OCR fallback runs. A result of
// exactly the threshold is kept.
const SufficiencyThreshold = 50

// Stage converts raw documents into pages, preferring native text extraction
// and falling back to OCR when the native text layer is too thin (scanned
// documents typically yield nothing natively).
//
// The stage degrades gracefully: a document that cannot be read at all still
// produces a single MethodFailed page carrying a diagnostic, so a multi-file
// ingestion never hard-fails because of one unreadable file.
type Stage struct {
	native NativeExtractor
	ocr    OCRExtractor // may be nil when no OCR engine is configured
	logger *slog.Logger
}

// StageOption configures a Stage.
type StageOption func(*Stage) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) StageOption {
	return func(s *Stage) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithOCR sets the OCR fallback engine. Without one, documents that need
// OCR degrade to a single MethodFailed page.
func WithOCR(ocr OCRExtractor) StageOption {
	return func(s *Stage) error {
		s.ocr = ocr
		return nil
	}
}

// NewStage creates an extraction stage around a native extractor.
func NewStage(native NativeExtractor, opts ...StageOption) (*Stage, error) {
	if native == nil {
		return nil, ErrNativeExtractorRequired
	}

	s := &Stage{
		native: native,
		logger: slog.Default().With("component", "extract"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Extract converts the document into pages.
//
// Native extraction runs first. If the total trimmed character count across
// pages is below SufficiencyThreshold, the native result is discarded and the
// document goes through OCR page-by-page. OCR pages with no recognized text
// are dropped (content is never fabricated), with the gap logged. If OCR
// itself fails unrecoverably, a single MethodFailed page carries a
// human-readable diagnostic so the document remains attributable downstream.
func (s *Stage) Extract(ctx context.Context, doc *core.Document) ([]core.Page, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	pages, err := s.native.Extract(ctx, doc)
	if err == nil {
		total := totalCharacters(pages)
		if total >= SufficiencyThreshold {
			s.logger.Info("extracted text natively",
				"source", doc.SourceID, "pages", len(pages), "characters", total)
			return s.tagged(pages, doc, core.MethodNative), nil
		}
		s.logger.Warn("native extraction yielded minimal content, trying OCR",
			"source", doc.SourceID, "characters", total)
	} else {
		s.logger.Warn("native extraction failed, trying OCR", "source", doc.SourceID, "err", err)
	}

	return s.extractWithOCR(ctx, doc)
}

// extractWithOCR runs the OCR fallback path.
func (s *Stage) extractWithOCR(ctx context.Context, doc *core.Document) ([]core.Page, error) {
	if s.ocr == nil {
		return s.failedPage(doc, fmt.Errorf("no OCR engine configured")), nil
	}

	pages, err := s.ocr.Extract(ctx, doc)
	if err != nil {
		s.logger.Error("OCR extraction failed", "source", doc.SourceID, "err", err)
		return s.failedPage(doc, err), nil
	}

	kept := make([]core.Page, 0, len(pages))
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			s.logger.Warn("no text found on page", "source", doc.SourceID, "page", page.Number)
			continue
		}
		kept = append(kept, page)
	}

	s.logger.Info("OCR extraction completed",
		"source", doc.SourceID, "pages", len(kept), "characters", totalCharacters(kept))
	return s.tagged(kept, doc, core.MethodOCR), nil
}

// failedPage builds the degrade-gracefully result for an unreadable document.
func (s *Stage) failedPage(doc *core.Document, cause error) []core.Page {
	return []core.Page{{
		SourceID: doc.SourceID,
		Number:   1,
		Text:     fmt.Sprintf("Failed to extract text from %s. Error: %v", doc.SourceID, cause),
		Method:   core.MethodFailed,
	}}
}

// tagged stamps source id, method, and 1-based page numbers onto pages
// the underlying extractor left unset.
func (s *Stage) tagged(pages []core.Page, doc *core.Document, method core.ExtractionMethod) []core.Page {
	out := make([]core.Page, len(pages))
	for i, page := range pages {
		if page.SourceID == "" {
			page.SourceID = doc.SourceID
		}
		if page.Number == 0 {
			page.Number = i + 1
		}
		if page.Method == 0 {
			page.Method = method
		}
		out[i] = page
	}
	return out
}

// totalCharacters sums the trimmed character count across pages.
func totalCharacters(pages []core.Page) int {
	total := 0
	for _, page := range pages {
		total += len(strings.TrimSpace(page.Text))
	}
	return total
}
