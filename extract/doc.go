// Package extract converts raw uploaded documents into text pages.
//
// The Stage type implements the extraction policy: native text extraction
// first, OCR fallback when the native result falls below the sufficiency
// threshold, and a diagnostic MethodFailed page when neither path can read
// the document. The native and OCR engines themselves are consumed through
// the NativeExtractor and OCRExtractor interfaces:
//
//   - extract/pdfnative: production native extractor over PDF text layers
//   - extract/mock: test doubles for both capabilities
package extract
