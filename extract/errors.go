package extract

import "errors"

var (
	// ErrNativeExtractorRequired is returned when a native extractor is not provided.
	ErrNativeExtractorRequired = errors.New("native extractor required")
)
