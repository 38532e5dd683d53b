package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Chunk IDs are generated with content-based hashing so that re-ingesting
// an identical chunk overwrites the previous record instead of duplicating it.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ExtractionMethod identifies how the text of a page was obtained.
type ExtractionMethod int

const (
	// MethodNative means text was extracted from the document's embedded text layer.
	MethodNative ExtractionMethod = iota + 1
	// MethodOCR means text was recognized from a rasterized page image.
	MethodOCR
	// MethodFailed means extraction failed and the page text is a diagnostic message.
	MethodFailed
)

// String returns the method name used in logs and provenance metadata.
func (m ExtractionMethod) String() string {
	switch m {
	case MethodNative:
		return "native"
	case MethodOCR:
		return "ocr"
	case MethodFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// Document is a raw uploaded file before extraction.
type Document struct {
	SourceID string // Filename or path identifying the document
	Data     []byte // Raw file bytes
}

// Page is the text of a single document page after extraction.
type Page struct {
	SourceID string
	Number   int // 1-based page number
	Text     string
	Method   ExtractionMethod
}

// Chunk is a fixed-size, overlapping slice of extracted text.
// It is the unit of embedding and retrieval, and carries enough
// provenance to attribute an answer back to its source.
type Chunk struct {
	Id         ID
	SourceID   string
	PageNumber int
	ChunkIndex int // Monotonically increasing per source
	Text       string
	Vector     []float32 // Embedding vector (populated by the upsert stage)
	InsertedAt time.Time
}

// ContentID returns the deterministic ID for the chunk's provenance and text.
func (c *Chunk) ContentID() ID {
	return IDFromContent(fmt.Sprintf("%s:%d:%d:%s", c.SourceID, c.PageNumber, c.ChunkIndex, c.Text))
}

// ChunkMatch is a chunk returned from vector similarity search.
type ChunkMatch struct {
	Chunk *Chunk
	Score float32
}
