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


package core

import (
	"bytes"
	"fmt"
)

// pdfMagic is the header every PDF file starts with.
var pdfMagic = []byte("%PDF-")

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - SourceID must not be empty
//   - Data must not be empty
//   - Data must carry the PDF magic header
//
// Validation failures surface immediately to the caller and are never retried.
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.SourceID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptySourceID)
	}

	if len(doc.Data) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyDocument)
	}

	if !bytes.HasPrefix(doc.Data, pdfMagic) {
		return fmt.Errorf("%w: %w: %s", ErrInvalidDocument, ErrUnsupportedFileType, doc.SourceID)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - SourceID must not be empty
//   - Text must not be empty
//   - ChunkIndex must not be negative
//
// NOT validated (populated by later stages):
//   - Vector (empty until the upsert stage embeds the chunk)
//   - ID (0 is valid until ContentID is assigned)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.SourceID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptySourceID)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkText)
	}

	if chunk.ChunkIndex < 0 {
		return fmt.Errorf("%w: %w: %d", ErrInvalidChunk, ErrInvalidChunkIndex, chunk.ChunkIndex)
	}

	return nil
}
