// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingest

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/poiesic/docquery/core"
)

const (
	// ChunkSize is the default maximum chunk length in runes.
	ChunkSize = 1000
	// ChunkOverlap is the default number of runes shared between
	// consecutive chunks of the same page.
	ChunkOverlap = 100
)

// Chunker splits extracted pages into fixed-size overlapping chunks.
//
// Splitting is deterministic: the same page text always yields the same
// chunk sequence, and the tail of each chunk is byte-identical to the head
// of the next one. That determinism is what makes content-based chunk IDs
// stable across re-ingestion.
type Chunker struct {
	size    int
	overlap int
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker) error

// WithChunkSize sets the maximum chunk length in runes.
// Default is ChunkSize.
func WithChunkSize(size int) ChunkerOption {
	return func(c *Chunker) error {
		if size < 1 {
			return fmt.Errorf("chunk size must be positive, got %d", size)
		}
		c.size = size
		return nil
	}
}

// WithChunkOverlap sets the overlap between consecutive chunks in runes.
// Default is ChunkOverlap.
func WithChunkOverlap(overlap int) ChunkerOption {
	return func(c *Chunker) error {
		if overlap < 0 {
			return fmt.Errorf("chunk overlap must be non-negative, got %d", overlap)
		}
		c.overlap = overlap
		return nil
	}
}

// NewChunker creates a chunker. The overlap must be smaller than half the
// chunk size so every window makes forward progress.
func NewChunker(opts ...ChunkerOption) (*Chunker, error) {
	c := &Chunker{
		size:    ChunkSize,
		overlap: ChunkOverlap,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.overlap*2 >= c.size {
		return nil, fmt.Errorf("chunk overlap %d must be less than half the chunk size %d", c.overlap, c.size)
	}
	return c, nil
}

// ChunkPages splits pages into chunks with provenance attached.
//
// Pages whose extraction failed carry diagnostic text rather than document
// content, so they are skipped here; the pipeline surfaces them separately.
// Chunk indices increase monotonically per source across all of its pages.
func (c *Chunker) ChunkPages(pages []core.Page) []*core.Chunk {
	indexBySource := make(map[string]int)

	var chunks []*core.Chunk
	for _, page := range pages {
		if page.Method == core.MethodFailed {
			continue
		}
		if strings.TrimSpace(page.Text) == "" {
			continue
		}

		for _, text := range c.split(page.Text) {
			chunk := &core.Chunk{
				SourceID:   page.SourceID,
				PageNumber: page.Number,
				ChunkIndex: indexBySource[page.SourceID],
				Text:       text,
			}
			chunk.Id = chunk.ContentID()
			chunks = append(chunks, chunk)
			indexBySource[page.SourceID]++
		}
	}
	return chunks
}

// split produces the overlapping windows for one page's text.
// Each window ends at the last whitespace inside its final overlap-sized
// tail when one exists, so chunks tend to break between words. The next
// window starts exactly overlap runes before the previous window's end.
func (c *Chunker) split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.size {
		return []string{text}
	}

	var out []string
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			out = append(out, string(runes[start:]))
			break
		}

		cut := end
		for i := end; i > end-c.overlap && i > start; i-- {
			if unicode.IsSpace(runes[i-1]) {
				cut = i
				break
			}
		}

		out = append(out, string(runes[start:cut]))
		start = cut - c.overlap
	}
	return out
}
