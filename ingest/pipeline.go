package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/extract"
)

// Diagnostic records a page or document that could not be indexed.
type Diagnostic struct {
	SourceID   string
	PageNumber int // 0 when the whole document failed
	Message    string
}

// Result summarizes one ingestion run.
type Result struct {
	Processed     int      // Documents that contributed at least one chunk
	SourceIDs     []string // Sources of the contributed chunks, in input order
	ChunksIndexed int
	Diagnostics   []Diagnostic
}

// Pipeline orchestrates document ingestion: extraction, chunking, and the
// embed-and-upsert write to the vector index.
//
// Extraction and chunking run concurrently across documents on a worker
// pool. The index write happens once per run, after every document has
// been chunked, so a batch lands in the index atomically with respect to
// the create transition.
type Pipeline struct {
	stage    *extract.Stage
	chunker  *Chunker
	upserter *Upserter
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent extraction.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithChunker sets a custom chunker.
// Default is NewChunker() with the standard size and overlap.
func WithChunker(chunker *Chunker) Option {
	return func(p *Pipeline) error {
		if chunker == nil {
			return fmt.Errorf("chunker must not be nil")
		}
		p.chunker = chunker
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(stage *extract.Stage, upserter *Upserter, opts ...Option) (*Pipeline, error) {
	if stage == nil {
		return nil, ErrExtractionStageRequired
	}
	if upserter == nil {
		return nil, ErrUpserterRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	chunker, err := NewChunker()
	if err != nil {
		pool.Release()
		return nil, err
	}

	p := &Pipeline{
		stage:    stage,
		chunker:  chunker,
		upserter: upserter,
		pool:     pool,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// docOutcome carries one document's extraction result across the pool.
type docOutcome struct {
	chunks      []*core.Chunk
	diagnostics []Diagnostic
}

// Ingest extracts, chunks, embeds, and indexes the documents.
//
// Per-document extraction failures become diagnostics in the result rather
// than errors; the run fails as a whole only when a non-empty batch yields
// no chunks at all (ErrNoExtractableText) or when the index write fails.
// Pages whose extraction failed outright are reported in Diagnostics and
// never indexed.
func (p *Pipeline) Ingest(ctx context.Context, docs ...*core.Document) (*Result, error) {
	outcomes := make([]docOutcome, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		i, doc := i, doc
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			outcomes[i] = p.processDocument(ctx, doc)
		})
		if submitErr != nil {
			wg.Done()
			sourceID := ""
			if doc != nil {
				sourceID = doc.SourceID
			}
			outcomes[i] = docOutcome{diagnostics: []Diagnostic{{
				SourceID: sourceID,
				Message:  fmt.Sprintf("worker pool rejected document: %v", submitErr),
			}}}
		}
	}
	wg.Wait()

	result := &Result{}
	var chunks []*core.Chunk
	for _, outcome := range outcomes {
		result.Diagnostics = append(result.Diagnostics, outcome.diagnostics...)
		if len(outcome.chunks) == 0 {
			continue
		}
		result.Processed++
		result.SourceIDs = append(result.SourceIDs, outcome.chunks[0].SourceID)
		chunks = append(chunks, outcome.chunks...)
	}

	if len(chunks) == 0 {
		if len(docs) == 0 {
			return result, nil
		}
		p.logger.Warn("ingestion produced no indexable chunks", "documents", len(docs))
		return result, fmt.Errorf("%w: %d documents yielded no chunks", ErrNoExtractableText, len(docs))
	}

	if err := p.upserter.Upsert(ctx, chunks); err != nil {
		return nil, err
	}
	result.ChunksIndexed = len(chunks)

	p.logger.Info("ingestion complete",
		"documents", len(docs),
		"processed", result.Processed,
		"chunks", result.ChunksIndexed,
		"diagnostics", len(result.Diagnostics))

	return result, nil
}

// processDocument runs extraction and chunking for one document.
func (p *Pipeline) processDocument(ctx context.Context, doc *core.Document) docOutcome {
	pages, err := p.stage.Extract(ctx, doc)
	if err != nil {
		sourceID := ""
		if doc != nil {
			sourceID = doc.SourceID
		}
		p.logger.Error("extraction failed", "source", sourceID, "err", err)
		return docOutcome{diagnostics: []Diagnostic{{
			SourceID: sourceID,
			Message:  err.Error(),
		}}}
	}

	var outcome docOutcome
	for _, page := range pages {
		if page.Method == core.MethodFailed {
			outcome.diagnostics = append(outcome.diagnostics, Diagnostic{
				SourceID:   page.SourceID,
				PageNumber: page.Number,
				Message:    page.Text,
			})
		}
	}

	outcome.chunks = p.chunker.ChunkPages(pages)
	if len(outcome.chunks) == 0 && len(outcome.diagnostics) == 0 {
		outcome.diagnostics = append(outcome.diagnostics, Diagnostic{
			SourceID: doc.SourceID,
			Message:  ErrNoExtractableText.Error(),
		})
	}
	return outcome
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
