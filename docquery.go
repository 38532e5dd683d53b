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

package docquery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/ai/googleai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/extract"
	"github.com/poiesic/docquery/extract/pdfnative"
	"github.com/poiesic/docquery/ingest"
	"github.com/poiesic/docquery/query"
	"github.com/poiesic/docquery/storage"
	"github.com/poiesic/docquery/storage/badger"
)

// Service wires the document ingestion pipeline and query executor over a
// shared vector index and provider catalog.
type Service struct {
	index    *badger.Index
	catalog  *ai.Catalog
	resolver *ai.Resolver
	pipeline *ingest.Pipeline
	executor *query.Executor
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig *ai.Config
	catalog  *ai.Catalog
	factory  ai.SessionFactory
	ocr      extract.OCRExtractor
	poolSize int
	logger   *slog.Logger
}

// WithAIConfig sets the provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = config
	}
}

// WithCatalog sets the provider catalog.
// Default is ai.DefaultCatalog().
func WithCatalog(catalog *ai.Catalog) ServiceOption {
	return func(o *serviceOptions) {
		o.catalog = catalog
	}
}

// WithSessionFactory sets the provider session factory. Without one, the
// Google AI factory is built from the configured API key.
func WithSessionFactory(factory ai.SessionFactory) ServiceOption {
	return func(o *serviceOptions) {
		o.factory = factory
	}
}

// WithOCR sets the OCR fallback engine for scanned documents.
// Without one, documents with no usable text layer are reported as
// diagnostics instead of being indexed.
func WithOCR(ocr extract.OCRExtractor) ServiceOption {
	return func(o *serviceOptions) {
		o.ocr = ocr
	}
}

// WithPoolSize sets the worker pool size for concurrent extraction.
// Zero keeps the pipeline default.
func WithPoolSize(size int) ServiceOption {
	return func(o *serviceOptions) {
		o.poolSize = size
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// NewService creates the service around the index at indexPath.
// The index artifact is created lazily on the first successful ingestion.
func NewService(indexPath string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	catalog := options.catalog
	if catalog == nil {
		catalog = ai.DefaultCatalog()
	}

	factory := options.factory
	if factory == nil {
		var err error
		factory, err = googleai.NewSessionFactory(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	index, err := badger.OpenIndex(indexPath, options.logger)
	if err != nil {
		return nil, err
	}

	resolver, err := ai.NewResolver(catalog, factory,
		ai.WithResolverLogger(options.logger))
	if err != nil {
		index.Close()
		return nil, err
	}

	stageOpts := []extract.StageOption{extract.WithLogger(options.logger)}
	if options.ocr != nil {
		stageOpts = append(stageOpts, extract.WithOCR(options.ocr))
	}
	stage, err := extract.NewStage(pdfnative.NewLoader(), stageOpts...)
	if err != nil {
		index.Close()
		return nil, err
	}

	upserter, err := ingest.NewUpserter(index, resolver, catalog,
		ingest.WithUpsertLogger(options.logger))
	if err != nil {
		index.Close()
		return nil, err
	}

	pipelineOpts := []ingest.Option{ingest.WithLogger(options.logger)}
	if options.poolSize > 0 {
		pipelineOpts = append(pipelineOpts, ingest.WithPoolSize(options.poolSize))
	}
	pipeline, err := ingest.NewPipeline(stage, upserter, pipelineOpts...)
	if err != nil {
		index.Close()
		return nil, err
	}

	executor, err := query.NewExecutor(index, resolver,
		query.WithLogger(options.logger))
	if err != nil {
		pipeline.Release()
		index.Close()
		return nil, err
	}

	return &Service{
		index:    index,
		catalog:  catalog,
		resolver: resolver,
		pipeline: pipeline,
		executor: executor,
		logger:   options.logger,
	}, nil
}

// Ingest extracts, chunks, embeds, and indexes the documents.
func (s *Service) Ingest(ctx context.Context, docs ...*core.Document) (*ingest.Result, error) {
	return s.pipeline.Ingest(ctx, docs...)
}

// IngestFiles reads the files and ingests them, using each file's base
// name as its source id.
func (s *Service) IngestFiles(ctx context.Context, paths ...string) (*ingest.Result, error) {
	docs := make([]*core.Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		docs = append(docs, &core.Document{
			SourceID: filepath.Base(path),
			Data:     data,
		})
	}
	return s.Ingest(ctx, docs...)
}

// Ask answers a question from the indexed documents.
func (s *Service) Ask(ctx context.Context, req *query.Request) (*query.Answer, error) {
	return s.executor.Ask(ctx, req)
}

// AskWithMonitor answers a question with monitoring callbacks.
func (s *Service) AskWithMonitor(ctx context.Context, req *query.Request, monitor query.QueryMonitor) (*query.Answer, error) {
	return s.executor.AskWithMonitor(ctx, req, monitor)
}

// Providers lists the catalogued providers of the kind in priority order.
func (s *Service) Providers(kind ai.ProviderKind) []ai.ProviderDescriptor {
	return s.catalog.ListByPriority(kind)
}

// IndexState reports the lifecycle state of the vector index.
func (s *Service) IndexState(ctx context.Context) (storage.IndexState, error) {
	return s.index.State(ctx)
}

// Index exposes the underlying vector index.
func (s *Service) Index() storage.Index {
	return s.index
}

// Close releases the worker pool and closes the index.
func (s *Service) Close() error {
	s.pipeline.Release()

	if err := s.index.Close(); err != nil {
		s.logger.Error("error closing index", "err", err)
		return err
	}
	return nil
}
