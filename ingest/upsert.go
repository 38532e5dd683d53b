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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// defaultWriteAttempts is how many times a chunk batch is embedded against
// one provider before escalating to the next provider in the rotation.
const defaultWriteAttempts = 3

// Upserter embeds chunk batches and persists them to the vector index.
//
// Embedding failures are retried on two tiers: transient and rate-limit
// errors get up to writeAttempts tries against the same provider with
// backoff, and when a provider keeps failing the batch escalates to the
// next embedding provider in the catalog rotation. Index writes are
// serialized through a mutex so concurrent ingestions cannot interleave
// the create transition.
type Upserter struct {
	mu            sync.Mutex
	index         storage.Index
	resolver      *ai.Resolver
	catalog       *ai.Catalog
	backoff       ai.BackoffPolicy
	writeAttempts int
	logger        *slog.Logger
}

// UpserterOption configures an Upserter.
type UpserterOption func(*Upserter) error

// WithWriteAttempts sets the per-provider embedding attempt count.
// Default is 3.
func WithWriteAttempts(attempts int) UpserterOption {
	return func(u *Upserter) error {
		if attempts < 1 {
			attempts = 1
		}
		u.writeAttempts = attempts
		return nil
	}
}

// WithUpsertBackoff sets the backoff policy for same-provider retries.
// Default is ai.DefaultBackoff().
func WithUpsertBackoff(policy ai.BackoffPolicy) UpserterOption {
	return func(u *Upserter) error {
		u.backoff = policy
		return nil
	}
}

// WithUpsertLogger sets a custom logger.
// Default is slog.Default().
func WithUpsertLogger(logger *slog.Logger) UpserterOption {
	return func(u *Upserter) error {
		if logger == nil {
			logger = slog.Default()
		}
		u.logger = logger
		return nil
	}
}

// NewUpserter creates an upserter over the index and embedding providers.
func NewUpserter(index storage.Index, resolver *ai.Resolver, catalog *ai.Catalog, opts ...UpserterOption) (*Upserter, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if resolver == nil {
		return nil, ErrResolverRequired
	}
	if catalog == nil {
		return nil, ErrCatalogRequired
	}

	u := &Upserter{
		index:         index,
		resolver:      resolver,
		catalog:       catalog,
		backoff:       ai.DefaultBackoff(),
		writeAttempts: defaultWriteAttempts,
		logger:        slog.Default().With("component", "upserter"),
	}

	for _, opt := range opts {
		if err := opt(u); err != nil {
			return nil, err
		}
	}

	return u, nil
}

// Upsert embeds the chunks and writes them to the index.
//
// When the index is absent or holds no records, the batch is written via
// the one-time create transition; if that write fails the artifact is
// destroyed so a later ingestion starts from a clean absent state rather
// than finding a half-written directory. A populated index gets a plain
// append, where identical content IDs overwrite their previous records.
func (u *Upserter) Upsert(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, providerID, err := u.embed(ctx, texts)
	if err != nil {
		return err
	}
	for i := range chunks {
		chunks[i].Vector = vectors[i]
	}

	state, err := u.index.State(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexWriteFailed, err)
	}

	u.logger.Info("writing chunks to index",
		"chunks", len(chunks), "state", state.String(), "provider", providerID)

	if state == storage.IndexPopulated {
		if err := u.index.Append(ctx, chunks...); err != nil {
			return fmt.Errorf("%w: %v", ErrIndexWriteFailed, err)
		}
		return nil
	}

	if err := u.index.Create(ctx, chunks...); err != nil {
		if errors.Is(err, storage.ErrAlreadyPopulated) {
			// Lost a creation race; the index is usable, so append.
			if appendErr := u.index.Append(ctx, chunks...); appendErr != nil {
				return fmt.Errorf("%w: %v", ErrIndexWriteFailed, appendErr)
			}
			return nil
		}
		u.logger.Error("index creation failed, rolling back artifact", "err", err)
		if destroyErr := u.index.Destroy(ctx); destroyErr != nil {
			u.logger.Error("rollback failed", "err", destroyErr)
		}
		return fmt.Errorf("%w: %v", ErrIndexWriteFailed, err)
	}
	return nil
}

// embed vectorizes the texts, walking the embedding provider rotation.
// Returns the vectors and the id of the provider that produced them.
func (u *Upserter) embed(ctx context.Context, texts []string) ([][]float32, string, error) {
	order := u.catalog.ListByPriority(ai.KindEmbedding)
	if len(order) == 0 {
		return nil, "", ai.ErrCatalogEmpty
	}

	lastErrors := make(map[string]error)
	preferred := ""

	for hop := 0; hop < len(order); hop++ {
		res, err := u.resolver.Resolve(ctx, ai.ResolutionRequest{
			ProviderID: preferred,
			Kind:       ai.KindEmbedding,
		})
		if err != nil {
			return nil, "", err
		}
		if _, seen := lastErrors[res.ProviderID]; seen {
			// The rotation wrapped around to a provider that already
			// failed this batch.
			break
		}

		vectors, err := u.embedWith(ctx, res.Embedder, res.ProviderID, texts)
		if err == nil {
			return vectors, res.ProviderID, nil
		}
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}

		lastErrors[res.ProviderID] = err
		u.logger.Warn("embedding provider failed, escalating",
			"provider", res.ProviderID, "err", err)
		preferred = u.providerAfter(order, res.ProviderID)
	}

	return nil, "", fmt.Errorf("%w: %d providers failed", ErrEmbeddingExhausted, len(lastErrors))
}

// embedWith runs the per-provider retry loop.
func (u *Upserter) embedWith(ctx context.Context, embedder ai.Embedder, providerID string, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 1; attempt <= u.writeAttempts; attempt++ {
		vectors, err := embedder.EmbedTexts(ctx, texts)
		if err == nil {
			if len(vectors) != len(texts) {
				return nil, fmt.Errorf("embedding result mismatch. expected %d, received %d", len(texts), len(vectors))
			}
			return vectors, nil
		}

		lastErr = err
		kind := ai.Classify(err)
		if kind == ai.KindFatal {
			return nil, err
		}

		if attempt < u.writeAttempts {
			delay := u.backoff.DelayFor(attempt, kind, ai.RetryAfterOf(err))
			u.logger.Debug("retrying embedding batch",
				"provider", providerID, "attempt", attempt, "delay", delay)
			if err := sleepContext(ctx, delay); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}

// providerAfter returns the id that follows the given provider in the
// priority rotation.
func (u *Upserter) providerAfter(order []ai.ProviderDescriptor, id string) string {
	for i, desc := range order {
		if desc.ID == id {
			return order[(i+1)%len(order)].ID
		}
	}
	return order[0].ID
}

// sleepContext waits for the duration or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
