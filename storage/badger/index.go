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

package badger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// Index is a Badger-backed vector index rooted at a filesystem path.
//
// The backing database is opened lazily so that State can distinguish an
// absent location from an existing one without creating files on disk.
// Destroy closes the database and removes the directory, returning the
// index to the absent state.
type Index struct {
	mu       sync.Mutex
	path     string
	inMemory bool
	backend  *Backend
	closed   bool
	logger   *slog.Logger
}

var _ storage.Index = (*Index)(nil)

// OpenIndex creates an index rooted at path. The path is not touched until
// the first write or until State observes an existing directory.
func OpenIndex(path string, logger *slog.Logger) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("index path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		path:   path,
		logger: logger.With("component", "index"),
	}, nil
}

// NewMemoryIndex creates an in-memory index for testing.
// Caller must close the index when done.
func NewMemoryIndex() (*Index, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	return &Index{
		inMemory: true,
		backend:  backend,
		logger:   slog.Default().With("component", "index"),
	}, nil
}

// State reports the current lifecycle state of the index.
func (ix *Index) State(ctx context.Context) (storage.IndexState, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return 0, storage.ErrStorageClosed
	}

	if ix.backend == nil {
		info, err := os.Stat(ix.path)
		if os.IsNotExist(err) {
			return storage.IndexAbsent, nil
		}
		if err != nil {
			return 0, err
		}
		if !info.IsDir() {
			return 0, fmt.Errorf("%s is not a directory", ix.path)
		}
		if err := ix.openLocked(); err != nil {
			return 0, err
		}
	}

	count, err := ix.countLocked()
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return storage.IndexEmptyArtifact, nil
	}
	return storage.IndexPopulated, nil
}

// Create performs the one-time absent-to-populated transition.
// Returns ErrAlreadyPopulated if chunk records already exist, which lets a
// caller that lost a creation race fall through to Append.
func (ix *Index) Create(ctx context.Context, chunks ...*core.Chunk) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return storage.ErrStorageClosed
	}
	if err := ix.openLocked(); err != nil {
		return err
	}

	count, err := ix.countLocked()
	if err != nil {
		return err
	}
	if count > 0 {
		return storage.ErrAlreadyPopulated
	}

	ix.logger.Info("creating index", "path", ix.path, "chunks", len(chunks))
	return ix.writeLocked(chunks)
}

// Append adds chunks to a populated index. Chunks whose content ID matches
// an existing record overwrite it.
func (ix *Index) Append(ctx context.Context, chunks ...*core.Chunk) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return storage.ErrStorageClosed
	}
	if err := ix.openLocked(); err != nil {
		return err
	}

	count, err := ix.countLocked()
	if err != nil {
		return err
	}
	if count == 0 {
		return storage.ErrNotPopulated
	}

	ix.logger.Info("appending to index", "path", ix.path, "chunks", len(chunks))
	return ix.writeLocked(chunks)
}

// Query returns up to limit chunks ranked by similarity to the vector.
func (ix *Index) Query(ctx context.Context, vector []float32, limit int) ([]*core.ChunkMatch, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return nil, storage.ErrStorageClosed
	}
	if ix.backend == nil {
		if _, err := os.Stat(ix.path); os.IsNotExist(err) {
			return nil, nil
		}
	}
	if err := ix.openLocked(); err != nil {
		return nil, err
	}

	var matches []*core.ChunkMatch

	err := ix.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkScanPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()

			var chunk *core.Chunk
			err := item.Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}

			// Skip records without embeddings
			if len(chunk.Vector) == 0 {
				continue
			}

			// Cosine similarity (dot product for normalized vectors)
			matches = append(matches, &core.ChunkMatch{
				Chunk: chunk,
				Score: dotProduct(vector, chunk.Vector),
			})
		}

		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(matches, func(a, b *core.ChunkMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

// CountChunks returns the number of stored chunk records.
func (ix *Index) CountChunks(ctx context.Context) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return 0, storage.ErrStorageClosed
	}
	if ix.backend == nil {
		if _, err := os.Stat(ix.path); os.IsNotExist(err) {
			return 0, nil
		}
	}
	if err := ix.openLocked(); err != nil {
		return 0, err
	}
	return ix.countLocked()
}

// Destroy removes the index artifact entirely. Safe to call when absent.
func (ix *Index) Destroy(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return storage.ErrStorageClosed
	}

	if ix.inMemory {
		if ix.backend == nil {
			return nil
		}
		return ix.backend.DropAll()
	}

	if ix.backend != nil {
		if err := ix.backend.Close(); err != nil {
			return err
		}
		ix.backend = nil
	}

	ix.logger.Info("destroying index", "path", ix.path)
	return os.RemoveAll(ix.path)
}

// Close closes the storage backend and releases resources.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return nil
	}
	ix.closed = true

	if ix.backend != nil {
		err := ix.backend.Close()
		ix.backend = nil
		return err
	}
	return nil
}

// openLocked opens the backing database if it isn't open yet.
// Callers must hold ix.mu.
func (ix *Index) openLocked() error {
	if ix.backend != nil {
		return nil
	}
	backend, err := OpenBackend(ix.path, false)
	if err != nil {
		return err
	}
	ix.backend = backend
	return nil
}

// countLocked counts chunk records. Callers must hold ix.mu with the
// backend open.
func (ix *Index) countLocked() (int, error) {
	count := 0
	err := ix.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkScanPrefix()
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// writeLocked writes chunks keyed by content ID. A write batch is used
// rather than a single transaction so the chunk set is not bounded by
// Badger's per-transaction size cap. Callers must hold ix.mu with the
// backend open.
func (ix *Index) writeLocked(chunks []*core.Chunk) error {
	now := time.Now()

	// Validate everything before the first write; the batch auto-commits
	// as it fills, so a late validation failure must not strand a partial
	// chunk set in a populated index.
	for _, chunk := range chunks {
		if chunk == nil {
			continue
		}
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
		if len(chunk.Vector) == 0 {
			return fmt.Errorf("%w: %s chunk %d", storage.ErrMissingVector, chunk.SourceID, chunk.ChunkIndex)
		}
		if chunk.Id == 0 {
			chunk.Id = chunk.ContentID()
		}
		if chunk.InsertedAt.IsZero() {
			chunk.InsertedAt = now
		}
	}

	wb := ix.backend.NewWriteBatch()
	defer wb.Cancel()

	for _, chunk := range chunks {
		if chunk == nil {
			continue
		}
		key := makeChunkKey(storage.MarshalID(chunk.Id))
		if err := wb.Set(key, storage.MarshalChunk(chunk)); err != nil {
			return err
		}
	}

	return wb.Flush()
}
