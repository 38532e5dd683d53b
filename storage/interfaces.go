package storage

import (
	"context"
	"fmt"

	"github.com/poiesic/docquery/core"
)

// IndexState describes the lifecycle state of the persistent index.
type IndexState int

const (
	// IndexAbsent means the index location has never been created.
	IndexAbsent IndexState = iota + 1
	// IndexEmptyArtifact means the directory exists but holds no chunk
	// records. Callers must treat it the same as IndexAbsent.
	IndexEmptyArtifact
	// IndexPopulated means chunk records exist and can be queried.
	IndexPopulated
)

// String returns the state name used in logs.
func (s IndexState) String() string {
	switch s {
	case IndexAbsent:
		return "absent"
	case IndexEmptyArtifact:
		return "empty-artifact"
	case IndexPopulated:
		return "populated"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Index is the persistent vector index keyed by a stable storage location.
type Index interface {
	// State reports the current lifecycle state of the index.
	State(ctx context.Context) (IndexState, error)

	// Create performs the one-time absent-to-populated transition,
	// writing the full chunk set in one call. Chunks must carry vectors.
	Create(ctx context.Context, chunks ...*core.Chunk) error

	// Append adds chunks to a populated index. Chunks must carry vectors.
	// Re-appending a chunk with an identical content ID overwrites it.
	Append(ctx context.Context, chunks ...*core.Chunk) error

	// Query returns up to limit chunks ranked by similarity to the vector,
	// highest score first.
	Query(ctx context.Context, vector []float32, limit int) ([]*core.ChunkMatch, error)

	// CountChunks returns the number of stored chunk records.
	CountChunks(ctx context.Context) (int, error)

	// Destroy removes the on-disk artifact entirely, returning the index
	// to the absent state. Safe to call on an absent index.
	Destroy(ctx context.Context) error

	// Close closes the storage backend and releases resources.
	Close() error
}
