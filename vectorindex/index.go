// Package vectorindex stores subject embeddings and answers nearest-neighbor
// queries over them.
package vectorindex

import (
	"context"
	"errors"
	"fmt"

	"casillero-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidConfig = errors.New("vectorindex: invalid config")

// Index is an append-only store of index entries keyed by entry id
type Index interface {
	// Upsert inserts entries whose id is not present yet. Existing entries
	// are left untouched.
	Upsert(ctx context.Context, entries ...models.IndexEntry) error

	// Query returns up to k entries ordered nearest first
	Query(ctx context.Context, vector []float32, k int) ([]models.Neighbor, error)

	// Contains reports whether an entry with id is stored
	Contains(ctx context.Context, id string) (bool, error)

	// ListIDs returns every stored entry id
	ListIDs(ctx context.Context) (map[string]struct{}, error)

	// Count returns the number of stored entries
	Count(ctx context.Context) (int, error)

	// Entries returns every stored entry with its vector
	Entries(ctx context.Context) ([]models.IndexEntry, error)

	Close() error
}

// Backend represents the vector index implementation
type Backend string

const (
	BackendPgvector Backend = "pgvector"
	BackendChromem  Backend = "chromem"
)

// Config holds configuration for the vector index
type Config struct {
	Backend    Backend
	Collection string // table name for pgvector, collection name for chromem
	Path       string // chromem persistence directory, empty for in-memory
	Compress   bool
	Dimension  int
}

// New creates an index based on configuration. db is only used by the
// pgvector backend.
func New(ctx context.Context, cfg Config, db *pgxpool.Pool) (Index, error) {
	switch cfg.Backend {
	case BackendPgvector:
		if db == nil {
			return nil, fmt.Errorf("%w: pgvector backend needs a database pool", ErrInvalidConfig)
		}
		idx, err := NewPgvectorIndex(db, cfg)
		if err != nil {
			return nil, err
		}
		return idx, nil
	case BackendChromem:
		idx, err := NewChromemIndex(cfg)
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, cfg.Backend)
	}
}

// DocumentIDs parses entry ids back into document ids, ignoring ids that
// don't follow the entry naming scheme
func DocumentIDs(entryIDs map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(entryIDs))
	for id := range entryIDs {
		if doc, ok := models.DocumentIDFromEntry(id); ok {
			out[doc] = struct{}{}
		}
	}
	return out
}
