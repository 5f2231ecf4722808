package vectorindex

import (
	"context"
	"fmt"

	"casillero-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// DefaultTable is the pgvector table holding subject entries
const DefaultTable = "materia_index"

// PgvectorIndex stores entries in a postgres table with a vector column
type PgvectorIndex struct {
	db        *pgxpool.Pool
	name      string
	table     string
	dimension int
}

// NewPgvectorIndex creates a pgvector backed index. The pool must have the
// pgvector types registered.
func NewPgvectorIndex(db *pgxpool.Pool, cfg Config) (*PgvectorIndex, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", ErrInvalidConfig)
	}
	table := cfg.Collection
	if table == "" {
		table = DefaultTable
	}
	return &PgvectorIndex{
		db:        db,
		name:      table,
		table:     pgx.Identifier{table}.Sanitize(),
		dimension: cfg.Dimension,
	}, nil
}

// EnsureSchema creates the entry table and its HNSW cosine index
func (r *PgvectorIndex) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id TEXT PRIMARY KEY,
    document TEXT NOT NULL DEFAULT '',
    role VARCHAR(50) NOT NULL,
    label TEXT NOT NULL,
    embedding vector(%d) NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
)`, r.table, r.dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops) WITH (m = 16, ef_construction = 64)`,
			pgx.Identifier{"idx_" + r.name + "_embedding_hnsw"}.Sanitize(), r.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (label)`,
			pgx.Identifier{"idx_" + r.name + "_label"}.Sanitize(), r.table),
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index schema: %w", err)
		}
	}
	return nil
}

// Upsert inserts new entries in one transaction; ids already stored are skipped
func (r *PgvectorIndex) Upsert(ctx context.Context, entries ...models.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`
		INSERT INTO %s (id, document, role, label, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`, r.table)

	for _, e := range entries {
		if len(e.Vector) != r.dimension {
			return fmt.Errorf("entry %s: embedding must be %d dimensions, got %d", e.ID, r.dimension, len(e.Vector))
		}
		if _, err := tx.Exec(ctx, query, e.ID, e.Document, e.Role, e.Label, pgvector.NewVector(e.Vector)); err != nil {
			return fmt.Errorf("failed to insert index entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Query returns the k entries closest to vector by cosine distance
func (r *PgvectorIndex) Query(ctx context.Context, vector []float32, k int) ([]models.Neighbor, error) {
	if len(vector) != r.dimension {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", r.dimension, len(vector))
	}
	if k <= 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, role, label, embedding <=> $1 AS distance
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`, r.table)

	rows, err := r.db.Query(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	defer rows.Close()

	var neighbors []models.Neighbor
	for rows.Next() {
		var n models.Neighbor
		if err := rows.Scan(&n.ID, &n.Role, &n.Label, &n.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan neighbor: %w", err)
		}
		neighbors = append(neighbors, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating neighbors: %w", err)
	}
	return neighbors, nil
}

// Contains reports whether the table holds id
func (r *PgvectorIndex) Contains(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)", r.table)
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check index entry %s: %w", id, err)
	}
	return exists, nil
}

// ListIDs returns every entry id in the table
func (r *PgvectorIndex) ListIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf("SELECT id FROM %s", r.table))
	if err != nil {
		return nil, fmt.Errorf("failed to list index ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan index id: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating index ids: %w", err)
	}
	return ids, nil
}

// Entries returns every entry ordered by id
func (r *PgvectorIndex) Entries(ctx context.Context) ([]models.IndexEntry, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf("SELECT id, document, role, label, embedding FROM %s ORDER BY id", r.table))
	if err != nil {
		return nil, fmt.Errorf("failed to read index entries: %w", err)
	}
	defer rows.Close()

	var entries []models.IndexEntry
	for rows.Next() {
		var e models.IndexEntry
		var vec pgvector.Vector
		if err := rows.Scan(&e.ID, &e.Document, &e.Role, &e.Label, &vec); err != nil {
			return nil, fmt.Errorf("failed to scan index entry: %w", err)
		}
		e.Vector = vec.Slice()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating index entries: %w", err)
	}
	return entries, nil
}

// Count returns the number of entries in the table
func (r *PgvectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", r.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count index entries: %w", err)
	}
	return n, nil
}

// Close is a no-op; the pool belongs to the caller
func (r *PgvectorIndex) Close() error {
	return nil
}
