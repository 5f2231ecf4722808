package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"casillero-backend/models"

	"github.com/philippgille/chromem-go"
)

// DefaultCollection is the chromem collection holding subject entries
const DefaultCollection = "materias"

// ChromemIndex stores entries in an embedded chromem-go collection
type ChromemIndex struct {
	db        *chromem.DB
	col       *chromem.Collection
	dimension int
	mu        sync.Mutex
}

// NewChromemIndex opens the collection, persisting under cfg.Path when set
func NewChromemIndex(cfg Config) (*ChromemIndex, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", ErrInvalidConfig)
	}
	name := cfg.Collection
	if name == "" {
		name = DefaultCollection
	}

	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem db at %s: %w", cfg.Path, err)
		}
	}

	// entries always carry their embedding, content is never embedded here
	col, err := db.GetOrCreateCollection(name, map[string]string{"role": models.IndexRoleMateria}, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", name, err)
	}

	return &ChromemIndex{
		db:        db,
		col:       col,
		dimension: cfg.Dimension,
	}, nil
}

func noEmbedding(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("%w: index entries must carry their embedding", ErrInvalidConfig)
}

// Upsert adds entries whose id is not in the collection yet
func (c *ChromemIndex) Upsert(ctx context.Context, entries ...models.IndexEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var docs []chromem.Document
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if len(e.Vector) != c.dimension {
			return fmt.Errorf("entry %s: embedding must be %d dimensions, got %d", e.ID, c.dimension, len(e.Vector))
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		if _, err := c.col.GetByID(ctx, e.ID); err == nil {
			continue
		}
		seen[e.ID] = struct{}{}

		vector := make([]float32, len(e.Vector))
		copy(vector, e.Vector)
		docs = append(docs, chromem.Document{
			ID:        e.ID,
			Metadata:  e.Metadata(),
			Embedding: vector,
			Content:   e.Document,
		})
	}
	if len(docs) == 0 {
		return nil
	}

	if err := c.col.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("failed to add index entries: %w", err)
	}
	return nil
}

// Query returns up to k entries ordered by cosine similarity
func (c *ChromemIndex) Query(ctx context.Context, vector []float32, k int) ([]models.Neighbor, error) {
	if len(vector) != c.dimension {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", c.dimension, len(vector))
	}
	if count := c.col.Count(); k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := c.col.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	neighbors := make([]models.Neighbor, 0, len(results))
	for _, r := range results {
		neighbors = append(neighbors, models.Neighbor{
			ID:       r.ID,
			Role:     r.Metadata[models.MetaRole],
			Label:    r.Metadata[models.MetaLabel],
			Distance: 1 - float64(r.Similarity),
		})
	}
	return neighbors, nil
}

// Contains reports whether the collection holds id
func (c *ChromemIndex) Contains(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	_, err := c.col.GetByID(ctx, id)
	return err == nil, nil
}

// ListIDs returns every entry id
func (c *ChromemIndex) ListIDs(ctx context.Context) (map[string]struct{}, error) {
	results, err := c.all(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(results))
	for _, r := range results {
		ids[r.ID] = struct{}{}
	}
	return ids, nil
}

// Entries returns every entry with its stored vector, ordered by id
func (c *ChromemIndex) Entries(ctx context.Context) ([]models.IndexEntry, error) {
	results, err := c.all(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]models.IndexEntry, 0, len(results))
	for _, r := range results {
		entries = append(entries, models.IndexEntry{
			ID:       r.ID,
			Document: r.Content,
			Vector:   append([]float32(nil), r.Embedding...),
			Role:     r.Metadata[models.MetaRole],
			Label:    r.Metadata[models.MetaLabel],
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// all returns the whole collection. chromem has no listing call, so this
// ranks every document against a unit vector.
func (c *ChromemIndex) all(ctx context.Context) ([]chromem.Result, error) {
	count := c.col.Count()
	if count == 0 {
		return nil, nil
	}

	probe := make([]float32, c.dimension)
	probe[0] = 1
	results, err := c.col.QueryEmbedding(ctx, probe, count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection: %w", err)
	}
	return results, nil
}

// Count returns the number of entries in the collection
func (c *ChromemIndex) Count(_ context.Context) (int, error) {
	return c.col.Count(), nil
}

// Close is a no-op; chromem persists on every write
func (c *ChromemIndex) Close() error {
	return nil
}
