package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"casillero-backend/models"

	"go.uber.org/zap"
)

// Snapshot is the bulk export format of the subject-matter index
type Snapshot struct {
	IDs        []string                 `json:"ids"`
	Documents  []string                 `json:"documents"`
	Embeddings [][]float32              `json:"embeddings"`
	Metadatos  []map[string]interface{} `json:"metadatos"`
}

// Validate checks that every column has one value per id
func (s *Snapshot) Validate() error {
	n := len(s.IDs)
	if len(s.Embeddings) != n {
		return fmt.Errorf("snapshot has %d ids but %d embeddings", n, len(s.Embeddings))
	}
	if len(s.Metadatos) != n {
		return fmt.Errorf("snapshot has %d ids but %d metadata records", n, len(s.Metadatos))
	}
	if s.Documents != nil && len(s.Documents) != n {
		return fmt.Errorf("snapshot has %d ids but %d documents", n, len(s.Documents))
	}
	for i, e := range s.Embeddings {
		if len(e) == 0 {
			return fmt.Errorf("snapshot entry %s has an empty embedding", s.IDs[i])
		}
	}
	return nil
}

// Entry returns the i-th snapshot row as an index entry
func (s *Snapshot) Entry(i int) models.IndexEntry {
	e := models.IndexEntry{
		ID:     s.IDs[i],
		Vector: s.Embeddings[i],
		Role:   models.IndexRoleMateria,
	}
	if s.Documents != nil {
		e.Document = s.Documents[i]
	}
	if v, ok := s.Metadatos[i][models.MetaRole]; ok && v != nil {
		e.Role = fmt.Sprint(v)
	}
	if v, ok := s.Metadatos[i][models.MetaLabel]; ok && v != nil {
		e.Label = fmt.Sprint(v)
	}
	return e
}

// SnapshotFromEntries builds a snapshot from index entries
func SnapshotFromEntries(entries []models.IndexEntry) *Snapshot {
	snap := &Snapshot{
		IDs:        make([]string, 0, len(entries)),
		Documents:  make([]string, 0, len(entries)),
		Embeddings: make([][]float32, 0, len(entries)),
		Metadatos:  make([]map[string]interface{}, 0, len(entries)),
	}
	for _, e := range entries {
		snap.IDs = append(snap.IDs, e.ID)
		snap.Documents = append(snap.Documents, e.Document)
		snap.Embeddings = append(snap.Embeddings, e.Vector)
		snap.Metadatos = append(snap.Metadatos, map[string]interface{}{
			models.MetaRole:  e.Role,
			models.MetaLabel: e.Label,
		})
	}
	return snap
}

// SeedService imports and exports index snapshots
type SeedService struct {
	options
}

// NewSeedService creates a new seed service
func NewSeedService(opts ...Option) *SeedService {
	return &SeedService{options: newOptions(opts)}
}

// ImportKey imports the snapshot stored under key
func (s *SeedService) ImportKey(ctx context.Context, key string) (*models.Run, error) {
	if s.storage == nil {
		return nil, notConfigured("storage")
	}

	rc, err := s.storage.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to download snapshot %s: %w", ErrObjectStoreUnavailable, key, err)
	}
	defer rc.Close()

	return s.Import(ctx, rc)
}

// Import loads a snapshot into the index in batches. Ids already indexed
// are skipped, so an interrupted import can be re-run.
func (s *SeedService) Import(ctx context.Context, r io.Reader) (*models.Run, error) {
	if s.index == nil {
		return nil, notConfigured("vector index")
	}

	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.index.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list index entries: %w", ErrIndexUnavailable, err)
	}

	t := s.startRun(ctx, models.PassSeed, len(snap.IDs))
	batchSize := s.batchSize
	if batchSize <= 0 {
		batchSize = len(snap.IDs)
	}

	batch := make([]models.IndexEntry, 0, batchSize)
	batchNo := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		batchNo++
		s.logger.Info("loading batch", zap.Int("batch", batchNo), zap.Int("entries", len(batch)))
		if err := s.index.Upsert(ctx, batch...); err != nil {
			return fmt.Errorf("%w: failed to insert batch %d: %w", ErrIndexUnavailable, batchNo, err)
		}
		for _, e := range batch {
			t.run.Counters.Count(e.Label)
		}
		s.metrics.Indexed(len(batch))
		t.step(ctx, t.run.Counters.Processed+t.run.Counters.Skipped)
		batch = batch[:0]
		return nil
	}

	for i := range snap.IDs {
		if err := ctx.Err(); err != nil {
			return t.finish(ctx, err)
		}

		entry := snap.Entry(i)
		if _, ok := existing[entry.ID]; ok {
			t.run.Counters.Skipped++
			continue
		}
		existing[entry.ID] = struct{}{}

		batch = append(batch, entry)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return t.finish(ctx, err)
			}
		}
	}
	if err := flush(); err != nil {
		return t.finish(ctx, err)
	}

	return t.finish(ctx, nil)
}

// Export writes every index entry as a snapshot under key
func (s *SeedService) Export(ctx context.Context, key string) (int, error) {
	switch {
	case s.index == nil:
		return 0, notConfigured("vector index")
	case s.storage == nil:
		return 0, notConfigured("storage")
	}

	entries, err := s.index.Entries(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read index entries: %w", ErrIndexUnavailable, err)
	}

	data, err := json.Marshal(SnapshotFromEntries(entries))
	if err != nil {
		return 0, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := s.storage.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		return 0, fmt.Errorf("%w: failed to upload snapshot %s: %w", ErrObjectStoreUnavailable, key, err)
	}

	s.logger.Info("index exported", zap.String("key", key), zap.Int("entries", len(entries)))
	return len(entries), nil
}
