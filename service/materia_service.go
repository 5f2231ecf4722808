package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"casillero-backend/classifier"
	"casillero-backend/models"
	"casillero-backend/vectorindex"

	"go.uber.org/zap"
)

// MateriaService assigns subject-matter labels by nearest indexed neighbor
// and grows the index with every labeled document
type MateriaService struct {
	options
}

// MateriaResult is the subject-matter decision for one document
type MateriaResult struct {
	DocumentID string            `json:"document_id"`
	Header     classifier.Header `json:"header"`
	Label      string            `json:"label"`
	Neighbors  []models.Neighbor `json:"neighbors"`
	Entry      models.IndexEntry `json:"entry"`
}

// NewMateriaService creates a new materia service
func NewMateriaService(opts ...Option) *MateriaService {
	return &MateriaService{options: newOptions(opts)}
}

func (s *MateriaService) validate() error {
	switch {
	case s.documents == nil:
		return notConfigured("document store")
	case s.storage == nil:
		return notConfigured("storage")
	case s.extractor == nil:
		return notConfigured("text extractor")
	case s.embedder == nil:
		return notConfigured("embedder")
	case s.index == nil:
		return notConfigured("vector index")
	}
	return nil
}

// Run labels every eligible document that is not indexed yet. Eligible
// documents are upheld or rejected rulings from a permitted body.
func (s *MateriaService) Run(ctx context.Context) (*models.Run, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	working, err := s.WorkingSet(ctx)
	if err != nil {
		return nil, err
	}

	t := s.startRun(ctx, models.PassMateria, len(working))
	for i, doc := range working {
		if err := s.process(ctx, t, doc); err != nil {
			return t.finish(ctx, err)
		}
		t.step(ctx, i+1)
	}

	return t.finish(ctx, nil)
}

// WorkingSet returns the eligible documents minus the ones already indexed
func (s *MateriaService) WorkingSet(ctx context.Context) ([]*models.Document, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	docs, err := s.documents.ListMateriaEligible(ctx, models.MateriaEligibleOutcomes, s.permittedBodies)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list eligible documents: %w", ErrStoreUnavailable, err)
	}

	entryIDs, err := s.index.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list index entries: %w", ErrIndexUnavailable, err)
	}
	indexed := vectorindex.DocumentIDs(entryIDs)

	working := make([]*models.Document, 0, len(docs))
	for _, doc := range docs {
		if _, ok := indexed[doc.ID]; ok {
			continue
		}
		if _, ok := entryIDs[models.EntryID(doc.ID)]; ok {
			continue
		}
		working = append(working, doc)
	}

	s.logger.Info("materia working set",
		zap.Int("eligible", len(docs)),
		zap.Int("indexed", len(entryIDs)),
		zap.Int("pending", len(working)),
	)
	return working, nil
}

func (s *MateriaService) process(ctx context.Context, t *runTracker, doc *models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	started := time.Now()
	result, err := s.Classify(ctx, doc)
	switch {
	case errors.Is(err, classifier.ErrHeaderTooShort), errors.Is(err, classifier.ErrEmptySubject):
		t.skipped(doc.ID, err)
		return nil
	case err != nil:
		t.failed(doc.ID, err)
		return nil
	}

	if err := s.Record(ctx, result); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		t.failed(doc.ID, err)
		return nil
	}

	stage := "nearest_neighbor"
	if result.Header.Objection {
		stage = "objection_override"
	}
	t.labeled(doc.ID, stage, result.Label, time.Since(started))
	return nil
}

// Classify runs the subject-matter procedure for one document: read the
// first page header, embed the subject, query the nearest indexed
// subjects and apply the queja override. Nothing is written.
func (s *MateriaService) Classify(ctx context.Context, doc *models.Document) (*MateriaResult, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	data, err := s.download(ctx, doc.StorageKey)
	if err != nil {
		return nil, stepError("download", err)
	}

	pages, err := s.extractor.FirstPages(data, s.headerPages)
	if err != nil {
		return nil, stepError("extract", err)
	}

	header, err := classifier.ParseHeader(pages)
	if err != nil {
		return nil, stepError("header", err)
	}

	vector, err := s.embedder.Embed(ctx, header.Subject)
	if err != nil {
		return nil, stepError("embed", err)
	}

	entryID := models.EntryID(doc.ID)

	// one extra neighbor in case the document is already indexed
	neighbors, err := s.index.Query(ctx, vector, s.neighbors+1)
	if err != nil {
		return nil, stepError("query", err)
	}
	neighbors = excludeEntry(neighbors, entryID, s.neighbors)

	label := classifier.MateriaLabel(header, neighbors)
	return &MateriaResult{
		DocumentID: doc.ID,
		Header:     header,
		Label:      label,
		Neighbors:  neighbors,
		Entry: models.IndexEntry{
			ID:       entryID,
			Document: header.Subject,
			Vector:   vector,
			Role:     models.IndexRoleMateria,
			Label:    label,
		},
	}, nil
}

// ClassifyByID classifies a single stored document without writing anything
func (s *MateriaService) ClassifyByID(ctx context.Context, id string) (*MateriaResult, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	return s.Classify(ctx, doc)
}

// excludeEntry drops the neighbor with id and keeps at most k
func excludeEntry(neighbors []models.Neighbor, id string, k int) []models.Neighbor {
	out := make([]models.Neighbor, 0, len(neighbors))
	for _, n := range neighbors {
		if n.ID == id {
			continue
		}
		out = append(out, n)
	}
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Record writes the label to the document store, then adds the index entry.
// A failed index insert leaves the document pending for the next run.
// Documents that already have an entry are refused with ErrAlreadyIndexed
// and nothing is written.
func (s *MateriaService) Record(ctx context.Context, result *MateriaResult) error {
	if err := s.validate(); err != nil {
		return err
	}

	indexed, err := s.index.Contains(ctx, result.Entry.ID)
	if err != nil {
		return stepError("index", fmt.Errorf("%w: %w", ErrIndexUnavailable, err))
	}
	if indexed {
		return stepError("indexed", fmt.Errorf("%w: %s", ErrAlreadyIndexed, result.Entry.ID))
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := s.documents.SetMateria(ctx, result.DocumentID, result.Label); err != nil {
		return stepError("write", err)
	}

	if err := s.index.Upsert(ctx, result.Entry); err != nil {
		return stepError("index", err)
	}
	s.metrics.Indexed(1)
	return nil
}
