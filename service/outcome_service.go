package service

import (
	"context"
	"fmt"
	"time"

	"casillero-backend/classifier"
	"casillero-backend/models"
)

// OutcomeService labels each ruling with its procedural outcome
type OutcomeService struct {
	options
}

// NewOutcomeService creates a new outcome service
func NewOutcomeService(opts ...Option) *OutcomeService {
	return &OutcomeService{options: newOptions(opts)}
}

func (s *OutcomeService) validate() error {
	switch {
	case s.documents == nil:
		return notConfigured("document store")
	case s.storage == nil:
		return notConfigured("storage")
	case s.extractor == nil:
		return notConfigured("text extractor")
	}
	return nil
}

// Run classifies every document that has a PDF but no outcome label yet.
// Per-document failures are logged and counted; only listing the documents
// or a cancelled context ends the run early.
func (s *OutcomeService) Run(ctx context.Context) (*models.Run, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	docs, err := s.documents.ListUnclassified(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list unclassified documents: %w", ErrStoreUnavailable, err)
	}

	t := s.startRun(ctx, models.PassOutcome, len(docs))
	for i, doc := range docs {
		if err := s.process(ctx, t, doc); err != nil {
			return t.finish(ctx, err)
		}
		t.step(ctx, i+1)
	}

	return t.finish(ctx, nil)
}

// process labels one document. Only a cancelled context is returned; every
// other failure is recorded on the run.
func (s *OutcomeService) process(ctx context.Context, t *runTracker, doc *models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	started := time.Now()
	decision, err := s.Classify(ctx, doc)
	if err != nil {
		t.failed(doc.ID, err)
		return nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := s.documents.SetOutcome(ctx, doc.ID, decision.Label); err != nil {
		t.failed(doc.ID, stepError("write", err))
		return nil
	}

	t.labeled(doc.ID, decision.Stage, string(decision.Label), time.Since(started))
	return nil
}

// Classify downloads a document's PDF and runs the outcome cascade on its
// text. Nothing is written.
func (s *OutcomeService) Classify(ctx context.Context, doc *models.Document) (classifier.Decision, error) {
	if err := s.validate(); err != nil {
		return classifier.Decision{}, err
	}

	data, err := s.download(ctx, doc.StorageKey)
	if err != nil {
		return classifier.Decision{}, stepError("download", err)
	}

	text, err := s.extractor.FullText(data)
	if err != nil {
		return classifier.Decision{}, stepError("extract", err)
	}

	return s.catalog.Classify(text), nil
}

// ClassifyByID classifies a single stored document without writing its label
func (s *OutcomeService) ClassifyByID(ctx context.Context, id string) (classifier.Decision, error) {
	if err := s.validate(); err != nil {
		return classifier.Decision{}, err
	}

	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return classifier.Decision{}, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	return s.Classify(ctx, doc)
}
