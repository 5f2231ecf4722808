package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"casillero-backend/models"

	"go.uber.org/zap"
)

var pdfKeyPattern = regexp.MustCompile(`id=(\d+)\.pdf$`)

// RoutingService links stored PDFs to their document rows
type RoutingService struct {
	options
}

// NewRoutingService creates a new routing service
func NewRoutingService(opts ...Option) *RoutingService {
	return &RoutingService{options: newOptions(opts)}
}

func (s *RoutingService) validate() error {
	switch {
	case s.documents == nil:
		return notConfigured("document store")
	case s.storage == nil:
		return notConfigured("storage")
	}
	return nil
}

// DocumentIDFromKey extracts the document id from a PDF object key
func DocumentIDFromKey(key string) (string, bool) {
	m := pdfKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Run sets the storage pointer of every document that has none and whose
// PDF is present under the PDF prefix
func (s *RoutingService) Run(ctx context.Context) (*models.Run, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	objects, err := s.storage.List(ctx, s.pdfPrefix)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list %s: %w", ErrObjectStoreUnavailable, s.pdfPrefix, err)
	}
	keys := make(map[string]string, len(objects))
	for _, obj := range objects {
		if id, ok := DocumentIDFromKey(obj.Key); ok {
			keys[id] = obj.Key
		}
	}

	missing, err := s.documents.ListMissingPointer(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list documents without pointer: %w", ErrStoreUnavailable, err)
	}

	ids := make([]string, 0, len(missing))
	for id := range missing {
		if _, ok := keys[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	s.logger.Info("routing working set",
		zap.Int("objects", len(keys)),
		zap.Int("missing_pointer", len(missing)),
		zap.Int("pending", len(ids)),
	)

	t := s.startRun(ctx, models.PassRoute, len(ids))
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return t.finish(ctx, err)
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return t.finish(ctx, err)
		}

		started := time.Now()
		updated, err := s.documents.SetStoragePointer(ctx, id, keys[id])
		switch {
		case err != nil:
			t.failed(id, stepError("write", err))
		case !updated:
			t.skipped(id, stepError("pointer_present", fmt.Errorf("document %s already has a storage pointer", id)))
		default:
			t.labeled(id, "route", "linked", time.Since(started))
		}
		t.step(ctx, i+1)
	}

	return t.finish(ctx, nil)
}
