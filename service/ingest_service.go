package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"casillero-backend/models"

	"go.uber.org/zap"
)

// ErrNoListing is returned when the listing prefix holds no files
var ErrNoListing = errors.New("no listing file found")

// IngestService loads court listing exports into the document store
type IngestService struct {
	options
}

// NewIngestService creates a new ingest service
func NewIngestService(opts ...Option) *IngestService {
	return &IngestService{options: newOptions(opts)}
}

func (s *IngestService) validate() error {
	switch {
	case s.documents == nil:
		return notConfigured("document store")
	case s.storage == nil:
		return notConfigured("storage")
	}
	return nil
}

// LatestListing returns the most recently updated object under the listing
// prefix
func (s *IngestService) LatestListing(ctx context.Context) (models.StoredObject, error) {
	if s.storage == nil {
		return models.StoredObject{}, notConfigured("storage")
	}

	objects, err := s.storage.List(ctx, s.listingPrefix)
	if err != nil {
		return models.StoredObject{}, fmt.Errorf("%w: failed to list %s: %w", ErrObjectStoreUnavailable, s.listingPrefix, err)
	}

	var latest models.StoredObject
	found := false
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		if !found || obj.UpdatedAt.After(latest.UpdatedAt) ||
			(obj.UpdatedAt.Equal(latest.UpdatedAt) && obj.Key > latest.Key) {
			latest = obj
			found = true
		}
	}
	if !found {
		return models.StoredObject{}, fmt.Errorf("%w under %q", ErrNoListing, s.listingPrefix)
	}
	return latest, nil
}

// Run ingests the most recent listing export. Records already stored are
// left untouched.
func (s *IngestService) Run(ctx context.Context) (*models.Run, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	latest, err := s.LatestListing(ctx)
	if errors.Is(err, ErrNoListing) {
		s.logger.Info("nothing to ingest", zap.String("prefix", s.listingPrefix))
		t := s.startRun(ctx, models.PassIngest, 0)
		return t.finish(ctx, nil)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("latest listing",
		zap.String("key", latest.Key),
		zap.Time("updated_at", latest.UpdatedAt),
	)

	rc, err := s.storage.Download(ctx, latest.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to download %s: %w", ErrObjectStoreUnavailable, latest.Key, err)
	}
	defer rc.Close()

	return s.Ingest(ctx, rc)
}

// Ingest loads one listing export
func (s *IngestService) Ingest(ctx context.Context, r io.Reader) (*models.Run, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing: %w", err)
	}
	records, err := ParseListing(data)
	if err != nil {
		return nil, err
	}

	existing, err := s.documents.ExistingIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list stored documents: %w", ErrStoreUnavailable, err)
	}

	t := s.startRun(ctx, models.PassIngest, len(records))
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return t.finish(ctx, err)
		}
		s.insert(ctx, t, rec, existing)
		t.step(ctx, i+1)
	}
	return t.finish(ctx, nil)
}

func (s *IngestService) insert(ctx context.Context, t *runTracker, rec *models.Listing, existing map[string]struct{}) {
	id := rec.ID.Value
	if !rec.ID.Valid || id == "" {
		t.skipped("", stepError("missing_id", errors.New("listing record has no ndetalle")))
		return
	}
	if _, ok := existing[id]; ok {
		t.skipped(id, stepError("already_stored", fmt.Errorf("document %s already stored", id)))
		return
	}

	started := time.Now()
	inserted, err := s.documents.InsertListing(ctx, rec)
	switch {
	case err != nil:
		t.failed(id, stepError("write", err))
	case !inserted:
		t.skipped(id, stepError("already_stored", fmt.Errorf("document %s already stored", id)))
	default:
		existing[id] = struct{}{}
		t.labeled(id, "ingest", "inserted", time.Since(started))
	}
}

// ParseListing decodes a listing export: a JSON array of pages, each with a
// "lista" array of records. Records that are exact duplicates of an earlier
// one are dropped.
func ParseListing(data []byte) ([]*models.Listing, error) {
	var pages []models.ListingPage
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}

	seen := make(map[string]struct{})
	var records []*models.Listing
	for _, page := range pages {
		for _, raw := range page.Lista {
			key, err := canonicalJSON(raw)
			if err != nil {
				return nil, fmt.Errorf("failed to decode listing record: %w", err)
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			rec := &models.Listing{}
			if err := json.Unmarshal(raw, rec); err != nil {
				return nil, fmt.Errorf("failed to decode listing record: %w", err)
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// canonicalJSON re-encodes a value with sorted object keys and numbers kept
// verbatim
func canonicalJSON(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
