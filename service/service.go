package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"casillero-backend/classifier"
	"casillero-backend/embeddings"
	"casillero-backend/metrics"
	"casillero-backend/models"
	"casillero-backend/storage"
	"casillero-backend/vectorindex"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	ErrNotConfigured          = errors.New("service dependency not set")
	ErrStoreUnavailable       = errors.New("document store unavailable")
	ErrIndexUnavailable       = errors.New("vector index unavailable")
	ErrObjectStoreUnavailable = errors.New("object store unavailable")
	ErrNoStoragePointer       = errors.New("document has no storage pointer")
	ErrAlreadyIndexed         = errors.New("document already indexed")
)

// DocumentStore is the relational store holding one row per ruling
type DocumentStore interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
	ListUnclassified(ctx context.Context) ([]*models.Document, error)
	ListMateriaEligible(ctx context.Context, outcomes []models.OutcomeLabel, bodies []string) ([]*models.Document, error)
	SetOutcome(ctx context.Context, id string, label models.OutcomeLabel) error
	SetMateria(ctx context.Context, id string, label string) error
	ListMissingPointer(ctx context.Context) (map[string]struct{}, error)
	SetStoragePointer(ctx context.Context, id, key string) (bool, error)
	ExistingIDs(ctx context.Context) (map[string]struct{}, error)
	InsertListing(ctx context.Context, l *models.Listing) (bool, error)
}

// TextExtractor turns PDF bytes into text
type TextExtractor interface {
	FullText(data []byte) (string, error)
	FirstPages(data []byte, n int) ([][]string, error)
}

// RunRecorder persists the history of batch runs
type RunRecorder interface {
	Create(ctx context.Context, run *models.Run) error
	UpdateCounters(ctx context.Context, id uuid.UUID, counters models.RunCounters) error
	Complete(ctx context.Context, id uuid.UUID, counters models.RunCounters) error
	Fail(ctx context.Context, id uuid.UUID, counters models.RunCounters, errorMessage string) error
}

// Option configures a service
type Option func(*options)

type options struct {
	documents DocumentStore
	storage   storage.Storage
	extractor TextExtractor
	embedder  embeddings.Embedder
	index     vectorindex.Index
	catalog   *classifier.Catalog
	recorder  RunRecorder
	logger    *zap.Logger
	metrics   *metrics.Metrics

	downloadTimeout time.Duration
	writeInterval   time.Duration
	progressEvery   int
	neighbors       int
	headerPages     int
	permittedBodies []string
	pdfPrefix       string
	listingPrefix   string
	batchSize       int

	limiter *rate.Limiter
}

// WithDocumentStore sets the document store
func WithDocumentStore(store DocumentStore) Option {
	return func(o *options) {
		o.documents = store
	}
}

// WithStorage sets the object store
func WithStorage(s storage.Storage) Option {
	return func(o *options) {
		o.storage = s
	}
}

// WithTextExtractor sets the PDF text extractor
func WithTextExtractor(e TextExtractor) Option {
	return func(o *options) {
		o.extractor = e
	}
}

// WithEmbedder sets the embedding provider
func WithEmbedder(e embeddings.Embedder) Option {
	return func(o *options) {
		o.embedder = e
	}
}

// WithIndex sets the vector index
func WithIndex(idx vectorindex.Index) Option {
	return func(o *options) {
		o.index = idx
	}
}

// WithCatalog replaces the default outcome pattern catalog
func WithCatalog(c *classifier.Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// WithRunRecorder sets where run history is stored
func WithRunRecorder(r RunRecorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics sets the metrics collectors
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithDownloadTimeout bounds each object download
func WithDownloadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.downloadTimeout = d
	}
}

// WithWriteInterval sets the minimum delay between document store writes
func WithWriteInterval(d time.Duration) Option {
	return func(o *options) {
		o.writeInterval = d
	}
}

// WithProgressEvery sets how often progress is logged and saved
func WithProgressEvery(n int) Option {
	return func(o *options) {
		o.progressEvery = n
	}
}

// WithNeighbors sets how many index entries are consulted per document
func WithNeighbors(k int) Option {
	return func(o *options) {
		o.neighbors = k
	}
}

// WithHeaderPages sets how many leading pages are read for the header
func WithHeaderPages(n int) Option {
	return func(o *options) {
		o.headerPages = n
	}
}

// WithPermittedBodies sets the bodies whose rulings get a subject-matter label
func WithPermittedBodies(bodies []string) Option {
	return func(o *options) {
		o.permittedBodies = bodies
	}
}

// WithPDFPrefix sets the object store prefix holding ruling PDFs
func WithPDFPrefix(prefix string) Option {
	return func(o *options) {
		o.pdfPrefix = prefix
	}
}

// WithListingPrefix sets the object store prefix holding listing exports
func WithListingPrefix(prefix string) Option {
	return func(o *options) {
		o.listingPrefix = prefix
	}
}

// WithBatchSize sets the index seeding batch size
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

func newOptions(opts []Option) options {
	o := options{
		downloadTimeout: 15 * time.Second,
		writeInterval:   100 * time.Millisecond,
		progressEvery:   40,
		neighbors:       classifier.DefaultNeighbors,
		headerPages:     1,
		pdfPrefix:       "descargas_pdf/",
		listingPrefix:   "data",
		batchSize:       4000,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.catalog == nil {
		o.catalog = classifier.DefaultCatalog()
	}
	if o.writeInterval > 0 {
		o.limiter = rate.NewLimiter(rate.Every(o.writeInterval), 1)
	} else {
		o.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return o
}

// download fetches an object within the download timeout
func (o *options) download(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrNoStoragePointer
	}
	if o.downloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.downloadTimeout)
		defer cancel()
	}

	rc, err := o.storage.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// docError tags a per-document failure with a short reason for metrics
type docError struct {
	reason string
	err    error
}

func (e *docError) Error() string { return e.reason + ": " + e.err.Error() }
func (e *docError) Unwrap() error { return e.err }

func stepError(reason string, err error) error {
	if err == nil {
		return nil
	}
	return &docError{reason: reason, err: err}
}

func reasonOf(err error) string {
	var de *docError
	if errors.As(err, &de) {
		return de.reason
	}
	return "unknown"
}

// runTracker records the progress of one batch run
type runTracker struct {
	run      *models.Run
	recorder RunRecorder
	logger   *zap.Logger
	metrics  *metrics.Metrics
	every    int
}

func (o *options) startRun(ctx context.Context, pass models.Pass, total int) *runTracker {
	run := &models.Run{
		ID:       uuid.New(),
		Pass:     pass,
		Status:   models.RunStatusInProgress,
		Counters: models.RunCounters{Total: total},
	}
	logger := o.logger.With(zap.String("run_id", run.ID.String()), zap.String("pass", string(pass)))

	if o.recorder != nil {
		if err := o.recorder.Create(ctx, run); err != nil {
			logger.Warn("failed to record run start", zap.Error(err))
		}
	}

	logger.Info("run started", zap.Int("total", total))
	return &runTracker{
		run:      run,
		recorder: o.recorder,
		logger:   logger,
		metrics:  o.metrics,
		every:    o.progressEvery,
	}
}

func (t *runTracker) pass() string {
	return string(t.run.Pass)
}

func (t *runTracker) labeled(documentID, stage, label string, elapsed time.Duration) {
	t.run.Counters.Count(label)
	t.metrics.Classified(t.pass(), stage, label)
	t.metrics.ObserveDocument(t.pass(), elapsed)
	t.logger.Debug("document labeled",
		zap.String("document_id", documentID),
		zap.String("label", label),
		zap.String("stage", stage),
	)
}

func (t *runTracker) skipped(documentID string, err error) {
	t.run.Counters.Skipped++
	t.metrics.Skipped(t.pass(), reasonOf(err))
	t.logger.Info("document skipped", zap.String("document_id", documentID), zap.Error(err))
}

func (t *runTracker) failed(documentID string, err error) {
	t.run.Counters.Failed++
	t.metrics.Failed(t.pass(), reasonOf(err))
	t.logger.Error("document failed", zap.String("document_id", documentID), zap.Error(err))
}

// step logs progress and saves counters every t.every documents
func (t *runTracker) step(ctx context.Context, done int) {
	if t.every <= 0 || done%t.every != 0 {
		return
	}
	c := t.run.Counters
	t.logger.Info("progress",
		zap.Int("done", done),
		zap.Int("total", c.Total),
		zap.Int("skipped", c.Skipped),
		zap.Int("failed", c.Failed),
	)
	if t.recorder != nil {
		if err := t.recorder.UpdateCounters(ctx, t.run.ID, c); err != nil {
			t.logger.Warn("failed to record progress", zap.Error(err))
		}
	}
}

// finish closes the run. The run is recorded even when ctx is cancelled.
func (t *runTracker) finish(ctx context.Context, runErr error) (*models.Run, error) {
	ctx = context.WithoutCancel(ctx)
	now := time.Now()
	t.run.UpdatedAt = now

	if runErr != nil {
		msg := runErr.Error()
		t.run.Status = models.RunStatusFailed
		t.run.ErrorMessage = &msg
		if t.recorder != nil {
			if err := t.recorder.Fail(ctx, t.run.ID, t.run.Counters, msg); err != nil {
				t.logger.Warn("failed to record run failure", zap.Error(err))
			}
		}
		t.metrics.RunFinished(t.pass(), string(models.RunStatusFailed))
		t.logger.Error("run failed", zap.Error(runErr), zap.Any("counters", t.run.Counters))
		return t.run, runErr
	}

	t.run.Status = models.RunStatusCompleted
	t.run.CompletedAt = &now
	if t.recorder != nil {
		if err := t.recorder.Complete(ctx, t.run.ID, t.run.Counters); err != nil {
			t.logger.Warn("failed to record run completion", zap.Error(err))
		}
	}
	t.metrics.RunFinished(t.pass(), string(models.RunStatusCompleted))
	t.logger.Info("run completed", zap.Any("counters", t.run.Counters))
	return t.run, nil
}

func notConfigured(name string) error {
	return fmt.Errorf("%w: %s", ErrNotConfigured, name)
}
