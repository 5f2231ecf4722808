// Package app wires configuration into the store, object storage, index and
// services shared by the command-line tools.
package app

import (
	"context"
	"errors"
	"fmt"

	"casillero-backend/config"
	"casillero-backend/embeddings"
	"casillero-backend/metrics"
	"casillero-backend/pdftext"
	"casillero-backend/repository"
	"casillero-backend/service"
	"casillero-backend/storage"
	"casillero-backend/vectorindex"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the long-lived dependencies of a process
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *pgxpool.Pool
	Storage   storage.Storage
	Metrics   *metrics.Metrics
	Documents *repository.DocumentRepository
	Runs      *repository.RunRepository

	extractor *pdftext.Extractor
	embedder  embeddings.Embedder
	index     vectorindex.Index
}

// New connects to the database and the object store. The embedder and the
// vector index are created on first use.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	connectOpts := []repository.ConnectOption{
		repository.WithLogger(logger),
		repository.WithStatementTimeout(cfg.Database.StatementTimeout),
		repository.WithMaxConns(cfg.Database.MaxConns),
	}
	if vectorindex.Backend(cfg.Index.Backend) == vectorindex.BackendPgvector {
		connectOpts = append(connectOpts, repository.WithVectorTypes())
	}

	db, err := repository.Connect(ctx, cfg.Database.URL, connectOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	fileStorage, err := storage.NewStorage(cfg.StorageSettings())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("storage initialized", zap.String("type", cfg.Storage.Type))

	return &App{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Storage:   fileStorage,
		Metrics:   metrics.New(),
		Documents: repository.NewDocumentRepository(db),
		Runs:      repository.NewRunRepository(db),
		extractor: pdftext.NewExtractor(),
	}, nil
}

// Embedder returns the configured embedding provider, creating it on first use
func (a *App) Embedder(ctx context.Context) (embeddings.Embedder, error) {
	if a.embedder != nil {
		return a.embedder, nil
	}
	e, err := embeddings.NewProvider(ctx, a.Config.EmbeddingSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embeddings: %w", err)
	}
	if e.Dimension() != a.Config.Embedding.Dimension {
		_ = e.Close()
		return nil, fmt.Errorf("%w: provider %s produces %d dimensions, index expects %d",
			config.ErrInvalidConfig, a.Config.Embedding.Provider, e.Dimension(), a.Config.Embedding.Dimension)
	}
	a.Logger.Info("embedding provider initialized",
		zap.String("provider", a.Config.Embedding.Provider),
		zap.Int("dimension", e.Dimension()),
	)
	a.embedder = e
	return e, nil
}

// Index returns the configured vector index, creating it on first use
func (a *App) Index(ctx context.Context) (vectorindex.Index, error) {
	if a.index != nil {
		return a.index, nil
	}
	idx, err := vectorindex.New(ctx, a.Config.IndexSettings(), a.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if pg, ok := idx.(*vectorindex.PgvectorIndex); ok {
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = idx.Close()
			return nil, err
		}
	}
	a.Logger.Info("vector index initialized",
		zap.String("backend", a.Config.Index.Backend),
		zap.String("collection", a.Config.Index.Collection),
	)
	a.index = idx
	return idx, nil
}

func (a *App) serviceOptions(extra ...service.Option) []service.Option {
	c := a.Config.Classifier
	opts := []service.Option{
		service.WithDocumentStore(a.Documents),
		service.WithStorage(a.Storage),
		service.WithTextExtractor(a.extractor),
		service.WithRunRecorder(a.Runs),
		service.WithLogger(a.Logger),
		service.WithMetrics(a.Metrics),
		service.WithDownloadTimeout(c.DownloadTimeout),
		service.WithWriteInterval(c.WriteInterval),
		service.WithProgressEvery(c.ProgressEvery),
		service.WithNeighbors(c.Neighbors),
		service.WithHeaderPages(c.HeaderPages),
		service.WithPermittedBodies(c.PermittedBodies),
		service.WithPDFPrefix(a.Config.Storage.PDFPrefix),
		service.WithListingPrefix(a.Config.Storage.ListingPrefix),
		service.WithBatchSize(a.Config.Seed.BatchSize),
	}
	return append(opts, extra...)
}

// OutcomeService builds the outcome pass
func (a *App) OutcomeService() *service.OutcomeService {
	return service.NewOutcomeService(a.serviceOptions()...)
}

// RoutingService builds the storage pointer pass
func (a *App) RoutingService() *service.RoutingService {
	return service.NewRoutingService(a.serviceOptions()...)
}

// IngestService builds the listing ingest pass
func (a *App) IngestService() *service.IngestService {
	return service.NewIngestService(a.serviceOptions()...)
}

// MateriaService builds the subject-matter pass with its embedder and index
func (a *App) MateriaService(ctx context.Context) (*service.MateriaService, error) {
	embedder, err := a.Embedder(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := a.Index(ctx)
	if err != nil {
		return nil, err
	}
	return service.NewMateriaService(a.serviceOptions(
		service.WithEmbedder(embedder),
		service.WithIndex(idx),
	)...), nil
}

// SeedService builds the index snapshot import and export
func (a *App) SeedService(ctx context.Context) (*service.SeedService, error) {
	idx, err := a.Index(ctx)
	if err != nil {
		return nil, err
	}
	return service.NewSeedService(a.serviceOptions(service.WithIndex(idx))...), nil
}

// Close releases every dependency that was opened
func (a *App) Close() error {
	var errs []error
	if a.index != nil {
		errs = append(errs, a.index.Close())
	}
	if a.embedder != nil {
		errs = append(errs, a.embedder.Close())
	}
	a.DB.Close()
	return errors.Join(errs...)
}
