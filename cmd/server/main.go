package main

import (
	"context"
	"log"

	"casillero-backend/app"
	"casillero-backend/config"
	"casillero-backend/handlers"
	"casillero-backend/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize", zap.Error(err))
	}
	defer func() { _ = a.Close() }()

	// Subject-matter classification needs an embedder; serve without it
	// when the provider cannot start.
	var materia handlers.MateriaClassifier
	if svc, err := a.MateriaService(ctx); err != nil {
		logger.Warn("subject-matter classification disabled", zap.Error(err))
	} else {
		materia = svc
	}

	// Initialize handlers
	statusHandler := handlers.NewStatusHandler(a.DB, a.Runs, a.Documents)
	classificationHandler := handlers.NewClassificationHandler(a.OutcomeService(), materia)

	// Setup Gin router
	r := gin.Default()

	r.GET("/health", statusHandler.Health)
	r.GET("/metrics", gin.WrapH(a.Metrics.Handler()))

	// API routes
	api := r.Group("/api")
	{
		// Run endpoints
		api.GET("/runs/last", statusHandler.GetLastRun)
		api.GET("/runs/:id", statusHandler.GetRun)

		// Document endpoints
		api.GET("/documents/outcomes", statusHandler.GetOutcomeCounts)
		api.GET("/documents/:id/outcome", classificationHandler.ClassifyOutcome)
		api.GET("/documents/:id/materia", classificationHandler.ClassifyMateria)
	}

	logger.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
