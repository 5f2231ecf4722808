package main

import (
	"context"
	"fmt"
	"log"

	"casillero-backend/config"
	"casillero-backend/repository"
	"casillero-backend/vectorindex"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	pgvector := vectorindex.Backend(cfg.Index.Backend) == vectorindex.BackendPgvector
	opts := []repository.ConnectOption{repository.WithStatementTimeout(cfg.Database.StatementTimeout)}
	if pgvector {
		opts = append(opts, repository.WithVectorTypes())
	}

	pool, err := repository.Connect(ctx, cfg.Database.URL, opts...)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	err = repository.ApplyMigrations(ctx, pool, func(m repository.Migration) {
		log.Printf("✓ %s", m.Name)
	})
	if err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}

	if pgvector {
		idx, err := vectorindex.NewPgvectorIndex(pool, cfg.IndexSettings())
		if err != nil {
			log.Fatalf("Failed to configure vector index: %v", err)
		}
		if err := idx.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to create vector index table: %v", err)
		}
		log.Printf("✓ Created vector index table %s (%d dimensions)", cfg.Index.Collection, cfg.Embedding.Dimension)
	} else {
		log.Printf("Skipping vector index table, backend is %s", cfg.Index.Backend)
	}

	fmt.Println("\n✅ Database schema created successfully!")
	fmt.Println("   Tables: sentencias_y_autos, jueces, sentencias_jueces, classification_runs")
}
