//go:build cgo

package embeddings

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	fastembed "github.com/anush008/fastembed-go"
)

// DefaultFastEmbedModel is the sentence-transformers model Chroma embeds with by default
const DefaultFastEmbedModel = "sentence-transformers/all-MiniLM-L6-v2"

// FastEmbedConfig holds configuration for the FastEmbed provider
type FastEmbedConfig struct {
	Model     string
	CacheDir  string
	MaxLength int
}

// FastEmbedProvider embeds text with a local ONNX model
type FastEmbedProvider struct {
	model     *fastembed.FlagEmbedding
	dimension int
	mu        sync.Mutex
}

var fastEmbedModels = map[string]fastembed.EmbeddingModel{
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
}

var fastEmbedDimensions = map[fastembed.EmbeddingModel]int{
	fastembed.AllMiniLML6V2: 384,
	fastembed.BGESmallENV15: 384,
	fastembed.BGEBaseENV15:  768,
}

// NewFastEmbedProvider loads the model, downloading it into CacheDir if needed
func NewFastEmbedProvider(cfg FastEmbedConfig) (*FastEmbedProvider, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultFastEmbedModel
	}
	model, ok := fastEmbedModels[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported fastembed model %q", ErrInvalidConfig, cfg.Model)
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(".", "local_cache")
	}
	if cfg.MaxLength == 0 {
		cfg.MaxLength = 512
	}

	showProgress := false
	flag, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                model,
		CacheDir:             cfg.CacheDir,
		MaxLength:            cfg.MaxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing FastEmbed: %w", err)
	}

	return &FastEmbedProvider{
		model:     flag,
		dimension: fastEmbedDimensions[model],
	}, nil
}

// Embed returns the passage embedding of text
func (p *FastEmbedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// subjects are compared with subjects, so both sides use passage embeddings
	vectors, err := p.model.PassageEmbed([]string{text}, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 embedding, got %d", ErrEmbeddingFailed, len(vectors))
	}

	Normalize(vectors[0])
	return vectors[0], nil
}

// Dimension returns the model's embedding dimension
func (p *FastEmbedProvider) Dimension() int {
	return p.dimension
}

// Close releases the ONNX session
func (p *FastEmbedProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model != nil {
		return p.model.Destroy()
	}
	return nil
}
