// Package embeddings turns subject lines into fixed-length vectors.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidConfig   = errors.New("embeddings: invalid config")
	ErrEmptyInput      = errors.New("embeddings: empty input")
	ErrEmbeddingFailed = errors.New("embeddings: embedding failed")
)

// Embedder converts text into a vector of Dimension() values. Implementations
// must return the same vector for the same text within a run.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	Close() error
}

// ProviderType represents the embedding backend
type ProviderType string

const (
	ProviderGemini    ProviderType = "gemini"
	ProviderFastEmbed ProviderType = "fastembed"
)

// DefaultFastEmbedDimension is the output size of the default local model
const DefaultFastEmbedDimension = 384

// Config holds configuration for the embedding provider
type Config struct {
	Provider  ProviderType
	Model     string
	Dimension int
	APIKey    string // gemini
	CacheDir  string // fastembed
	MaxLength int    // fastembed
}

// NewProvider creates an embedder based on configuration
func NewProvider(ctx context.Context, cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		p, err := NewGeminiProvider(ctx, GeminiConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderFastEmbed:
		p, err := NewFastEmbedProvider(FastEmbedConfig{
			Model:     cfg.Model,
			CacheDir:  cfg.CacheDir,
			MaxLength: cfg.MaxLength,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}

// Normalize scales v to unit length in place. Zero vectors are left as is.
func Normalize(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}
