//go:build !cgo

package embeddings

import (
	"context"
	"errors"
)

// ErrFastEmbedNotAvailable is returned when the binary was built without cgo
var ErrFastEmbedNotAvailable = errors.New("fastembed: not available (binary built without CGO support, use the gemini provider instead)")

const DefaultFastEmbedModel = "sentence-transformers/all-MiniLM-L6-v2"

// FastEmbedConfig holds configuration for the FastEmbed provider
type FastEmbedConfig struct {
	Model     string
	CacheDir  string
	MaxLength int
}

// FastEmbedProvider is unavailable without cgo
type FastEmbedProvider struct{}

// NewFastEmbedProvider returns ErrFastEmbedNotAvailable
func NewFastEmbedProvider(_ FastEmbedConfig) (*FastEmbedProvider, error) {
	return nil, ErrFastEmbedNotAvailable
}

func (p *FastEmbedProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, ErrFastEmbedNotAvailable
}

func (p *FastEmbedProvider) Dimension() int {
	return 0
}

func (p *FastEmbedProvider) Close() error {
	return nil
}
