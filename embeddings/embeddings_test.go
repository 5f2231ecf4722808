package embeddings

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-6)
}

func TestNormalize_ZeroVector(t *testing.T) {
	v := []float32{0, 0, 0}
	Normalize(v)
	assert.Equal(t, []float32{0, 0, 0}, v)
}

func TestNewProvider_UnknownProvider(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Provider: "word2vec"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewProvider_GeminiRequiresKey(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: ProviderGemini})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Nil(t, p)
}
