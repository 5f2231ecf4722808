package embeddings

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	DefaultGeminiModel     = "text-embedding-004"
	DefaultGeminiDimension = 768
)

// GeminiConfig holds configuration for the Gemini embedding provider
type GeminiConfig struct {
	APIKey    string
	Model     string
	Dimension int
}

// GeminiProvider embeds text through the Gemini embedding API
type GeminiProvider struct {
	client    *genai.Client
	model     *genai.EmbeddingModel
	dimension int
}

// NewGeminiProvider creates a Gemini embedding provider
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY is required for the gemini provider", ErrInvalidConfig)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = DefaultGeminiDimension
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.EmbeddingModel(cfg.Model)
	model.TaskType = genai.TaskTypeSemanticSimilarity

	return &GeminiProvider{
		client:    client,
		model:     model,
		dimension: cfg.Dimension,
	}, nil
}

// Embed returns the unit-length embedding of text
func (p *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}

	res, err := p.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: empty embedding returned", ErrEmbeddingFailed)
	}

	values := res.Embedding.Values
	if len(values) != p.dimension {
		return nil, fmt.Errorf("%w: expected %d dimensions, got %d", ErrEmbeddingFailed, p.dimension, len(values))
	}

	out := make([]float32, len(values))
	copy(out, values)
	Normalize(out)
	return out, nil
}

// Dimension returns the configured embedding dimension
func (p *GeminiProvider) Dimension() int {
	return p.dimension
}

// Close releases the underlying client
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}
