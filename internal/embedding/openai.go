package embedding

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"issue-reviewer/internal/domain"
)

// DenseVector is a dense embedding produced by a remote model.
type DenseVector []float64

// OpenAI embeds text with a remote embeddings model behind the same
// Embedder contract as BagOfWords. Swapping it in changes nothing in the
// index or retriever.
type OpenAI struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// OpenAIConfig configures the remote embedder. The API key is read from the
// environment variable named by APIKeyEnv.
type OpenAIConfig struct {
	APIKeyEnv string
	BaseURL   string
	Model     string
	Timeout   time.Duration
}

// NewOpenAI creates the remote embedder from config.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAI{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (o *OpenAI) Name() string { return "openai" }

// Embed requests an embedding for the given text. Empty text short-circuits
// to a zero-length vector so indexing blank chunks never hits the network.
func (o *OpenAI) Embed(text string) (domain.Vector, error) {
	if text == "" {
		return DenseVector(nil), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(o.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned for model %s", o.model)
	}
	src := resp.Data[0].Embedding
	vec := make(DenseVector, len(src))
	for i, x := range src {
		vec[i] = float64(x)
	}
	return vec, nil
}

// Similarity is cosine similarity between two dense vectors, clamped to
// [0, 1] so scores stay comparable with the term-frequency embedder.
func (o *OpenAI) Similarity(a, b domain.Vector) float64 {
	av, ok := a.(DenseVector)
	if !ok {
		return 0.0
	}
	bv, ok := b.(DenseVector)
	if !ok {
		return 0.0
	}
	if len(av) != len(bv) || len(av) == 0 {
		return 0.0
	}
	var dot, normA, normB float64
	for i := range av {
		dot += av[i] * bv[i]
		normA += av[i] * av[i]
		normB += bv[i] * bv[i]
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0.0
	}
	if sim > 1.0 {
		return 1.0
	}
	return sim
}
