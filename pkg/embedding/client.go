// Package embedding scores text similarity with vectors from an
// OpenAI-compatible embeddings endpoint.
package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-command/pkg/nlp"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "text-embedding-3-small"

// Config holds configuration for creating an embeddings client.
type Config struct {
	Endpoint  string // Base URL, e.g., "https://api.openai.com/v1"
	Model     string // Embedding model name
	APIKey    string // Optional for local endpoints
	CacheSize int    // Maximum number of cached vectors
}

// Client computes and caches embedding vectors.
type Client struct {
	client *openai.Client
	model  string
	cache  *ristretto.Cache[string, []float32]
	logger *zap.Logger
}

var _ nlp.Similarity = (*Client)(nil)

// NewClient creates an embeddings client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	size := int64(cfg.CacheSize)
	if size <= 0 {
		size = 4096
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, []float32]{
		NumCounters:        size * 10,
		MaxCost:            size,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create vector cache: %w", err)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		cache:  cache,
		logger: logger.Named("embedding"),
	}, nil
}

// Close releases the vector cache.
func (c *Client) Close() {
	c.cache.Close()
}

// Similarity returns the cosine similarity of the embeddings of a and b,
// with negative values clamped to 0.
func (c *Client) Similarity(ctx context.Context, a, b string) (float64, error) {
	vecs, err := c.vectors(ctx, []string{a, b})
	if err != nil {
		return 0, err
	}
	return math.Max(0, Cosine(vecs[0], vecs[1])), nil
}

// Warm fetches and caches the vectors of texts not cached yet.
func (c *Client) Warm(ctx context.Context, texts []string) error {
	if len(texts) == 0 {
		return nil
	}
	_, err := c.vectors(ctx, texts)
	return err
}

// vectors returns one vector per input, fetching only those not cached.
func (c *Client) vectors(ctx context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	var missing []string
	var missingIdx []int
	for i, in := range inputs {
		key := strings.ToLower(strings.TrimSpace(in))
		if v, ok := c.cache.Get(key); ok {
			out[i] = v
			continue
		}
		missing = append(missing, key)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.model),
		Input: missing,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(missing) {
		return nil, fmt.Errorf("create embeddings: expected %d vectors, got %d", len(missing), len(resp.Data))
	}

	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(missing) || len(d.Embedding) == 0 {
			return nil, fmt.Errorf("create embeddings: malformed vector at index %d", d.Index)
		}
		out[missingIdx[d.Index]] = d.Embedding
		c.cache.Set(missing[d.Index], d.Embedding, 1)
	}
	c.cache.Wait()

	c.logger.Debug("Fetched embeddings", zap.Int("count", len(missing)), zap.String("model", c.model))
	return out, nil
}

// Cosine returns the cosine similarity of two vectors, or 0 when either is
// empty, zero or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
