// Package embedding implements the signal.Embedder interface against an
// OpenAI-compatible embeddings endpoint (DeepInfra by default). The client
// degrades to a zero vector on any failure, which downstream coherence
// scoring treats as "no signal" rather than an error.
package embedding

import (
	"context"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/phrazzld/viva-api/internal/config"
	"github.com/phrazzld/viva-api/internal/platform/logger"
	"github.com/phrazzld/viva-api/internal/signal"
)

// Client calls an OpenAI-compatible embeddings API. It is safe for
// concurrent use.
type Client struct {
	client     *openai.Client
	model      string
	dimensions int
	timeout    time.Duration
	logger     *slog.Logger
}

// Ensure Client implements signal.Embedder
var _ signal.Embedder = (*Client)(nil)

// NewClient creates an embedding client from configuration.
// If log is nil, a default logger will be used.
func NewClient(cfg config.EmbeddingConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL

	return &Client{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		logger:     log.With(slog.String("component", "embedding_client")),
	}
}

// Embed implements signal.Embedder. Failures of any kind (timeouts, provider
// errors, empty responses) yield a zero vector of the configured width with a
// nil error, so attempt submission is never blocked by the embedding
// provider.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	if text == "" {
		return c.zeroVector(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		log.Warn("embedding request failed, degrading to zero vector",
			slog.String("error", err.Error()))
		return c.zeroVector(), nil
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		log.Warn("embedding response empty, degrading to zero vector")
		return c.zeroVector(), nil
	}

	raw := resp.Data[0].Embedding
	vector := make([]float64, len(raw))
	for i, v := range raw {
		vector[i] = float64(v)
	}
	return vector, nil
}

func (c *Client) zeroVector() []float64 {
	return make([]float64, c.dimensions)
}
