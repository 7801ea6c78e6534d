package openaiEmbedding

import (
	"context"
	"fmt"
	"net/http"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/rag/embedding"
	"github.com/akolanti/PDFChat/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type client struct {
	api    openai.Client
	model  string
	logger *logger_i.Logger
}

// New returns nil when the key is not a usable credential, so callers never reach OpenAI without one.
func New(settings config.OpenAISettings, httpClient *http.Client) embedding.Embedder {
	if !config.ValidCredential(settings.APIKey) {
		return nil
	}
	opts := []option.RequestOption{
		option.WithAPIKey(settings.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(settings.BaseURL))
	}

	model := settings.EmbeddingModel
	if model == "" {
		model = config.OpenAIEmbeddingModel
	}
	logger := logger_i.NewLogger("openai_embedding")
	logger.Info("OpenAI embedding client created", "model", model)
	return &client{
		api:    openai.NewClient(opts...),
		model:  model,
		logger: logger,
	}
}

func (c *client) Name() string {
	return "OpenAI " + c.model
}

func (c *client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return embedding.InBatches(ctx, texts, config.EmbeddingBatchSize, config.ProviderTimeout, c.embed)
}

func (c *client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	queryCtx, cancel := context.WithTimeout(ctx, config.ProviderTimeout)
	defer cancel()
	vectors, err := c.embed(queryCtx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("openai returned %d vectors for one query", len(vectors))
	}
	return vectors[0], nil
}

func (c *client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	log := c.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		log.Error("Error getting embeddings from OpenAI", "error", err)
		return nil, err
	}

	out := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || int(item.Index) >= len(out) {
			return nil, fmt.Errorf("openai returned embedding index %d for %d inputs", item.Index, len(texts))
		}
		out[item.Index] = toFloat32(item.Embedding)
	}
	return out, nil
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}
