package googleEmbedding

import (
	"context"
	"net/http"
	"sync"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/rag/embedding"
	"github.com/akolanti/PDFChat/pkg/logger_i"
	"google.golang.org/genai"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client
var dimension int32 = config.GoogleEmbeddingOutDim

type client struct {
	genAi *genai.Client
	model string
}

func newGoogleEmbedder(ctx context.Context, settings config.GoogleSettings, httpClient *http.Client) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     settings.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		logger.Error("Error creating Google Embedding client", "error", err)
		return
	}
	model := settings.EmbeddingModel
	if model == "" {
		model = config.GoogleEmbeddingModel
	}
	embeddingClient = &client{
		genAi: c,
		model: model,
	}
	logger.Info("Google Embedding client created", "model", model)
	go closeClient(ctx, embeddingClient)
}

func closeClient(ctx context.Context, embeddingClient *client) {
	<-ctx.Done()
	logger.Info("Closing Google Embedding client")
}

// GetGoogleEmbeddingClient returns nil when the key is not usable or the client cannot be created.
func GetGoogleEmbeddingClient(ctx context.Context, settings config.GoogleSettings, httpClient *http.Client) embedding.Embedder {
	if !config.ValidCredential(settings.APIKey) {
		return nil
	}
	once.Do(func() {
		logger = logger_i.NewLogger("google_embedding")
		newGoogleEmbedder(ctx, settings, httpClient)
	})

	//if init still fails
	if embeddingClient == nil {
		return nil
	}
	return &client{genAi: embeddingClient.genAi, model: embeddingClient.model}
}

func (c *client) Name() string {
	return "Google " + c.model
}

func (c *client) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	log := logger.WithTrace(ctx, config.TRACE_ID_KEY)
	queryCtx, cancel := context.WithTimeout(ctx, config.ProviderTimeout)
	defer cancel()

	res, err := c.doCall(queryCtx, getContent([]string{query}), taskQuery)
	if err != nil {
		log.Error("Error getting query embedding from Google", "error", err)
		return nil, err
	}
	vectors, err := toVectors(res, 1)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) EmbedDocuments(ctx context.Context, chunks []string) ([][]float32, error) {
	return embedding.InBatches(ctx, chunks, config.EmbeddingBatchSize, config.ProviderTimeout,
		func(ctx context.Context, batch []string) ([][]float32, error) {
			res, err := c.doCall(ctx, getContent(batch), taskDocument)
			if err != nil {
				logger.WithTrace(ctx, config.TRACE_ID_KEY).Error("Error getting Embeddings from Google", "error", err, "batch", len(batch))
				return nil, err
			}
			return toVectors(res, len(batch))
		})
}

func (c *client) doCall(ctx context.Context, content []*genai.Content, task string) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: task})
}
