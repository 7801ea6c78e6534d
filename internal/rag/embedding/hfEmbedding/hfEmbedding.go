package hfEmbedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/rag/embedding"
	"github.com/akolanti/PDFChat/internal/rag/hfInference"
	"github.com/akolanti/PDFChat/pkg/logger_i"
	hfembeddings "github.com/tmc/langchaingo/embeddings/huggingface"
	hfllm "github.com/tmc/langchaingo/llms/huggingface"
)

// hub embeds through langchaingo with a HuggingFace token.
type hub struct {
	inner  *hfembeddings.Huggingface
	model  string
	logger *logger_i.Logger
}

// NewHub needs a valid HuggingFace token.
func NewHub(settings config.HuggingFaceSettings) (embedding.Embedder, error) {
	if !config.ValidCredential(settings.Token) {
		return nil, fmt.Errorf("a HuggingFace token is required for hub embeddings")
	}
	llm, err := hfllm.New(
		hfllm.WithToken(settings.Token),
		hfllm.WithModel(settings.EmbeddingModel),
		hfllm.WithURL(settings.InferenceURL),
	)
	if err != nil {
		return nil, fmt.Errorf("creating huggingface client: %w", err)
	}
	inner, err := hfembeddings.NewHuggingface(
		hfembeddings.WithClient(*llm),
		hfembeddings.WithModel(settings.EmbeddingModel),
		hfembeddings.WithBatchSize(config.EmbeddingBatchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("creating huggingface embedder: %w", err)
	}
	return &hub{inner: inner, model: settings.EmbeddingModel, logger: logger_i.NewLogger("hf_hub_embedding")}, nil
}

func (h *hub) Name() string {
	return "HuggingFace Hub " + h.model
}

func (h *hub) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return embedding.InBatches(ctx, texts, config.EmbeddingBatchSize, config.ProviderTimeout,
		func(ctx context.Context, batch []string) ([][]float32, error) {
			vectors, err := h.inner.EmbedDocuments(ctx, batch)
			if err != nil {
				h.logger.WithTrace(ctx, config.TRACE_ID_KEY).Error("Error getting embeddings from HuggingFace Hub", "error", err)
			}
			return vectors, err
		})
}

func (h *hub) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	queryCtx, cancel := context.WithTimeout(ctx, config.ProviderTimeout)
	defer cancel()
	return h.inner.EmbedQuery(queryCtx, text)
}

// public embeds through the anonymous inference endpoint.
type public struct {
	client *hfInference.Client
	model  string
	logger *logger_i.Logger
}

func NewPublic(settings config.HuggingFaceSettings, client *hfInference.Client) embedding.Embedder {
	return &public{client: client, model: settings.EmbeddingModel, logger: logger_i.NewLogger("hf_public_embedding")}
}

func (p *public) Name() string {
	return "HuggingFace public " + p.model
}

func (p *public) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return embedding.InBatches(ctx, texts, config.EmbeddingBatchSize, config.ProviderTimeout,
		func(ctx context.Context, batch []string) ([][]float32, error) {
			vectors, err := p.client.FeatureExtraction(ctx, p.model, stripNewLines(batch))
			if err != nil {
				p.logger.WithTrace(ctx, config.TRACE_ID_KEY).Error("Error getting embeddings from HuggingFace", "error", err)
			}
			return vectors, err
		})
}

func (p *public) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	queryCtx, cancel := context.WithTimeout(ctx, config.ProviderTimeout)
	defer cancel()
	vectors, err := p.client.FeatureExtraction(queryCtx, p.model, stripNewLines([]string{text}))
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("huggingface returned %d vectors for one query", len(vectors))
	}
	return vectors[0], nil
}

func stripNewLines(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = strings.ReplaceAll(t, "\n", " ")
	}
	return out
}
