package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/metrics"
	"github.com/akolanti/PDFChat/internal/rag/providerErrors"
	"github.com/akolanti/PDFChat/pkg/logger_i"
)

// Chain embeds with the paid provider when one is bound and falls back to the free one on any error.
// Fallback never goes from free to paid.
type Chain struct {
	paid   Embedder
	free   Embedder
	logger *logger_i.Logger
}

type Result struct {
	Embedder Embedder
	Vectors  [][]float32
	Notes    []string
}

// NewChain binds an optional paid embedder and a required free one.
func NewChain(paid Embedder, free Embedder) *Chain {
	return &Chain{
		paid:   paid,
		free:   free,
		logger: logger_i.NewLogger("Embedding Chain"),
	}
}

func (c *Chain) Embed(ctx context.Context, texts []string) (Result, error) {
	log := c.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	if len(texts) == 0 {
		return Result{}, ErrNoChunks
	}
	if c.free == nil {
		return Result{}, fmt.Errorf("no free embedding provider configured")
	}

	var notes []string
	if c.paid != nil {
		vectors, err := c.run(ctx, c.paid, texts)
		if err == nil {
			return Result{Embedder: c.paid, Vectors: vectors}, nil
		}

		kind := providerErrors.Classify(err)
		metrics.CaptureFallback("embedding", string(kind))
		if kind == providerErrors.KindQuota {
			log.Warn("Paid embedding quota exceeded, using free provider", "provider", c.paid.Name(), "error", err)
			notes = append(notes, fmt.Sprintf("%s quota exceeded, embeddings were created with %s instead", c.paid.Name(), c.free.Name()))
		} else {
			log.Warn("Paid embedding failed, using free provider", "provider", c.paid.Name(), "kind", kind, "error", err)
			notes = append(notes, fmt.Sprintf("%s embedding failed (%s), embeddings were created with %s instead", c.paid.Name(), kind, c.free.Name()))
		}
	}

	vectors, err := c.run(ctx, c.free, texts)
	if err != nil {
		log.Error("Free embedding failed", "provider", c.free.Name(), "error", err)
		return Result{}, fmt.Errorf("creating embeddings with %s: %w", c.free.Name(), err)
	}
	return Result{Embedder: c.free, Vectors: vectors, Notes: notes}, nil
}

func (c *Chain) run(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding_"+e.Name(), time.Since(start)) }()

	vectors, err := e.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	if err := Validate(vectors, len(texts)); err != nil {
		return nil, err
	}
	return vectors, nil
}
