package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/PDFChat/internal/config"
)

var (
	ErrNoChunks        = errors.New("no text chunks to embed")
	ErrEmptyEmbedding  = errors.New("embedding provider returned an empty vector")
	ErrVectorCount     = errors.New("embedding provider returned the wrong number of vectors")
	ErrMixedDimensions = errors.New("embedding provider returned vectors of different dimensions")
)

type Embedder interface {
	Name() string
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Validate checks that there is one non-empty vector per text and that all vectors share a dimension.
func Validate(vectors [][]float32, expected int) error {
	if len(vectors) != expected {
		return fmt.Errorf("%w: got %d, want %d", ErrVectorCount, len(vectors), expected)
	}
	dim := -1
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w at position %d", ErrEmptyEmbedding, i)
		}
		if dim == -1 {
			dim = len(v)
		} else if len(v) != dim {
			return fmt.Errorf("%w: %d and %d", ErrMixedDimensions, dim, len(v))
		}
	}
	return nil
}

// InBatches calls embed for consecutive slices of at most size texts, each under its own timeout.
func InBatches(ctx context.Context, texts []string, size int, timeout time.Duration,
	embed func(ctx context.Context, batch []string) ([][]float32, error)) ([][]float32, error) {
	if size <= 0 {
		size = config.EmbeddingBatchSize
	}
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		vectors, err := embedBatch(ctx, texts[start:end], timeout, embed)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("%w: got %d for a batch of %d", ErrVectorCount, len(vectors), end-start)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func embedBatch(ctx context.Context, batch []string, timeout time.Duration,
	embed func(ctx context.Context, batch []string) ([][]float32, error)) ([][]float32, error) {
	batchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return embed(batchCtx, batch)
}
