package vectorDB

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/PDFChat/internal/domain/commonModels"
)

var (
	ErrEmptyIndex        = errors.New("cannot build an index without chunks")
	ErrDimensionMismatch = errors.New("query vector dimension does not match the index")
	ErrIndexClosed       = errors.New("index has been closed")
)

// Builder creates a new immutable index. A failed build leaves nothing behind.
type Builder interface {
	Name() string
	Build(ctx context.Context, chunks []commonModels.Chunk, vectors [][]float32) (Index, error)
}

// Index is read-only once built. Query results are ordered by descending similarity.
type Index interface {
	Query(ctx context.Context, vector []float32, k int) ([]commonModels.ScoredChunk, error)
	Len() int
	Dimension() int
	Close(ctx context.Context) error
}

// ValidateBuild checks the chunk/vector pairing and returns the shared dimension.
func ValidateBuild(chunks []commonModels.Chunk, vectors [][]float32) (int, error) {
	if len(chunks) == 0 {
		return 0, ErrEmptyIndex
	}
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	dim := len(vectors[0])
	if dim == 0 {
		return 0, fmt.Errorf("empty vector for chunk %s", chunks[0].Id)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return 0, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}
	return dim, nil
}

// ClampK keeps k within [1, size]; a non-positive k means the default.
func ClampK(k int, defaultK int, size int) int {
	if k <= 0 {
		k = defaultK
	}
	return min(k, size)
}

func CheckQuery(vector []float32, dim int) error {
	if len(vector) != dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), dim)
	}
	return nil
}
