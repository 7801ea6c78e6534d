package vectorDB

import (
	"errors"
	"testing"

	"github.com/akolanti/PDFChat/internal/domain/commonModels"
)

func TestClampK(t *testing.T) {
	tests := []struct {
		k, defaultK, size, want int
	}{
		{0, 4, 10, 4},
		{-1, 4, 2, 2},
		{6, 4, 10, 6},
		{6, 4, 3, 3},
	}
	for _, tt := range tests {
		if got := ClampK(tt.k, tt.defaultK, tt.size); got != tt.want {
			t.Errorf("ClampK(%d, %d, %d) = %d; want %d", tt.k, tt.defaultK, tt.size, got, tt.want)
		}
	}
}

func TestValidateBuild(t *testing.T) {
	chunks := []commonModels.Chunk{{Id: "a"}, {Id: "b"}}
	if dim, err := ValidateBuild(chunks, [][]float32{{1, 2}, {3, 4}}); err != nil || dim != 2 {
		t.Errorf("expected dim 2, got %d err %v", dim, err)
	}
	if _, err := ValidateBuild(nil, nil); !errors.Is(err, ErrEmptyIndex) {
		t.Errorf("expected ErrEmptyIndex, got %v", err)
	}
	if _, err := ValidateBuild(chunks, [][]float32{{}, {}}); err == nil {
		t.Error("expected an error for empty vectors")
	}
}
