package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/akolanti/PDFChat/internal/adapter/utils"
	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
)

var ErrEmptyText = errors.New("no text found in the uploaded files, check that they contain readable text")

// Splitter cuts text into chunks of at most Size runes. Cuts prefer Separator boundaries, and
// every chunk after the first starts with the last Overlap runes of the one before it.
type Splitter struct {
	Size      int
	Overlap   int
	Separator string
}

func NewSplitter() Splitter {
	return Splitter{
		Size:      config.ChunkSize,
		Overlap:   config.ChunkOverlap,
		Separator: config.ChunkSeparator,
	}
}

type piece struct {
	runes  []rune
	offset int
}

func (s Splitter) Split(text string) ([]commonModels.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	sep := []rune(s.Separator)
	// longest piece that still fits after an overlap tail and a separator
	maxPiece := s.Size - s.Overlap - len(sep)
	if s.Overlap < 0 || maxPiece < 1 {
		return nil, fmt.Errorf("invalid splitter settings: size %d, overlap %d", s.Size, s.Overlap)
	}

	var chunks []commonModels.Chunk
	var current []rune
	start := 0
	pending := false

	emit := func() {
		chunks = append(chunks, commonModels.Chunk{
			Id:     utils.GetNewUUID(),
			Text:   string(current),
			Index:  len(chunks),
			Offset: start,
		})
	}

	for _, p := range s.pieces(text, maxPiece) {
		needed := len(p.runes)
		if len(current) > 0 {
			needed += len(sep)
		}

		if len(current)+needed > s.Size {
			emit()
			tail := current[len(current)-min(s.Overlap, len(current)):]
			current = append(make([]rune, 0, s.Size), tail...)
			start = max(p.offset-len(sep)-len(tail), 0)
			pending = false
		}

		if len(current) > 0 {
			current = append(current, sep...)
		} else {
			start = p.offset
		}
		current = append(current, p.runes...)
		pending = true
	}

	if pending {
		emit()
	}
	return chunks, nil
}

// pieces splits on the separator, drops blank segments and hard-cuts segments longer than maxPiece.
func (s Splitter) pieces(text string, maxPiece int) []piece {
	var segments []string
	if s.Separator == "" {
		segments = []string{text}
	} else {
		segments = strings.Split(text, s.Separator)
	}
	sepLen := len([]rune(s.Separator))

	var out []piece
	offset := 0
	for _, segment := range segments {
		runes := []rune(segment)
		segStart := offset
		offset += len(runes) + sepLen

		if strings.TrimSpace(segment) == "" {
			continue
		}
		for i := 0; i < len(runes); i += maxPiece {
			end := min(i+maxPiece, len(runes))
			out = append(out, piece{runes: runes[i:end], offset: segStart + i})
		}
	}
	return out
}

func getDocType(docPath string) commonModels.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".odt", ".rtf":
		return commonModels.DOCX
	case ".txt", ".md":
		return commonModels.TXT
	default:
		return commonModels.ERR
	}
}
