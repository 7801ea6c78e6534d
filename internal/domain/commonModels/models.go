package commonModels

import (
	"fmt"
	"strings"
	"time"
)

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"

// Upload is a file received from the client and parked on disk until the batch is processed.
type Upload struct {
	Name string `json:"doc_name"`
	Path string `json:"path"`
}

type Page struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

type Document struct {
	Name        string  `json:"doc_name"`
	ContentType DocType `json:"content_type"`
	Pages       []Page  `json:"pages"`
}

type Chunk struct {
	Id     string `json:"chunk_id"`
	Text   string `json:"content"`
	Index  int    `json:"chunk_order"`
	Offset int    `json:"offset"`
}

type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}

type Turn struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// ProcessingMode selects which providers a document batch is processed with.
type ProcessingMode string

const (
	ModePublic ProcessingMode = "public"
	ModeHub    ProcessingMode = "hub"
	ModePaid   ProcessingMode = "paid"
)

func ParseProcessingMode(value string) (ProcessingMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "public", "no-token", "no-token-free", "free":
		return ModePublic, nil
	case "hub", "token", "token-free":
		return ModeHub, nil
	case "paid":
		return ModePaid, nil
	default:
		return "", fmt.Errorf("unknown processing mode %q (want public, hub or paid)", value)
	}
}

func (m ProcessingMode) Description() string {
	switch m {
	case ModeHub:
		return "free hosted models with a HuggingFace token"
	case ModePaid:
		return "paid provider with free fallback"
	default:
		return "free hosted models without a token"
	}
}
