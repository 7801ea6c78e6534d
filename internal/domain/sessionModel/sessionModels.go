package sessionModel

import (
	"context"
	"time"

	"github.com/akolanti/PDFChat/internal/domain/commonModels"
)

type State string

const (
	StateUninitialized State = "uninitialized"
	StateReady         State = "ready"
)

type FileError struct {
	Name    string `json:"doc_name"`
	Message string `json:"message"`
}

// ProcessReport describes the outcome of a successful document build.
type ProcessReport struct {
	Documents         []string                    `json:"documents"`
	Characters        int                         `json:"characters"`
	Chunks            int                         `json:"chunks"`
	Mode              commonModels.ProcessingMode `json:"mode"`
	EmbeddingProvider string                      `json:"embedding_provider"`
	GeneratorProvider string                      `json:"generator_provider"`
	Warnings          []string                    `json:"warnings,omitempty"`
	FileErrors        []FileError                 `json:"file_errors,omitempty"`
	Notes             []string                    `json:"notes,omitempty"`
	BuiltAt           time.Time                   `json:"built_at"`
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	Id         string
	Mode       commonModels.ProcessingMode
	State      State
	Report     *ProcessReport
	Turns      int
	CreatedAt  time.Time
	LastActive time.Time
}

type ConversationStore interface {
	GetHistory(ctx context.Context, sessionId string) ([]commonModels.Turn, error)
	AppendTurn(ctx context.Context, sessionId string, turn commonModels.Turn) error
	ResetHistory(ctx context.Context, sessionId string) error
	DeleteSession(ctx context.Context, sessionId string) error
}
