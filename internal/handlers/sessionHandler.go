package handlers

import (
	"context"
	"sync"

	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/domain/sessionModel"
	"github.com/akolanti/PDFChat/internal/rag"
	"github.com/akolanti/PDFChat/pkg/logger_i"
)

// SessionService is satisfied by session.Manager.
type SessionService interface {
	Create(ctx context.Context) (sessionModel.Snapshot, error)
	Get(ctx context.Context, id string) (sessionModel.Snapshot, error)
	SetMode(ctx context.Context, id string, mode commonModels.ProcessingMode) (sessionModel.Snapshot, error)
	Process(ctx context.Context, id string, uploads []commonModels.Upload) (sessionModel.ProcessReport, error)
	Ask(ctx context.Context, id string, question string) (rag.Answer, error)
	History(ctx context.Context, id string) ([]commonModels.Turn, error)
	Delete(ctx context.Context, id string) error
	Len() int
}

var (
	handlerInstance *SessionHandler //private singleton
	once            sync.Once
)

type SessionHandler struct {
	service   SessionService
	uploadDir string
	logger    *logger_i.Logger
}

func InitSessionHandler(service SessionService, uploadDir string) {
	once.Do(func() {
		handlerInstance = NewSessionHandler(service, uploadDir)
		handlerInstance.logger.Info("Starting session handler", "upload_dir", uploadDir)
	})
}

// NewSessionHandler is used directly by tests; the server goes through InitSessionHandler.
func NewSessionHandler(service SessionService, uploadDir string) *SessionHandler {
	return &SessionHandler{
		service:   service,
		uploadDir: uploadDir,
		logger:    logger_i.NewLogger("SessionHandler"),
	}
}

func GetSessionHandler() *SessionHandler {
	return handlerInstance
}
