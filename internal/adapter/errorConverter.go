package adapter

import (
	"errors"
	"net/http"

	"github.com/akolanti/PDFChat/internal/api"
	"github.com/akolanti/PDFChat/internal/rag"
	"github.com/akolanti/PDFChat/internal/rag/embedding"
	"github.com/akolanti/PDFChat/internal/rag/ingest"
	"github.com/akolanti/PDFChat/internal/rag/llm"
	"github.com/akolanti/PDFChat/internal/session"
)

func BadRequest(code int, message string, hint string) api.ErrorResponse {
	return api.ErrorResponse{Code: code, Message: message, Hint: hint}
}

// ToErrorResponse maps service errors to a status code and a message the user can act on.
func ToErrorResponse(err error) api.ErrorResponse {
	var genErr *llm.GenerationError
	var stageErr *rag.StageError

	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return BadRequest(http.StatusNotFound, "Session not found.", "Create a session with POST /sessions")
	case errors.Is(err, session.ErrSessionBusy):
		return BadRequest(http.StatusConflict, "Another request is still running for this session.", "Wait for it to finish and try again")
	case errors.Is(err, session.ErrNotReady):
		return BadRequest(http.StatusConflict, "Please upload and process PDF documents before starting the chat.", "")
	case errors.Is(err, session.ErrTooManySessions):
		return BadRequest(http.StatusServiceUnavailable, "Too many active sessions.", "Try again later")
	case errors.Is(err, ingest.ErrNoDocuments):
		return BadRequest(http.StatusBadRequest, "Please upload at least one PDF file.", "")
	case errors.Is(err, ingest.ErrNoReadableText), errors.Is(err, ingest.ErrEmptyText), errors.Is(err, embedding.ErrNoChunks):
		return BadRequest(http.StatusUnprocessableEntity, "No readable text was found in the uploaded documents.",
			"Scanned PDFs have no text layer; upload documents with selectable text")
	case errors.As(err, &genErr):
		return BadRequest(http.StatusBadGateway, genErr.Error(), "")
	case errors.As(err, &stageErr):
		return stageError(stageErr)
	}
	return BadRequest(http.StatusInternalServerError, "Internal server error.", "")
}

func stageError(err *rag.StageError) api.ErrorResponse {
	switch err.Stage {
	case rag.StageEmbed:
		return BadRequest(http.StatusBadGateway, "Creating embeddings failed: "+err.Err.Error(),
			"Wait a moment and process the documents again, or switch to another processing mode")
	case rag.StageRetrieve:
		return BadRequest(http.StatusBadGateway, "Searching the documents failed: "+err.Err.Error(), "Try asking again")
	case rag.StageIndex:
		return BadRequest(http.StatusInternalServerError, "Building the document index failed: "+err.Err.Error(), "Process the documents again")
	case rag.StageGenerator:
		return BadRequest(http.StatusInternalServerError, "No answer generator is available: "+err.Err.Error(), "")
	case rag.StageLoad, rag.StageChunk:
		return BadRequest(http.StatusUnprocessableEntity, "Reading the documents failed: "+err.Err.Error(), "")
	}
	return BadRequest(http.StatusBadGateway, err.Error(), "")
}
