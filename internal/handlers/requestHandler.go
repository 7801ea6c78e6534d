package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/PDFChat/internal/adapter"
	"github.com/akolanti/PDFChat/internal/api"
	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/domain/sessionModel"
	"github.com/akolanti/PDFChat/internal/session"
)

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// HealthHandler godoc
// @Summary      Health check
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /healthz [get]
func (h *SessionHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, api.HealthResponse{Status: "ok", Sessions: h.service.Len()})
}

// CreateSessionHandler godoc
// @Summary      Create a chat session
// @Description  Creates an empty session in the default processing mode. Documents must be processed before asking questions.
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  api.SessionResponse
// @Failure      503  {object}  api.ErrorResponse  "Too many active sessions"
// @Router       /sessions [post]
func (h *SessionHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	snapshot, err := h.service.Create(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusCreated, adapter.ToSessionResponse(snapshot))
}

// GetSessionHandler godoc
// @Summary      Get a session
// @Description  Returns the session state, processing mode and the report of the last successful processing run.
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  api.SessionResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /sessions/{id} [get]
func (h *SessionHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionId(w, r)
	if !ok {
		return
	}
	snapshot, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToSessionResponse(snapshot))
}

// SetModeHandler godoc
// @Summary      Change the processing mode
// @Description  The mode applies to the next processing run: public (free, no token), hub (free, HuggingFace token) or paid.
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string           true  "Session ID"
// @Param        request  body      api.ModeRequest  true  "Processing mode"
// @Success      200      {object}  api.SessionResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse  "Session busy"
// @Router       /sessions/{id}/mode [put]
func (h *SessionHandler) SetModeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionId(w, r)
	if !ok {
		return
	}
	var req api.ModeRequest
	if err := decodeBody(r, &req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Bad Request", "Body must be JSON like {\"mode\": \"hub\"}")
		return
	}
	mode, err := commonModels.ParseProcessingMode(req.Mode)
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, err.Error(), "")
		return
	}
	snapshot, err := h.service.SetMode(r.Context(), id, mode)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToSessionResponse(snapshot))
}

// UploadDocumentsHandler godoc
// @Summary      Upload and process documents
// @Description  Receives one or more PDF files, extracts and chunks their text, embeds the chunks and builds the session index. The previous index and history are replaced only when every step succeeds.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      string  true   "Session ID"
// @Param        documents  formData  file    true   "PDF files (repeat the field for several files)"
// @Param        mode       formData  string  false  "Processing mode for this run (public, hub, paid)"
// @Success      200  {object}  api.ProcessResponse
// @Failure      400  {object}  api.ErrorResponse  "No files or bad form"
// @Failure      409  {object}  api.ErrorResponse  "Session busy"
// @Failure      413  {object}  api.ErrorResponse  "Upload too large"
// @Failure      422  {object}  api.ErrorResponse  "No readable text"
// @Failure      502  {object}  api.ErrorResponse  "Provider failure"
// @Router       /sessions/{id}/documents [post]
func (h *SessionHandler) UploadDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionId(w, r)
	if !ok {
		return
	}
	log := h.logger.WithTrace(r.Context(), config.TRACE_ID_KEY).With("session", id)

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteErrorResponse(w, http.StatusRequestEntityTooLarge, "Upload too large.", fmt.Sprintf("The limit is %d MB per batch", config.MaxUploadSize>>20))
			return
		}
		WriteErrorResponse(w, http.StatusBadRequest, "Please upload at least one PDF file.", "Send the files as multipart/form-data in the documents field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["documents"]
	if len(files) == 0 {
		WriteErrorResponse(w, http.StatusBadRequest, "Please upload at least one PDF file.", "")
		return
	}

	if modeValue := r.FormValue("mode"); modeValue != "" {
		mode, err := commonModels.ParseProcessingMode(modeValue)
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, err.Error(), "")
			return
		}
		if _, err := h.service.SetMode(r.Context(), id, mode); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	}

	uploads, err := h.saveUploads(files)
	defer removeUploads(uploads, log)
	if err != nil {
		log.Error("Saving uploads failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Storage error.", "")
		return
	}
	log.Info("Received documents", "count", len(uploads))

	report, err := h.service.Process(r.Context(), id, uploads)
	if err != nil {
		res := adapter.ToErrorResponse(err)
		res.Warnings = append(report.Warnings, fileErrorWarnings(report)...)
		log.Warn("Processing documents failed", "code", res.Code, "error", err)
		writeJsonResponse(w, res.Code, res)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToProcessResponse(report))
}

// AskQuestionHandler godoc
// @Summary      Ask a question
// @Description  Answers a question from the processed documents and appends the exchange to the history. An empty question is ignored.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Session ID"
// @Param        request  body      api.QuestionRequest  true  "Question"
// @Success      200      {object}  api.AnswerResponse
// @Success      204      "Empty question, nothing to do"
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse  "Documents not processed or session busy"
// @Failure      502      {object}  api.ErrorResponse  "Answer generation failed"
// @Router       /sessions/{id}/questions [post]
func (h *SessionHandler) AskQuestionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionId(w, r)
	if !ok {
		return
	}
	var req api.QuestionRequest
	if err := decodeBody(r, &req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Bad Request", "Body must be JSON like {\"question\": \"...\"}")
		return
	}

	answer, err := h.service.Ask(r.Context(), id, req.Question)
	if errors.Is(err, session.ErrEmptyQuestion) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAnswerResponse(strings.TrimSpace(req.Question), answer))
}

// GetHistoryHandler godoc
// @Summary      Get the conversation history
// @Description  Messages in chronological order, alternating user and assistant.
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  api.HistoryResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /sessions/{id}/history [get]
func (h *SessionHandler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionId(w, r)
	if !ok {
		return
	}
	turns, err := h.service.History(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToHistoryResponse(id, turns))
}

// DeleteSessionHandler godoc
// @Summary      Delete a session
// @Description  Drops the session, its document index and its history.
// @Tags         Sessions
// @Security     BearerAuth
// @Param        id   path  string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  api.ErrorResponse
// @Failure      409  {object}  api.ErrorResponse  "Session busy"
// @Router       /sessions/{id} [delete]
func (h *SessionHandler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionId(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) saveUploads(files []*multipart.FileHeader) ([]commonModels.Upload, error) {
	if err := os.MkdirAll(h.uploadDir, 0750); err != nil {
		return nil, err
	}
	uploads := make([]commonModels.Upload, 0, len(files))
	for _, header := range files {
		name := filepath.Base(header.Filename)
		path := filepath.Join(h.uploadDir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), name))
		if err := copyUpload(header, path); err != nil {
			return uploads, fmt.Errorf("saving %s: %w", name, err)
		}
		uploads = append(uploads, commonModels.Upload{Name: name, Path: path})
	}
	return uploads, nil
}

func copyUpload(header *multipart.FileHeader, path string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

func fileErrorWarnings(report sessionModel.ProcessReport) []string {
	var out []string
	for _, fe := range report.FileErrors {
		out = append(out, fe.Name+": "+fe.Message)
	}
	return out
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
