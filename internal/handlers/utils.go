package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/akolanti/PDFChat/internal/adapter"
	"github.com/akolanti/PDFChat/internal/adapter/utils"
	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/pkg/logger_i"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// can't send a clean status code now
		logger_i.NewLogger("RequestHandler").Error("Error encoding response", "error", err)
	}
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}

	select {
	case <-ctx.Done():
		return false
	default:
		return true
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, message string, hint string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(httpCode, message, hint))
}

func (h *SessionHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	res := adapter.ToErrorResponse(err)
	log := h.logger.WithTrace(r.Context(), config.TRACE_ID_KEY)
	if res.Code >= http.StatusInternalServerError {
		log.Error("Request failed", "path", r.URL.Path, "code", res.Code, "error", err)
	} else {
		log.Warn("Request rejected", "path", r.URL.Path, "code", res.Code, "error", err)
	}
	writeJsonResponse(w, res.Code, res)
}

// sessionId reads and checks the {id} path parameter, writing the error response itself.
func (h *SessionHandler) sessionId(w http.ResponseWriter, r *http.Request) (string, bool) {
	if !validateContext(r.Context()) {
		h.logger.Warn("Invalid Context by request", "remote", r.RemoteAddr)
		return "", false
	}
	id := utils.GetChiURLParam(r, "id")
	if !utils.IsValidUUID(id) {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid session id.", "Session ids are returned by POST /sessions")
		return "", false
	}
	return id, true
}

func removeUploads(uploads []commonModels.Upload, log *logger_i.Logger) {
	for _, u := range uploads {
		if err := os.Remove(u.Path); err != nil && !os.IsNotExist(err) {
			log.Warn("Could not remove temporary upload", "path", u.Path, "error", err)
		}
	}
}
