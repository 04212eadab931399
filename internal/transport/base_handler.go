package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/actor"
	"github.com/frahmantamala/leave-management/pkg/logger"
	"github.com/go-chi/chi"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Error("http error", "status", status, "message", message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errorResp := map[string]interface{}{
		"code":    status,
		"message": message,
	}

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		h.Logger.Error("failed to encode error response", "error", err)
	}
}

// HandleServiceError maps an AppError onto its status code. Anything else
// is reported as a 500 without leaking the cause.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		status, body := appErr.ToHTTPResponse()
		if status >= http.StatusInternalServerError {
			h.Logger.Error("service error", "code", appErr.Code, "error", appErr.GetDetailedMessage())
		}
		h.WriteJSON(w, status, body)
		return
	}

	h.Logger.Error("unexpected service error", "error", err)
	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}

// RequireActor reads the authenticated actor or writes a 401.
func (h *BaseHandler) RequireActor(w http.ResponseWriter, r *http.Request) (actor.Actor, bool) {
	a, ok := actor.FromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return actor.Actor{}, false
	}
	return a, true
}

// PathID parses a positive integer URL parameter or writes a 400.
func (h *BaseHandler) PathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// DecodeJSON decodes the request body or writes a 400.
func (h *BaseHandler) DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.Logger.Debug("invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
