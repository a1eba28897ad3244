package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"subcal/internal/core"
)

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	writeJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: message, Details: details}})
}

// domainErrors are the validation failures safe to echo to clients.
var domainErrors = []error{
	core.ErrEmptyName,
	core.ErrNameTooLong,
	core.ErrInvalidAmount,
	core.ErrInvalidCycle,
	core.ErrInvalidDueDay,
	core.ErrInvalidDate,
	core.ErrEndBeforeStart,
}

// writeServiceError maps err to a status. Unknown errors become 500 without
// leaking their text.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		writeError(w, http.StatusBadRequest, "validation", reqErr.message, reqErr.details)
		return
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "subscription not found", nil)
		return
	}
	for _, de := range domainErrors {
		if errors.Is(err, de) {
			writeError(w, http.StatusBadRequest, "validation", de.Error(), nil)
			return
		}
	}

	s.logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, "internal", "internal server error", nil)
}
