package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"movimenti/internal/core"
	"movimenti/internal/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses and renders the
// uniform {"error": "..."} body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldPath, r.URL.Path)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrTransactionExists):
		return http.StatusConflict
	case errors.Is(err, core.ErrAccountNotFound),
		errors.Is(err, core.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidRequest),
		errors.Is(err, core.ErrEmptyImport),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidTimestamp):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
