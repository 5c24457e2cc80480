package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"notecottage/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Warn("encode response", "err", err)
		}
	}
}

// writeError maps store errors onto HTTP statuses. Corruption gets a
// distinct operator-facing message; everything unexpected is logged and
// hidden behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *store.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, store.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "permission denied"})
	case errors.As(err, &ve),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrTagInUse),
		errors.Is(err, store.ErrFolderCycle),
		errors.Is(err, store.ErrProtectedFolder),
		errors.Is(err, store.ErrLastAdmin):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, store.ErrSearchIndexCorrupt):
		slog.Error("search index corrupt", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error: "search index corrupted, run the fix-index tool to rebuild it",
		})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &store.ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}
