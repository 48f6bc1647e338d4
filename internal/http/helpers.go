package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/splitpro/splitpro-backend/internal/domain"
)

// requesterID extracts the authenticated caller from the X-User-ID header.
func requesterID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get("X-User-ID")
	if id == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing X-User-ID header"})
		return "", false
	}
	return id, true
}

type errorResponse struct {
	Error string `json:"error"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps domain error kinds onto HTTP statuses. Anything not in the
// taxonomy is an internal error and its detail stays out of the response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr    *domain.ValidationError
		notFoundErr      *domain.NotFoundError
		authorizationErr *domain.AuthorizationError
		fault            *domain.ConsistencyFault
	)
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Error()})
	case errors.As(err, &notFoundErr):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: notFoundErr.Error()})
	case errors.As(err, &authorizationErr):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: authorizationErr.Error()})
	case errors.As(err, &fault):
		slog.ErrorContext(r.Context(), "consistency fault surfaced to API",
			"error", fault, "url", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "ledger consistency fault"})
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"error", err, "method", r.Method, "url", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
