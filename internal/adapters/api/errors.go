package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pramitgaha21/upload-file/internal/core/services/store"
	apperrors "github.com/pramitgaha21/upload-file/pkg/errors"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// statusOf maps store errors onto HTTP status codes.
func statusOf(err error) int {
	if apperrors.IsValidationError(err) {
		return http.StatusBadRequest
	}

	switch {
	case errors.Is(err, store.ErrAnonymousCaller):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrStoreClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}

	switch apperrors.CategoryOf(err) {
	case apperrors.ErrorNotFound:
		return http.StatusNotFound
	case apperrors.ErrorUnauthorized:
		return http.StatusForbidden
	case apperrors.ErrorChecksum:
		return http.StatusUnprocessableEntity
	case apperrors.ErrorStorage:
		return http.StatusInsufficientStorage
	}

	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.log.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	resp := errorResponse{Error: err.Error()}
	if ve := apperrors.AsValidationError(err); ve != nil {
		resp.Field = ve.Field
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
