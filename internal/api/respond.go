// internal/api/respond.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	custom_errors "repo-intel/internal/errors"
)

type errorBody struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	Field          string `json:"field,omitempty"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, code int, errCode, message string) {
	respondWithJSON(w, code, map[string]errorBody{"error": {Code: errCode, Message: message}})
}

// respondWithOperationError maps an operation failure onto a status code and error body.
func (h *Handler) respondWithOperationError(w http.ResponseWriter, key string, err error) {
	status, body := classifyError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Operation failed", "operation", key, "status", status, "error", err)
	} else {
		h.logger.Info("Operation rejected", "operation", key, "status", status, "error", err)
	}
	respondWithJSON(w, status, map[string]errorBody{"error": body})
}

func classifyError(err error) (int, errorBody) {
	var (
		validationErr *custom_errors.ValidationError
		formatErr     *custom_errors.ErrInvalidRepoFormat
		unknownErr    *custom_errors.ErrUnknownOperation
		upstreamErr   *custom_errors.UpstreamError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, errorBody{Code: "validation_error", Message: validationErr.Message, Field: validationErr.Field}
	case errors.As(err, &formatErr):
		return http.StatusBadRequest, errorBody{Code: "validation_error", Message: formatErr.Error()}
	case errors.As(err, &unknownErr):
		return http.StatusNotFound, errorBody{Code: "unknown_operation", Message: unknownErr.Error()}
	case errors.As(err, &upstreamErr):
		status := http.StatusBadGateway
		if upstreamErr.Status == http.StatusNotFound {
			status = http.StatusNotFound
		}
		return status, errorBody{Code: "upstream_error", Message: upstreamErr.Error(), UpstreamStatus: upstreamErr.Status}
	default:
		return http.StatusInternalServerError, errorBody{Code: "internal_error", Message: "Internal server error"}
	}
}
