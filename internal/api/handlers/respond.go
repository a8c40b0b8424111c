package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pvillarroel/timetracker-be/internal/apperrors"
	"github.com/rs/zerolog/log"
)

// ErrorResponse is the JSON error body returned by every endpoint.
type ErrorResponse struct {
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   []string  `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// respondJSON writes v as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// respondError maps an application error to its HTTP status and error body.
// Unclassified errors surface as a generic 500 without leaking detail.
func respondError(w http.ResponseWriter, err error) {
	appErr := apperrors.From(err)

	var status int
	var errText string
	switch appErr.Kind {
	case apperrors.KindNotFound:
		status, errText = http.StatusNotFound, "Not Found"
	case apperrors.KindConflict:
		status, errText = http.StatusConflict, "Conflict"
	case apperrors.KindInvalidInput:
		status, errText = http.StatusBadRequest, "Bad Request"
	case apperrors.KindUnauthenticated:
		status, errText = http.StatusUnauthorized, "Unauthorized"
	default:
		status, errText = http.StatusInternalServerError, "Internal Server Error"
		log.Error().Err(err).Msg("Unhandled internal error")
	}

	respondJSON(w, status, ErrorResponse{
		Status:    status,
		Error:     errText,
		Code:      appErr.Code,
		Message:   appErr.Message,
		Timestamp: time.Now().UTC(),
	})
}

// respondInvalidBody is the shared reply for undecodable request bodies.
func respondInvalidBody(w http.ResponseWriter) {
	respondError(w, apperrors.Invalid("Invalid request body"))
}
