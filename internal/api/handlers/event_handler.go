package handlers

import (
	"net/http"
	"strconv"

	"github.com/pvillarroel/timetracker-be/internal/apperrors"
	"github.com/pvillarroel/timetracker-be/internal/auth"
	"github.com/pvillarroel/timetracker-be/internal/services"
)

// EventHandler handles HTTP requests for the audit event log.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetRecent returns the principal's most recent events.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value(auth.UserClaimsKey).(*auth.Claims)
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 500 {
			respondError(w, apperrors.Invalid("limit must be an integer between 1 and 500"))
			return
		}
		limit = parsed
	}

	events, err := h.service.GetRecentForUser(claims.UserID, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, events)
}
