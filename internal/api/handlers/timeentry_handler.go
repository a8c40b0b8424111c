package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pvillarroel/timetracker-be/internal/apperrors"
	"github.com/pvillarroel/timetracker-be/internal/auth"
	"github.com/pvillarroel/timetracker-be/internal/services"
)

// TimeEntryHandler handles HTTP requests for the time entry lifecycle.
type TimeEntryHandler struct {
	service services.TimeEntryServiceProvider
}

// NewTimeEntryHandler creates a new TimeEntryHandler.
func NewTimeEntryHandler(service services.TimeEntryServiceProvider) *TimeEntryHandler {
	return &TimeEntryHandler{service: service}
}

// StartPayload defines the structure for start requests.
type StartPayload struct {
	TaskID string `json:"taskId"`
}

// Start begins a running entry for the principal on a task.
func (h *TimeEntryHandler) Start(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.PrincipalEmail(r.Context())
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	var payload StartPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondInvalidBody(w)
		return
	}
	if payload.TaskID == "" {
		respondError(w, apperrors.Invalid("taskId is required"))
		return
	}

	entry, err := h.service.Start(email, payload.TaskID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// Stop closes the principal's running entry. No body: the engine locates
// the unique running entry itself.
func (h *TimeEntryHandler) Stop(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.PrincipalEmail(r.Context())
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	entry, err := h.service.Stop(email)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// Create stores a manual entry with caller-supplied fields.
func (h *TimeEntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.PrincipalEmail(r.Context())
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	var input services.TimeEntryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondInvalidBody(w)
		return
	}

	entry, err := h.service.Create(email, input)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// Update overwrites an existing entry.
func (h *TimeEntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.PrincipalEmail(r.Context())
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	var input services.TimeEntryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondInvalidBody(w)
		return
	}

	entry, err := h.service.Update(chi.URLParam(r, "id"), email, input)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// Delete removes an entry.
func (h *TimeEntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.PrincipalEmail(r.Context())
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	if err := h.service.Delete(chi.URLParam(r, "id"), email); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Get retrieves a single entry by ID.
func (h *TimeEntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.PrincipalEmail(r.Context())
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	entry, err := h.service.GetByID(chi.URLParam(r, "id"), email)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

// GetMine lists all entries for the principal.
func (h *TimeEntryHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.PrincipalEmail(r.Context())
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	entries, err := h.service.GetMine(email)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// GetByTask lists entries for a task.
func (h *TimeEntryHandler) GetByTask(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.PrincipalEmail(r.Context())
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	entries, err := h.service.GetByTask(chi.URLParam(r, "taskId"), email)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// GetByProjectAndRange lists entries for a project whose start time falls
// within the inclusive [startDate, endDate] window. Dates are RFC3339 query
// parameters.
func (h *TimeEntryHandler) GetByProjectAndRange(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.PrincipalEmail(r.Context())
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("startDate"))
	if err != nil {
		respondError(w, apperrors.Invalid("startDate must be a RFC3339 timestamp"))
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("endDate"))
	if err != nil {
		respondError(w, apperrors.Invalid("endDate must be a RFC3339 timestamp"))
		return
	}

	entries, err := h.service.GetByProjectAndRange(chi.URLParam(r, "projectId"), from, to, email)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
