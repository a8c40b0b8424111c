package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pvillarroel/timetracker-be/internal/apperrors"
	"github.com/pvillarroel/timetracker-be/internal/auth"
	"github.com/pvillarroel/timetracker-be/internal/services"
)

// TaskHandler handles HTTP requests for task management.
type TaskHandler struct {
	service services.TaskServiceProvider
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(service services.TaskServiceProvider) *TaskHandler {
	return &TaskHandler{service: service}
}

// GetByProject handles the request to list tasks for a project.
func (h *TaskHandler) GetByProject(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.PrincipalEmail(r.Context())
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	tasks, err := h.service.GetByProject(chi.URLParam(r, "projectId"), email)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tasks)
}

// Get handles retrieving a task by ID.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.PrincipalEmail(r.Context())
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	task, err := h.service.GetByID(chi.URLParam(r, "id"), email)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// Create handles the request to create a new task.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.PrincipalEmail(r.Context())
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	var input services.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondInvalidBody(w)
		return
	}

	task, err := h.service.Create(email, input)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

// Update handles the request to rename a task.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.PrincipalEmail(r.Context())
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondInvalidBody(w)
		return
	}

	task, err := h.service.Update(chi.URLParam(r, "id"), email, payload.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// Delete handles the request to delete a task.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
