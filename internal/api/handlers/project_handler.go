package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pvillarroel/timetracker-be/internal/apperrors"
	"github.com/pvillarroel/timetracker-be/internal/auth"
	"github.com/pvillarroel/timetracker-be/internal/services"
)

// ProjectHandler handles HTTP requests for project management.
type ProjectHandler struct {
	service services.ProjectServiceProvider
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(service services.ProjectServiceProvider) *ProjectHandler {
	return &ProjectHandler{service: service}
}

// GetMine handles the request to list the principal's projects.
func (h *ProjectHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.PrincipalEmail(r.Context())
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	projects, err := h.service.GetMine(email)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, projects)
}

// Get handles retrieving a project by ID.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.PrincipalEmail(r.Context())
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	project, err := h.service.GetByID(chi.URLParam(r, "id"), email)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// Create handles the request to create a new project.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.PrincipalEmail(r.Context())
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	var input services.ProjectInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondInvalidBody(w)
		return
	}

	project, err := h.service.Create(email, input)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, project)
}

// Update handles the request to update an existing project.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.PrincipalEmail(r.Context())
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	var input services.ProjectInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondInvalidBody(w)
		return
	}

	project, err := h.service.Update(chi.URLParam(r, "id"), email, input)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// Delete handles the request to delete a project.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
