package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/pvillarroel/timetracker-be/internal/apperrors"
	"github.com/pvillarroel/timetracker-be/internal/auth"
	"github.com/pvillarroel/timetracker-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for registration and authentication.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondInvalidBody(w)
		return
	}

	user, err := h.service.Register(payload.Email, payload.Name, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondInvalidBody(w)
		return
	}

	user, err := h.service.Authenticate(payload.Email, payload.Password)
	if err != nil {
		log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
		respondError(w, err)
		return
	}

	token, err := auth.GenerateJWT(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		respondError(w, err)
		return
	}

	// Set Secure flag based on environment.
	isProd := os.Getenv("APP_ENV") == "production"

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		Secure:   isProd,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":     token,
		"tokenType": "Bearer",
		"user":      user,
	})
}

// GetMe retrieves the currently authenticated user from the token.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.PrincipalEmail(r.Context())
	if !ok {
		respondError(w, apperrors.Unauthenticated("Missing auth token"))
		return
	}

	user, err := h.service.GetByEmail(email)
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("User from token not found in DB")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}
