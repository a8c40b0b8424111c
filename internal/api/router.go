package api

import (
	"database/sql"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pvillarroel/timetracker-be/internal/api/handlers"
	"github.com/pvillarroel/timetracker-be/internal/auth"
	"github.com/pvillarroel/timetracker-be/internal/services"
	"github.com/pvillarroel/timetracker-be/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	db *sql.DB,
	hub *websocket.Hub,
	userService services.UserServiceProvider,
	projectService services.ProjectServiceProvider,
	taskService services.TaskServiceProvider,
	timeEntryService services.TimeEntryServiceProvider,
	eventService services.EventServiceProvider,
	corsOrigin string,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{corsOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	projectHandler := handlers.NewProjectHandler(projectService)
	taskHandler := handlers.NewTaskHandler(taskService)
	timeEntryHandler := handlers.NewTimeEntryHandler(timeEntryService)
	eventHandler := handlers.NewEventHandler(eventService)
	healthHandler := handlers.NewHealthHandler(db)
	wsHandler := handlers.NewWebSocketHandler(hub)

	r.Get("/health", healthHandler.Get)

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/register", userHandler.Register)
		r.Post("/auth/login", userHandler.Login)

		// WebSocket handshake authenticates via token query parameter
		r.Get("/ws", wsHandler.Serve)

		// Everything below requires a verified principal
		r.Group(func(r chi.Router) {
			r.Use(auth.JWTMiddleware())

			r.Get("/users/me", userHandler.GetMe)
			r.Get("/events", eventHandler.GetRecent)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.GetMine)
				r.Post("/", projectHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", projectHandler.Get)
					r.Put("/", projectHandler.Update)
					r.Delete("/", projectHandler.Delete)
				})
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/project/{projectId}", taskHandler.GetByProject)
				r.Post("/", taskHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", taskHandler.Get)
					r.Put("/", taskHandler.Update)
					r.Delete("/", taskHandler.Delete)
				})
			})

			r.Route("/time-entries", func(r chi.Router) {
				r.Get("/", timeEntryHandler.GetMine)
				r.Post("/", timeEntryHandler.Create)
				r.Post("/start", timeEntryHandler.Start)
				r.Post("/stop", timeEntryHandler.Stop)
				r.Get("/task/{taskId}", timeEntryHandler.GetByTask)
				r.Get("/project/{projectId}/range", timeEntryHandler.GetByProjectAndRange)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", timeEntryHandler.Get)
					r.Put("/", timeEntryHandler.Update)
					r.Delete("/", timeEntryHandler.Delete)
				})
			})
		})
	})

	return r
}
