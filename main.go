package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pvillarroel/timetracker-be/internal/api"
	"github.com/pvillarroel/timetracker-be/internal/auth"
	"github.com/pvillarroel/timetracker-be/internal/config"
	"github.com/pvillarroel/timetracker-be/internal/database"
	"github.com/pvillarroel/timetracker-be/internal/logger"
	"github.com/pvillarroel/timetracker-be/internal/monitoring"
	"github.com/pvillarroel/timetracker-be/internal/services"
	"github.com/pvillarroel/timetracker-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel)

	auth.Init(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	userService := services.NewUserService(db)
	eventService := services.NewEventService(db)
	projectService := services.NewProjectService(db)
	taskService := services.NewTaskService(db)
	timeEntryService := services.NewTimeEntryService(db, eventService, hub)

	// Set up and run the runaway-timer reminder
	reminder, err := monitoring.NewReminder(timeEntryService, eventService, hub,
		cfg.ReminderCron, time.Duration(cfg.ReminderMaxRunHours)*time.Hour)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize reminder job")
	}
	go reminder.Run()

	// Set up router
	router := api.NewRouter(db, hub, userService, projectService, taskService, timeEntryService, eventService, cfg.CORSOrigin)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	reminder.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
