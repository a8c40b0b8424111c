package services

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/pvillarroel/timetracker-be/internal/models"
	"github.com/rs/zerolog/log"
)

// EventServiceProvider defines the interface for the audit event log.
type EventServiceProvider interface {
	CreateEvent(eventType, level, message string, userID *string)
	GetRecentForUser(userID string, limit int) ([]models.Event, error)
}

// EventService provides an append-only audit trail of lifecycle actions.
type EventService struct {
	db *sql.DB
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db}
}

// CreateEvent logs a new event. Failures are logged and swallowed: the audit
// trail must never fail the operation it describes.
func (s *EventService) CreateEvent(eventType, level, message string, userID *string) {
	event := models.Event{
		ID:      uuid.New().String(),
		Type:    eventType,
		Level:   level,
		Message: message,
		UserID:  userID,
	}

	_, err := s.db.Exec("INSERT INTO events (id, type, level, message, user_id) VALUES (?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, userIDArg(event.UserID))
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}

// GetRecentForUser retrieves the most recent events for a user.
func (s *EventService) GetRecentForUser(userID string, limit int) ([]models.Event, error) {
	rows, err := s.db.Query(`
		SELECT id, type, level, message, user_id, created_at
		FROM events WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.UserID, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func userIDArg(id *string) any {
	if id == nil {
		return nil
	}
	return *id
}
