package services

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pvillarroel/timetracker-be/internal/apperrors"
	"github.com/pvillarroel/timetracker-be/internal/models"
	ws "github.com/pvillarroel/timetracker-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// TimeEntryInput carries the caller-supplied fields for manual time entry
// creation and updates. EndTime, Duration and Cost are stored exactly as
// supplied; the stop computation never runs for manual entries.
type TimeEntryInput struct {
	TaskID    string     `json:"taskId"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Duration  *int64     `json:"duration,omitempty"`
	Cost      *float64   `json:"cost,omitempty"`
}

// TimeEntryServiceProvider defines the interface for the time entry
// lifecycle engine.
type TimeEntryServiceProvider interface {
	Start(email, taskID string) (models.TimeEntry, error)
	Stop(email string) (models.TimeEntry, error)
	Create(email string, input TimeEntryInput) (models.TimeEntry, error)
	Update(id, email string, input TimeEntryInput) (models.TimeEntry, error)
	Delete(id, email string) error
	GetByID(id, email string) (models.TimeEntry, error)
	GetMine(email string) ([]models.TimeEntry, error)
	GetByTask(taskID, email string) ([]models.TimeEntry, error)
	GetByProjectAndRange(projectID string, from, to time.Time, email string) ([]models.TimeEntry, error)
	GetRunningOlderThan(cutoff time.Time) ([]models.TimeEntry, error)
}

// TimeEntryService enforces the start/stop state machine and the
// single-running-entry-per-user invariant.
type TimeEntryService struct {
	db           *sql.DB
	eventService EventServiceProvider
	hub          *ws.Hub

	// now is swappable so tests can pin the clock.
	now func() time.Time
}

// NewTimeEntryService creates a new TimeEntryService. The hub may be nil
// when no live updates are wanted (e.g. in tests).
func NewTimeEntryService(db *sql.DB, eventService EventServiceProvider, hub *ws.Hub) *TimeEntryService {
	return &TimeEntryService{db: db, eventService: eventService, hub: hub, now: time.Now}
}

// Start begins a running time entry for the principal on the given task.
// It fails with ACTIVE_TIME_ENTRY_EXISTS when the principal already has a
// running entry. The existence check and the insert are one transaction.
func (s *TimeEntryService) Start(email, taskID string) (models.TimeEntry, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.TimeEntry{}, err
	}
	defer tx.Rollback()

	user, err := findUserByEmail(tx, email)
	if err != nil {
		return models.TimeEntry{}, err
	}

	task, err := ownedTask(tx, taskID, user.ID)
	if err != nil {
		return models.TimeEntry{}, err
	}

	if _, err := runningEntryForUser(tx, user.ID); err == nil {
		return models.TimeEntry{}, apperrors.Conflict(apperrors.CodeActiveTimeEntryExists, "You already have an active time entry")
	} else if err != sql.ErrNoRows {
		return models.TimeEntry{}, err
	}

	entry := models.TimeEntry{
		ID:        uuid.New().String(),
		TaskID:    task.ID,
		UserID:    user.ID,
		StartTime: s.now().UTC().Truncate(time.Second),
		CreatedAt: s.now().UTC().Truncate(time.Second),
	}

	_, err = tx.Exec(`
		INSERT INTO time_entries (id, task_id, user_id, start_time, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.TaskID, entry.UserID, entry.StartTime, entry.CreatedAt)
	if err != nil {
		return models.TimeEntry{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.TimeEntry{}, err
	}

	s.notify(user.ID, "time_entry.started", entry)
	s.eventService.CreateEvent("entry.start", "info", fmt.Sprintf("Timer started on task '%s'.", task.Name), &user.ID)
	return entry, nil
}

// Stop closes the principal's running entry, deriving duration and cost.
// Locating the entry and persisting the close are one transaction, so two
// concurrent stops cannot both observe the entry as running.
func (s *TimeEntryService) Stop(email string) (models.TimeEntry, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.TimeEntry{}, err
	}
	defer tx.Rollback()

	user, err := findUserByEmail(tx, email)
	if err != nil {
		return models.TimeEntry{}, err
	}

	entry, err := runningEntryForUser(tx, user.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.TimeEntry{}, apperrors.Conflict(apperrors.CodeNoActiveTimeEntry, "No active time entry found")
		}
		return models.TimeEntry{}, err
	}

	endTime := s.now().UTC().Truncate(time.Second)
	// Whole elapsed seconds, truncated to match wall-clock subtraction.
	seconds := int64(endTime.Sub(entry.StartTime) / time.Second)

	rate, err := taskHourlyCost(tx, entry.TaskID)
	if err != nil {
		return models.TimeEntry{}, err
	}

	var cost *float64
	if rate != nil {
		hours := roundHalfUp2(float64(seconds) / 3600)
		c := roundHalfUp2(*rate * hours)
		cost = &c
	}

	_, err = tx.Exec("UPDATE time_entries SET end_time = ?, duration = ?, cost = ? WHERE id = ?",
		endTime, seconds, costArg(cost), entry.ID)
	if err != nil {
		return models.TimeEntry{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.TimeEntry{}, err
	}

	entry.EndTime = &endTime
	entry.Duration = &seconds
	entry.Cost = cost

	s.notify(user.ID, "time_entry.stopped", entry)
	s.eventService.CreateEvent("entry.stop", "info", fmt.Sprintf("Timer stopped after %ds.", seconds), &user.ID)
	return entry, nil
}

// Create stores a manual time entry. End time, duration and cost are taken
// as-is; no consistency between them is enforced, and a manual entry does
// not occupy the running-entry slot.
func (s *TimeEntryService) Create(email string, input TimeEntryInput) (models.TimeEntry, error) {
	if err := validateInput(input); err != nil {
		return models.TimeEntry{}, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.TimeEntry{}, err
	}
	defer tx.Rollback()

	user, err := findUserByEmail(tx, email)
	if err != nil {
		return models.TimeEntry{}, err
	}

	task, err := ownedTask(tx, input.TaskID, user.ID)
	if err != nil {
		return models.TimeEntry{}, err
	}

	entry := models.TimeEntry{
		ID:        uuid.New().String(),
		TaskID:    task.ID,
		UserID:    user.ID,
		StartTime: input.StartTime.UTC(),
		EndTime:   utcPtr(input.EndTime),
		Duration:  input.Duration,
		Cost:      input.Cost,
		CreatedAt: s.now().UTC().Truncate(time.Second),
	}

	_, err = tx.Exec(`
		INSERT INTO time_entries (id, task_id, user_id, start_time, end_time, duration, cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.TaskID, entry.UserID, entry.StartTime, timeArg(entry.EndTime),
		durationArg(entry.Duration), costArg(entry.Cost), entry.CreatedAt)
	if err != nil {
		return models.TimeEntry{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.TimeEntry{}, err
	}

	s.eventService.CreateEvent("entry.create", "info", fmt.Sprintf("Manual entry created on task '%s'.", task.Name), &user.ID)
	return entry, nil
}

// Update overwrites an owned entry with the supplied fields. Reassigning the
// task requires ownership of the new task as well.
func (s *TimeEntryService) Update(id, email string, input TimeEntryInput) (models.TimeEntry, error) {
	if err := validateInput(input); err != nil {
		return models.TimeEntry{}, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.TimeEntry{}, err
	}
	defer tx.Rollback()

	user, err := findUserByEmail(tx, email)
	if err != nil {
		return models.TimeEntry{}, err
	}

	entry, err := ownedTimeEntry(tx, id, user.ID)
	if err != nil {
		return models.TimeEntry{}, err
	}

	task, err := ownedTask(tx, input.TaskID, user.ID)
	if err != nil {
		return models.TimeEntry{}, err
	}

	entry.TaskID = task.ID
	entry.StartTime = input.StartTime.UTC()
	entry.EndTime = utcPtr(input.EndTime)
	entry.Duration = input.Duration
	entry.Cost = input.Cost

	_, err = tx.Exec(`
		UPDATE time_entries SET task_id = ?, start_time = ?, end_time = ?, duration = ?, cost = ?
		WHERE id = ?`,
		entry.TaskID, entry.StartTime, timeArg(entry.EndTime),
		durationArg(entry.Duration), costArg(entry.Cost), entry.ID)
	if err != nil {
		return models.TimeEntry{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.TimeEntry{}, err
	}

	s.eventService.CreateEvent("entry.update", "info", fmt.Sprintf("Entry %s updated.", entry.ID), &user.ID)
	return entry, nil
}

// Delete removes an owned entry.
func (s *TimeEntryService) Delete(id, email string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	user, err := findUserByEmail(tx, email)
	if err != nil {
		return err
	}

	entry, err := ownedTimeEntry(tx, id, user.ID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM time_entries WHERE id = ?", entry.ID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.eventService.CreateEvent("entry.delete", "warn", fmt.Sprintf("Entry %s deleted.", entry.ID), &user.ID)
	return nil
}

// GetByID retrieves a single owned entry.
func (s *TimeEntryService) GetByID(id, email string) (models.TimeEntry, error) {
	user, err := findUserByEmail(s.db, email)
	if err != nil {
		return models.TimeEntry{}, err
	}
	return ownedTimeEntry(s.db, id, user.ID)
}

// GetMine retrieves all entries for the principal, newest first.
func (s *TimeEntryService) GetMine(email string) ([]models.TimeEntry, error) {
	user, err := findUserByEmail(s.db, email)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
		SELECT id, task_id, user_id, start_time, end_time, duration, cost, created_at
		FROM time_entries WHERE user_id = ? ORDER BY start_time DESC`, user.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTimeEntries(rows)
}

// GetByTask retrieves all entries for an owned task, newest first.
func (s *TimeEntryService) GetByTask(taskID, email string) ([]models.TimeEntry, error) {
	user, err := findUserByEmail(s.db, email)
	if err != nil {
		return nil, err
	}
	task, err := ownedTask(s.db, taskID, user.ID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
		SELECT id, task_id, user_id, start_time, end_time, duration, cost, created_at
		FROM time_entries WHERE task_id = ? ORDER BY start_time DESC`, task.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTimeEntries(rows)
}

// GetByProjectAndRange retrieves entries for an owned project whose start
// time falls within [from, to] inclusive, newest first.
func (s *TimeEntryService) GetByProjectAndRange(projectID string, from, to time.Time, email string) ([]models.TimeEntry, error) {
	user, err := findUserByEmail(s.db, email)
	if err != nil {
		return nil, err
	}
	project, err := ownedProject(s.db, projectID, user.ID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
		SELECT te.id, te.task_id, te.user_id, te.start_time, te.end_time, te.duration, te.cost, te.created_at
		FROM time_entries te JOIN tasks t ON t.id = te.task_id
		WHERE t.project_id = ? AND te.start_time BETWEEN ? AND ?
		ORDER BY te.start_time DESC`, project.ID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTimeEntries(rows)
}

// GetRunningOlderThan lists running entries that started before the cutoff.
// Used by the reminder job to nudge users about forgotten timers.
func (s *TimeEntryService) GetRunningOlderThan(cutoff time.Time) ([]models.TimeEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, task_id, user_id, start_time, end_time, duration, cost, created_at
		FROM time_entries WHERE end_time IS NULL AND start_time < ?
		ORDER BY start_time DESC`, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTimeEntries(rows)
}

// runningEntryForUser finds the user's newest entry with a null end time.
// Returns sql.ErrNoRows when the user has nothing running.
func runningEntryForUser(q dbtx, userID string) (models.TimeEntry, error) {
	row := q.QueryRow(`
		SELECT id, task_id, user_id, start_time, end_time, duration, cost, created_at
		FROM time_entries WHERE user_id = ? AND end_time IS NULL
		ORDER BY start_time DESC LIMIT 1`, userID)
	return scanTimeEntry(row)
}

func (s *TimeEntryService) notify(userID, action string, entry models.TimeEntry) {
	if s.hub == nil {
		return
	}
	msg, err := ws.NewTimerMessage(action, entry)
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode timer message")
		return
	}
	s.hub.BroadcastTo(userID, msg)
}

func validateInput(input TimeEntryInput) error {
	if input.TaskID == "" {
		return apperrors.Invalid("taskId is required")
	}
	if input.StartTime.IsZero() {
		return apperrors.Invalid("startTime is required")
	}
	if input.Duration != nil && *input.Duration < 0 {
		return apperrors.Invalid("duration must be greater than or equal to 0")
	}
	if input.Cost != nil && *input.Cost < 0 {
		return apperrors.Invalid("cost must be greater than or equal to 0")
	}
	return nil
}

// roundHalfUp2 rounds a non-negative amount to 2 decimal places, half-up.
func roundHalfUp2(x float64) float64 {
	return math.Round(x*100) / 100
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// SQL argument helpers: typed pointers don't map to NULL through the driver
// the way untyped nils do, so unwrap them explicitly.

func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func durationArg(d *int64) any {
	if d == nil {
		return nil
	}
	return *d
}

func costArg(c *float64) any {
	if c == nil {
		return nil
	}
	return *c
}

// scanTimeEntry scans a single row into a TimeEntry.
func scanTimeEntry(scanner interface{ Scan(...any) error }) (models.TimeEntry, error) {
	var entry models.TimeEntry
	var endTime sql.NullTime
	var duration sql.NullInt64
	var cost sql.NullFloat64
	err := scanner.Scan(
		&entry.ID,
		&entry.TaskID,
		&entry.UserID,
		&entry.StartTime,
		&endTime,
		&duration,
		&cost,
		&entry.CreatedAt,
	)
	if err != nil {
		return models.TimeEntry{}, err
	}
	entry.StartTime = entry.StartTime.UTC()
	if endTime.Valid {
		t := endTime.Time.UTC()
		entry.EndTime = &t
	}
	if duration.Valid {
		entry.Duration = &duration.Int64
	}
	if cost.Valid {
		entry.Cost = &cost.Float64
	}
	return entry, nil
}

// scanTimeEntries scans multiple rows into a slice of TimeEntries.
func scanTimeEntries(rows *sql.Rows) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry
	for rows.Next() {
		entry, err := scanTimeEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
