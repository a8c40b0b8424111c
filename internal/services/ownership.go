package services

import (
	"database/sql"

	"github.com/pvillarroel/timetracker-be/internal/apperrors"
	"github.com/pvillarroel/timetracker-be/internal/models"
)

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx, so the
// ownership walk can run standalone or inside a lifecycle transaction.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// findUserByEmail resolves a verified principal email to its user record,
// including the password hash.
func findUserByEmail(q dbtx, email string) (models.User, error) {
	var user models.User
	row := q.QueryRow("SELECT id, email, name, password_hash, enabled, created_at, updated_at FROM users WHERE email = ?", email)
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Enabled, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperrors.NotFound(apperrors.CodeUserNotFound, "User not found with email: %s", email)
		}
		return models.User{}, err
	}
	return user, nil
}

// ownedProject resolves a project and verifies the given user owns it.
// A missing project and a project owned by someone else are indistinguishable
// to the caller: both come back as PROJECT_NOT_FOUND.
func ownedProject(q dbtx, projectID, userID string) (models.Project, error) {
	var p models.Project
	var hourlyCost sql.NullFloat64
	row := q.QueryRow("SELECT id, user_id, name, hourly_cost, created_at, updated_at FROM projects WHERE id = ?", projectID)
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &hourlyCost, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Project{}, apperrors.NotFound(apperrors.CodeProjectNotFound, "Project not found with id: %s", projectID)
		}
		return models.Project{}, err
	}
	if p.UserID != userID {
		return models.Project{}, apperrors.NotFound(apperrors.CodeProjectNotFound, "Project not found with id: %s", projectID)
	}
	if hourlyCost.Valid {
		p.HourlyCost = &hourlyCost.Float64
	}
	return p, nil
}

// ownedTask resolves a task and verifies ownership through its project.
func ownedTask(q dbtx, taskID, userID string) (models.Task, error) {
	var t models.Task
	var ownerID string
	row := q.QueryRow(`
		SELECT t.id, t.project_id, t.name, t.created_at, t.updated_at, p.user_id
		FROM tasks t JOIN projects p ON p.id = t.project_id
		WHERE t.id = ?`, taskID)
	err := row.Scan(&t.ID, &t.ProjectID, &t.Name, &t.CreatedAt, &t.UpdatedAt, &ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Task{}, apperrors.NotFound(apperrors.CodeTaskNotFound, "Task not found with id: %s", taskID)
		}
		return models.Task{}, err
	}
	if ownerID != userID {
		return models.Task{}, apperrors.NotFound(apperrors.CodeTaskNotFound, "Task not found with id: %s", taskID)
	}
	return t, nil
}

// ownedTimeEntry resolves a time entry and verifies ownership via its
// denormalized user id (always equal to the task's project's owner).
func ownedTimeEntry(q dbtx, entryID, userID string) (models.TimeEntry, error) {
	row := q.QueryRow(`
		SELECT id, task_id, user_id, start_time, end_time, duration, cost, created_at
		FROM time_entries WHERE id = ?`, entryID)
	entry, err := scanTimeEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.TimeEntry{}, apperrors.NotFound(apperrors.CodeTimeEntryNotFound, "Time entry not found with id: %s", entryID)
		}
		return models.TimeEntry{}, err
	}
	if entry.UserID != userID {
		return models.TimeEntry{}, apperrors.NotFound(apperrors.CodeTimeEntryNotFound, "Time entry not found with id: %s", entryID)
	}
	return entry, nil
}

// taskHourlyCost walks entry task -> project and returns the project's
// hourly cost, or nil when the project has none.
func taskHourlyCost(q dbtx, taskID string) (*float64, error) {
	var hourlyCost sql.NullFloat64
	row := q.QueryRow(`
		SELECT p.hourly_cost FROM tasks t JOIN projects p ON p.id = t.project_id
		WHERE t.id = ?`, taskID)
	if err := row.Scan(&hourlyCost); err != nil {
		return nil, err
	}
	if !hourlyCost.Valid {
		return nil, nil
	}
	return &hourlyCost.Float64, nil
}
