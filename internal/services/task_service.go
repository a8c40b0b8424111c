package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pvillarroel/timetracker-be/internal/apperrors"
	"github.com/pvillarroel/timetracker-be/internal/models"
)

// TaskInput carries the caller-supplied fields for task creation and updates.
type TaskInput struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
}

// TaskServiceProvider defines the interface for task services.
type TaskServiceProvider interface {
	GetByProject(projectID, email string) ([]models.Task, error)
	GetByID(id, email string) (models.Task, error)
	Create(email string, input TaskInput) (models.Task, error)
	Update(id, email, name string) (models.Task, error)
	Delete(id, email string) error
}

// TaskService provides ownership-scoped task CRUD. Task ownership is
// transitive through the owning project.
type TaskService struct {
	db *sql.DB
}

// NewTaskService creates a new TaskService.
func NewTaskService(db *sql.DB) *TaskService {
	return &TaskService{db: db}
}

// GetByProject retrieves all tasks for an owned project, newest first.
func (s *TaskService) GetByProject(projectID, email string) ([]models.Task, error) {
	user, err := findUserByEmail(s.db, email)
	if err != nil {
		return nil, err
	}
	project, err := ownedProject(s.db, projectID, user.ID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
		SELECT id, project_id, name, created_at, updated_at
		FROM tasks WHERE project_id = ? ORDER BY created_at DESC`, project.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

// GetByID retrieves a single owned task.
func (s *TaskService) GetByID(id, email string) (models.Task, error) {
	user, err := findUserByEmail(s.db, email)
	if err != nil {
		return models.Task{}, err
	}
	return ownedTask(s.db, id, user.ID)
}

// Create creates a new task under an owned project.
func (s *TaskService) Create(email string, input TaskInput) (models.Task, error) {
	if input.Name == "" {
		return models.Task{}, apperrors.Invalid("name is required")
	}
	if input.ProjectID == "" {
		return models.Task{}, apperrors.Invalid("projectId is required")
	}

	user, err := findUserByEmail(s.db, email)
	if err != nil {
		return models.Task{}, err
	}

	project, err := ownedProject(s.db, input.ProjectID, user.ID)
	if err != nil {
		return models.Task{}, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	task := models.Task{
		ID:        uuid.New().String(),
		ProjectID: project.ID,
		Name:      input.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.Exec(`
		INSERT INTO tasks (id, project_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		task.ID, task.ProjectID, task.Name, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return models.Task{}, err
	}

	return task, nil
}

// Update renames an owned task.
func (s *TaskService) Update(id, email, name string) (models.Task, error) {
	if name == "" {
		return models.Task{}, apperrors.Invalid("name is required")
	}

	user, err := findUserByEmail(s.db, email)
	if err != nil {
		return models.Task{}, err
	}

	task, err := ownedTask(s.db, id, user.ID)
	if err != nil {
		return models.Task{}, err
	}

	task.Name = name
	task.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	_, err = s.db.Exec("UPDATE tasks SET name = ?, updated_at = ? WHERE id = ?",
		task.Name, task.UpdatedAt, task.ID)
	if err != nil {
		return models.Task{}, err
	}

	return task, nil
}

// Delete removes an owned task.
func (s *TaskService) Delete(id, email string) error {
	user, err := findUserByEmail(s.db, email)
	if err != nil {
		return err
	}

	task, err := ownedTask(s.db, id, user.ID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec("DELETE FROM tasks WHERE id = ?", task.ID)
	return err
}

// scanTasks scans multiple rows into a slice of Tasks.
func scanTasks(rows *sql.Rows) ([]models.Task, error) {
	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
