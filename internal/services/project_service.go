package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pvillarroel/timetracker-be/internal/apperrors"
	"github.com/pvillarroel/timetracker-be/internal/models"
)

// ProjectInput carries the caller-supplied fields for project creation and
// updates.
type ProjectInput struct {
	Name       string   `json:"name"`
	HourlyCost *float64 `json:"hourlyCost,omitempty"`
}

// ProjectServiceProvider defines the interface for project services.
type ProjectServiceProvider interface {
	GetMine(email string) ([]models.Project, error)
	GetByID(id, email string) (models.Project, error)
	Create(email string, input ProjectInput) (models.Project, error)
	Update(id, email string, input ProjectInput) (models.Project, error)
	Delete(id, email string) error
}

// ProjectService provides ownership-scoped project CRUD.
type ProjectService struct {
	db *sql.DB
}

// NewProjectService creates a new ProjectService.
func NewProjectService(db *sql.DB) *ProjectService {
	return &ProjectService{db: db}
}

// GetMine retrieves all projects owned by the principal, newest first.
func (s *ProjectService) GetMine(email string) ([]models.Project, error) {
	user, err := findUserByEmail(s.db, email)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
		SELECT id, user_id, name, hourly_cost, created_at, updated_at
		FROM projects WHERE user_id = ? ORDER BY created_at DESC`, user.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProjects(rows)
}

// GetByID retrieves a single owned project.
func (s *ProjectService) GetByID(id, email string) (models.Project, error) {
	user, err := findUserByEmail(s.db, email)
	if err != nil {
		return models.Project{}, err
	}
	return ownedProject(s.db, id, user.ID)
}

// Create creates a new project owned by the principal.
func (s *ProjectService) Create(email string, input ProjectInput) (models.Project, error) {
	if err := validateProjectInput(input); err != nil {
		return models.Project{}, err
	}

	user, err := findUserByEmail(s.db, email)
	if err != nil {
		return models.Project{}, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	project := models.Project{
		ID:         uuid.New().String(),
		UserID:     user.ID,
		Name:       input.Name,
		HourlyCost: input.HourlyCost,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err = s.db.Exec(`
		INSERT INTO projects (id, user_id, name, hourly_cost, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		project.ID, project.UserID, project.Name, costArg(project.HourlyCost), project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return models.Project{}, err
	}

	return project, nil
}

// Update updates an owned project's name and hourly cost.
func (s *ProjectService) Update(id, email string, input ProjectInput) (models.Project, error) {
	if err := validateProjectInput(input); err != nil {
		return models.Project{}, err
	}

	user, err := findUserByEmail(s.db, email)
	if err != nil {
		return models.Project{}, err
	}

	project, err := ownedProject(s.db, id, user.ID)
	if err != nil {
		return models.Project{}, err
	}

	project.Name = input.Name
	project.HourlyCost = input.HourlyCost
	project.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	_, err = s.db.Exec("UPDATE projects SET name = ?, hourly_cost = ?, updated_at = ? WHERE id = ?",
		project.Name, costArg(project.HourlyCost), project.UpdatedAt, project.ID)
	if err != nil {
		return models.Project{}, err
	}

	return project, nil
}

// Delete removes an owned project.
func (s *ProjectService) Delete(id, email string) error {
	user, err := findUserByEmail(s.db, email)
	if err != nil {
		return err
	}

	project, err := ownedProject(s.db, id, user.ID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec("DELETE FROM projects WHERE id = ?", project.ID)
	return err
}

func validateProjectInput(input ProjectInput) error {
	if input.Name == "" {
		return apperrors.Invalid("name is required")
	}
	if input.HourlyCost != nil && *input.HourlyCost < 0 {
		return apperrors.Invalid("hourlyCost must be greater than or equal to 0")
	}
	return nil
}

// scanProjects scans multiple rows into a slice of Projects.
func scanProjects(rows *sql.Rows) ([]models.Project, error) {
	var projects []models.Project
	for rows.Next() {
		var p models.Project
		var hourlyCost sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &hourlyCost, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if hourlyCost.Valid {
			p.HourlyCost = &hourlyCost.Float64
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
