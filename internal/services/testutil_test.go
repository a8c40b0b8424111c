package services

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/pvillarroel/timetracker-be/internal/database"
	"github.com/pvillarroel/timetracker-be/internal/models"
)

// fixture wires the full service graph over a throwaway sqlite database.
type fixture struct {
	db       *sql.DB
	users    *UserService
	projects *ProjectService
	tasks    *TaskService
	events   *EventService
	entries  *TimeEntryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "timetracker.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	events := NewEventService(db)
	return &fixture{
		db:       db,
		users:    NewUserService(db),
		projects: NewProjectService(db),
		tasks:    NewTaskService(db),
		events:   events,
		entries:  NewTimeEntryService(db, events, nil),
	}
}

func (f *fixture) registerUser(t *testing.T, email string) models.User {
	t.Helper()
	user, err := f.users.Register(email, "Test User", "s3cret-pw")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}

func (f *fixture) createProject(t *testing.T, email, name string, hourlyCost *float64) models.Project {
	t.Helper()
	project, err := f.projects.Create(email, ProjectInput{Name: name, HourlyCost: hourlyCost})
	if err != nil {
		t.Fatalf("create project %s: %v", name, err)
	}
	return project
}

func (f *fixture) createTask(t *testing.T, email, projectID, name string) models.Task {
	t.Helper()
	task, err := f.tasks.Create(email, TaskInput{ProjectID: projectID, Name: name})
	if err != nil {
		t.Fatalf("create task %s: %v", name, err)
	}
	return task
}

func fptr(v float64) *float64 { return &v }

func i64ptr(v int64) *int64 { return &v }
