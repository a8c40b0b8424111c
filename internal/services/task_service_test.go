package services

import (
	"testing"

	"github.com/pvillarroel/timetracker-be/internal/apperrors"
)

func TestTaskCRUD(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "a@x.com")
	project := f.createProject(t, "a@x.com", "Site", nil)

	task := f.createTask(t, "a@x.com", project.ID, "Build")

	renamed, err := f.tasks.Update(task.ID, "a@x.com", "Build & ship")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if renamed.Name != "Build & ship" {
		t.Fatalf("name = %s", renamed.Name)
	}

	list, err := f.tasks.GetByProject(project.ID, "a@x.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != task.ID {
		t.Fatalf("list = %+v", list)
	}

	if err := f.tasks.Delete(task.ID, "a@x.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.tasks.GetByID(task.ID, "a@x.com"); !apperrors.IsCode(err, apperrors.CodeTaskNotFound) {
		t.Fatalf("get after delete err = %v, want %s", err, apperrors.CodeTaskNotFound)
	}
}

func TestTaskOwnershipIsTransitive(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "a@x.com")
	f.registerUser(t, "b@x.com")
	project := f.createProject(t, "a@x.com", "Mine", nil)
	task := f.createTask(t, "a@x.com", project.ID, "Build")

	// B cannot create under A's project, nor see A's tasks.
	if _, err := f.tasks.Create("b@x.com", TaskInput{ProjectID: project.ID, Name: "Sneaky"}); !apperrors.IsCode(err, apperrors.CodeProjectNotFound) {
		t.Fatalf("foreign create err = %v, want %s", err, apperrors.CodeProjectNotFound)
	}
	if _, err := f.tasks.GetByID(task.ID, "b@x.com"); !apperrors.IsCode(err, apperrors.CodeTaskNotFound) {
		t.Fatalf("foreign get err = %v, want %s", err, apperrors.CodeTaskNotFound)
	}
	if _, err := f.tasks.GetByProject(project.ID, "b@x.com"); !apperrors.IsCode(err, apperrors.CodeProjectNotFound) {
		t.Fatalf("foreign list err = %v, want %s", err, apperrors.CodeProjectNotFound)
	}
}
