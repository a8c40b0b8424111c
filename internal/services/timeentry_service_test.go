package services

import (
	"reflect"
	"testing"
	"time"

	"github.com/pvillarroel/timetracker-be/internal/apperrors"
)

func TestStartCreatesRunningEntry(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "a@x.com")
	project := f.createProject(t, "a@x.com", "Site", fptr(20.00))
	task := f.createTask(t, "a@x.com", project.ID, "Build")

	entry, err := f.entries.Start("a@x.com", task.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !entry.Running() {
		t.Fatal("new entry should be running")
	}
	if entry.Duration != nil || entry.Cost != nil {
		t.Fatal("duration and cost must be nil while running")
	}
	if entry.TaskID != task.ID {
		t.Fatalf("entry task = %s, want %s", entry.TaskID, task.ID)
	}
}

func TestStartBlockedWhileRunning(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "a@x.com")
	project := f.createProject(t, "a@x.com", "Site", nil)
	task := f.createTask(t, "a@x.com", project.ID, "Build")
	other := f.createTask(t, "a@x.com", project.ID, "Review")

	first, err := f.entries.Start("a@x.com", task.ID)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}

	_, err = f.entries.Start("a@x.com", other.ID)
	if !apperrors.IsCode(err, apperrors.CodeActiveTimeEntryExists) {
		t.Fatalf("second start err = %v, want %s", err, apperrors.CodeActiveTimeEntryExists)
	}

	// The original running entry must be untouched.
	got, err := f.entries.GetByID(first.ID, "a@x.com")
	if err != nil {
		t.Fatalf("get first entry: %v", err)
	}
	if !got.Running() || !got.StartTime.Equal(first.StartTime) {
		t.Fatalf("original entry changed: %+v", got)
	}
}

func TestStopWithoutRunningEntry(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "a@x.com")

	_, err := f.entries.Stop("a@x.com")
	if !apperrors.IsCode(err, apperrors.CodeNoActiveTimeEntry) {
		t.Fatalf("stop err = %v, want %s", err, apperrors.CodeNoActiveTimeEntry)
	}
}

func TestStopComputesDuration(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "a@x.com")
	project := f.createProject(t, "a@x.com", "Site", nil)
	task := f.createTask(t, "a@x.com", project.ID, "Build")

	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	f.entries.now = func() time.Time { return t0 }
	if _, err := f.entries.Start("a@x.com", task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	f.entries.now = func() time.Time { return t0.Add(3661 * time.Second) }
	entry, err := f.entries.Stop("a@x.com")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if entry.Duration == nil || *entry.Duration != 3661 {
		t.Fatalf("duration = %v, want 3661", entry.Duration)
	}
	if entry.Cost != nil {
		t.Fatalf("cost = %v, want nil for project without rate", *entry.Cost)
	}
}

func TestStopCostRounding(t *testing.T) {
	cases := []struct {
		name    string
		rate    *float64
		seconds time.Duration
		want    *float64
	}{
		{"ninety minutes at 10.00", fptr(10.00), 5400 * time.Second, fptr(15.00)},
		{"one hour at 33.33", fptr(33.33), 3600 * time.Second, fptr(33.33)},
		{"no rate means no cost", nil, 5400 * time.Second, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.registerUser(t, "a@x.com")
			project := f.createProject(t, "a@x.com", "Site", tc.rate)
			task := f.createTask(t, "a@x.com", project.ID, "Build")

			t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
			f.entries.now = func() time.Time { return t0 }
			if _, err := f.entries.Start("a@x.com", task.ID); err != nil {
				t.Fatalf("start: %v", err)
			}

			f.entries.now = func() time.Time { return t0.Add(tc.seconds) }
			entry, err := f.entries.Stop("a@x.com")
			if err != nil {
				t.Fatalf("stop: %v", err)
			}

			if tc.want == nil {
				if entry.Cost != nil {
					t.Fatalf("cost = %v, want nil", *entry.Cost)
				}
				return
			}
			if entry.Cost == nil || *entry.Cost != *tc.want {
				t.Fatalf("cost = %v, want %v", entry.Cost, *tc.want)
			}
		})
	}
}

func TestManualCreateRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "a@x.com")
	project := f.createProject(t, "a@x.com", "Site", fptr(50.00))
	task := f.createTask(t, "a@x.com", project.ID, "Build")

	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	// Deliberately inconsistent duration/cost: manual fields are stored
	// as supplied, never recomputed.
	created, err := f.entries.Create("a@x.com", TimeEntryInput{
		TaskID:    task.ID,
		StartTime: start,
		EndTime:   &end,
		Duration:  i64ptr(999),
		Cost:      fptr(12.34),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := f.entries.GetByID(created.ID, "a@x.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.StartTime.Equal(start) {
		t.Fatalf("startTime = %v, want %v", got.StartTime, start)
	}
	if got.EndTime == nil || !got.EndTime.Equal(end) {
		t.Fatalf("endTime = %v, want %v", got.EndTime, end)
	}
	if got.Duration == nil || *got.Duration != 999 {
		t.Fatalf("duration = %v, want 999", got.Duration)
	}
	if got.Cost == nil || *got.Cost != 12.34 {
		t.Fatalf("cost = %v, want 12.34", got.Cost)
	}
}

func TestManualCreateDoesNotOccupyRunningSlot(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "a@x.com")
	project := f.createProject(t, "a@x.com", "Site", nil)
	task := f.createTask(t, "a@x.com", project.ID, "Build")

	if _, err := f.entries.Start("a@x.com", task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// A manual open-ended entry is accepted alongside the started one.
	_, err := f.entries.Create("a@x.com", TimeEntryInput{
		TaskID:    task.ID,
		StartTime: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("manual create while running: %v", err)
	}
}

func TestManualCreateValidation(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "a@x.com")
	project := f.createProject(t, "a@x.com", "Site", nil)
	task := f.createTask(t, "a@x.com", project.ID, "Build")

	cases := []struct {
		name  string
		input TimeEntryInput
	}{
		{"missing task", TimeEntryInput{StartTime: time.Now()}},
		{"missing start", TimeEntryInput{TaskID: task.ID}},
		{"negative duration", TimeEntryInput{TaskID: task.ID, StartTime: time.Now(), Duration: i64ptr(-1)}},
		{"negative cost", TimeEntryInput{TaskID: task.ID, StartTime: time.Now(), Cost: fptr(-0.01)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.entries.Create("a@x.com", tc.input); !apperrors.IsCode(err, apperrors.CodeValidationError) {
				t.Fatalf("err = %v, want %s", err, apperrors.CodeValidationError)
			}
		})
	}
}

func TestUpdateReassignsTaskWithOwnershipCheck(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "a@x.com")
	f.registerUser(t, "b@x.com")
	projectA := f.createProject(t, "a@x.com", "A", nil)
	taskA := f.createTask(t, "a@x.com", projectA.ID, "Mine")
	projectB := f.createProject(t, "b@x.com", "B", nil)
	taskB := f.createTask(t, "b@x.com", projectB.ID, "Theirs")

	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	entry, err := f.entries.Create("a@x.com", TimeEntryInput{TaskID: taskA.ID, StartTime: start})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Moving the entry onto another user's task must look like a missing task.
	_, err = f.entries.Update(entry.ID, "a@x.com", TimeEntryInput{TaskID: taskB.ID, StartTime: start})
	if !apperrors.IsCode(err, apperrors.CodeTaskNotFound) {
		t.Fatalf("err = %v, want %s", err, apperrors.CodeTaskNotFound)
	}

	end := start.Add(time.Hour)
	updated, err := f.entries.Update(entry.ID, "a@x.com", TimeEntryInput{
		TaskID:    taskA.ID,
		StartTime: start,
		EndTime:   &end,
		Duration:  i64ptr(3600),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.EndTime == nil || !updated.EndTime.Equal(end) {
		t.Fatalf("endTime = %v, want %v", updated.EndTime, end)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "a@x.com")
	f.registerUser(t, "b@x.com")
	project := f.createProject(t, "a@x.com", "A", nil)
	task := f.createTask(t, "a@x.com", project.ID, "Mine")

	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	entry, err := f.entries.Create("a@x.com", TimeEntryInput{TaskID: task.ID, StartTime: start})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.entries.Start("b@x.com", task.ID); !apperrors.IsCode(err, apperrors.CodeTaskNotFound) {
		t.Fatalf("start on foreign task err = %v, want %s", err, apperrors.CodeTaskNotFound)
	}
	if _, err := f.entries.GetByID(entry.ID, "b@x.com"); !apperrors.IsCode(err, apperrors.CodeTimeEntryNotFound) {
		t.Fatalf("get foreign entry err = %v, want %s", err, apperrors.CodeTimeEntryNotFound)
	}
	if _, err := f.entries.Update(entry.ID, "b@x.com", TimeEntryInput{TaskID: task.ID, StartTime: start}); !apperrors.IsCode(err, apperrors.CodeTimeEntryNotFound) {
		t.Fatalf("update foreign entry err = %v, want %s", err, apperrors.CodeTimeEntryNotFound)
	}
	if err := f.entries.Delete(entry.ID, "b@x.com"); !apperrors.IsCode(err, apperrors.CodeTimeEntryNotFound) {
		t.Fatalf("delete foreign entry err = %v, want %s", err, apperrors.CodeTimeEntryNotFound)
	}
	if _, err := f.entries.GetByTask(task.ID, "b@x.com"); !apperrors.IsCode(err, apperrors.CodeTaskNotFound) {
		t.Fatalf("list foreign task err = %v, want %s", err, apperrors.CodeTaskNotFound)
	}
	if _, err := f.entries.GetByProjectAndRange(project.ID, start, start.Add(time.Hour), "b@x.com"); !apperrors.IsCode(err, apperrors.CodeProjectNotFound) {
		t.Fatalf("range on foreign project err = %v, want %s", err, apperrors.CodeProjectNotFound)
	}

	// And the entry itself must be untouched.
	got, err := f.entries.GetByID(entry.ID, "a@x.com")
	if err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if !got.StartTime.Equal(start) {
		t.Fatalf("entry changed: %+v", got)
	}
}

func TestGetByIDIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "a@x.com")
	project := f.createProject(t, "a@x.com", "Site", fptr(42.00))
	task := f.createTask(t, "a@x.com", project.ID, "Build")

	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	entry, err := f.entries.Create("a@x.com", TimeEntryInput{
		TaskID:    task.ID,
		StartTime: start,
		EndTime:   &end,
		Duration:  i64ptr(3600),
		Cost:      fptr(42.00),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := f.entries.GetByID(entry.ID, "a@x.com")
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	second, err := f.entries.GetByID(entry.ID, "a@x.com")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated reads differ:\n%+v\n%+v", first, second)
	}
}

func TestGetByProjectAndRangeInclusiveBounds(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "a@x.com")
	project := f.createProject(t, "a@x.com", "Site", nil)
	task := f.createTask(t, "a@x.com", project.ID, "Build")

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)

	starts := []time.Time{
		from.Add(-time.Second), // before the window
		from,                   // on the lower bound
		from.Add(12 * time.Hour),
		to,                  // on the upper bound
		to.Add(time.Second), // after the window
	}
	for _, st := range starts {
		if _, err := f.entries.Create("a@x.com", TimeEntryInput{TaskID: task.ID, StartTime: st}); err != nil {
			t.Fatalf("create at %v: %v", st, err)
		}
	}

	entries, err := f.entries.GetByProjectAndRange(project.ID, from, to, "a@x.com")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3 (inclusive bounds)", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].StartTime.After(entries[i-1].StartTime) {
			t.Fatalf("entries not ordered by start time descending")
		}
	}
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "a@x.com")
	project := f.createProject(t, "a@x.com", "Client work", fptr(20.00))
	task := f.createTask(t, "a@x.com", project.ID, "Implementation")

	t0 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	f.entries.now = func() time.Time { return t0 }

	if _, err := f.entries.Start("a@x.com", task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := f.entries.Start("a@x.com", task.ID); !apperrors.IsCode(err, apperrors.CodeActiveTimeEntryExists) {
		t.Fatalf("second start err = %v, want %s", err, apperrors.CodeActiveTimeEntryExists)
	}

	f.entries.now = func() time.Time { return t0.Add(90 * time.Minute) }
	stopped, err := f.entries.Stop("a@x.com")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if stopped.Duration == nil || *stopped.Duration != 5400 {
		t.Fatalf("duration = %v, want 5400", stopped.Duration)
	}
	if stopped.Cost == nil || *stopped.Cost != 30.00 {
		t.Fatalf("cost = %v, want 30.00", stopped.Cost)
	}

	mine, err := f.entries.GetMine("a@x.com")
	if err != nil {
		t.Fatalf("get mine: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("got %d entries, want 1", len(mine))
	}
	if mine[0].Running() {
		t.Fatal("entry should be closed")
	}
	if *mine[0].Duration != 5400 || *mine[0].Cost != 30.00 {
		t.Fatalf("persisted entry = %+v", mine[0])
	}
}

func TestSingleRunningEntryInvariant(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "a@x.com")
	project := f.createProject(t, "a@x.com", "Site", nil)
	task := f.createTask(t, "a@x.com", project.ID, "Build")

	// Start/stop a few cycles, attempting a double start each time; the
	// store must never hold two running entries for the user.
	for i := 0; i < 3; i++ {
		if _, err := f.entries.Start("a@x.com", task.ID); err != nil {
			t.Fatalf("cycle %d start: %v", i, err)
		}
		f.entries.Start("a@x.com", task.ID) // expected to fail, ignore

		var running int
		err := f.db.QueryRow(`SELECT COUNT(*) FROM time_entries WHERE end_time IS NULL`).Scan(&running)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if running != 1 {
			t.Fatalf("cycle %d: %d running entries, want 1", i, running)
		}

		if _, err := f.entries.Stop("a@x.com"); err != nil {
			t.Fatalf("cycle %d stop: %v", i, err)
		}
	}
}

func TestStopRecordsAuditEvent(t *testing.T) {
	f := newFixture(t)
	user := f.registerUser(t, "a@x.com")
	project := f.createProject(t, "a@x.com", "Site", nil)
	task := f.createTask(t, "a@x.com", project.ID, "Build")

	if _, err := f.entries.Start("a@x.com", task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.entries.Stop("a@x.com"); err != nil {
		t.Fatalf("stop: %v", err)
	}

	events, err := f.events.GetRecentForUser(user.ID, 10)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	var seenStart, seenStop bool
	for _, ev := range events {
		switch ev.Type {
		case "entry.start":
			seenStart = true
		case "entry.stop":
			seenStop = true
		}
	}
	if !seenStart || !seenStop {
		t.Fatalf("missing audit events, got %+v", events)
	}
}
