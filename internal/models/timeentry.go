package models

import "time"

// TimeEntry records a work interval against a task. The user ID is
// denormalized from the task's project owner for fast "my entries" queries.
//
// A nil EndTime means the entry is still running. Duration (whole seconds)
// and Cost are set exactly once when the entry is stopped; Cost stays nil
// while the owning project has no hourly cost.
type TimeEntry struct {
	ID        string     `json:"id"`
	TaskID    string     `json:"taskId"`
	UserID    string     `json:"userId"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Duration  *int64     `json:"duration,omitempty"`
	Cost      *float64   `json:"cost,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Running reports whether the entry is still accumulating time.
func (e *TimeEntry) Running() bool {
	return e.EndTime == nil
}
