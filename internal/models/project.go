package models

import "time"

// Project is owned by exactly one user. Ownership is permanent.
// A project without an hourly cost produces time entries without a cost.
type Project struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	HourlyCost *float64  `json:"hourlyCost,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
