package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrTaskNotFound      = errors.New("task not found")
	ErrTimesheetNotFound = errors.New("timesheet not found")
)

// Project is owned by an account id that is not bound to any account table.
type Project struct {
	ID             uuid.UUID  `json:"id"`
	OwnerAccountID uuid.UUID  `json:"owner_account_id"`
	Name           string     `json:"name"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	Status         string     `json:"status,omitempty"`
}

// Task belongs to a project.
type Task struct {
	ID             uuid.UUID `json:"id"`
	ProjectID      uuid.UUID `json:"project_id"`
	OwnerAccountID uuid.UUID `json:"owner_account_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	LastModifiedOn time.Time `json:"last_modified_on"`
}

// Timesheet records hours an account worked on a task.
type Timesheet struct {
	ID             uuid.UUID `json:"id"`
	OwnerAccountID uuid.UUID `json:"owner_account_id"`
	TaskID         uuid.UUID `json:"task_id"`
	ProjectID      uuid.UUID `json:"project_id"`
	Date           time.Time `json:"date"`
	HoursWorked    float64   `json:"hours_worked"`
	Description    string    `json:"description,omitempty"`
	Status         string    `json:"status,omitempty"`
	StartTime      string    `json:"start_time,omitempty"`
	EndTime        string    `json:"end_time,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastModifiedAt time.Time `json:"last_modified_at"`
}
