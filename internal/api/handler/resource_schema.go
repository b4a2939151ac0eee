package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/collabhub/timesheet-api/internal/core/ports"
)

const dateLayout = "2006-01-02"

type projectRequest struct {
	OwnerAccountID string `json:"owner_account_id" validate:"required,uuid"`
	Name           string `json:"name"             validate:"required,max=255"`
	StartDate      string `json:"start_date"       validate:"omitempty,datetime=2006-01-02"`
	EndDate        string `json:"end_date"         validate:"omitempty,datetime=2006-01-02"`
	Status         string `json:"status"           validate:"max=50"`
}

type taskRequest struct {
	ProjectID      string `json:"project_id"       validate:"required,uuid"`
	OwnerAccountID string `json:"owner_account_id" validate:"required,uuid"`
	Name           string `json:"name"             validate:"required,max=255"`
	Description    string `json:"description"      validate:"max=2000"`
}

type timesheetRequest struct {
	OwnerAccountID string  `json:"owner_account_id" validate:"required,uuid"`
	TaskID         string  `json:"task_id"          validate:"required,uuid"`
	ProjectID      string  `json:"project_id"       validate:"required,uuid"`
	Date           string  `json:"date"             validate:"required,datetime=2006-01-02"`
	HoursWorked    float64 `json:"hours_worked"     validate:"gt=0,lte=24"`
	Description    string  `json:"description"      validate:"max=2000"`
	Status         string  `json:"status"           validate:"max=50"`
	StartTime      string  `json:"start_time"       validate:"omitempty,datetime=15:04"`
	EndTime        string  `json:"end_time"         validate:"omitempty,datetime=15:04"`
}

type totalHoursResponse struct {
	OwnerAccountID string  `json:"owner_account_id"`
	TotalHours     float64 `json:"total_hours"`
}

// Fields below have already passed the validator, so parse errors cannot occur.

func (r projectRequest) toInput() (ports.ProjectInput, error) {
	in := ports.ProjectInput{
		OwnerAccountID: uuid.MustParse(r.OwnerAccountID),
		Name:           r.Name,
		StartDate:      optionalDate(r.StartDate),
		EndDate:        optionalDate(r.EndDate),
		Status:         r.Status,
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return in, echo.NewHTTPError(http.StatusBadRequest, "end_date must not be before start_date")
	}
	return in, nil
}

func (r taskRequest) toInput() ports.TaskInput {
	return ports.TaskInput{
		ProjectID:      uuid.MustParse(r.ProjectID),
		OwnerAccountID: uuid.MustParse(r.OwnerAccountID),
		Name:           r.Name,
		Description:    r.Description,
	}
}

func (r timesheetRequest) toInput() (ports.TimesheetInput, error) {
	in := ports.TimesheetInput{
		OwnerAccountID: uuid.MustParse(r.OwnerAccountID),
		TaskID:         uuid.MustParse(r.TaskID),
		ProjectID:      uuid.MustParse(r.ProjectID),
		Date:           *optionalDate(r.Date),
		HoursWorked:    r.HoursWorked,
		Description:    r.Description,
		Status:         r.Status,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
	}
	if in.StartTime != "" && in.EndTime != "" && in.EndTime < in.StartTime {
		return in, echo.NewHTTPError(http.StatusBadRequest, "end_time must not be before start_time")
	}
	return in, nil
}

func optionalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
