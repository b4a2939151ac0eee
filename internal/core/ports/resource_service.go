package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/collabhub/timesheet-api/internal/core/domain"
)

// ProjectInput carries the writable fields of a project.
type ProjectInput struct {
	OwnerAccountID uuid.UUID
	Name           string
	StartDate      *time.Time
	EndDate        *time.Time
	Status         string
}

type TaskInput struct {
	ProjectID      uuid.UUID
	OwnerAccountID uuid.UUID
	Name           string
	Description    string
}

type TimesheetInput struct {
	OwnerAccountID uuid.UUID
	TaskID         uuid.UUID
	ProjectID      uuid.UUID
	Date           time.Time
	HoursWorked    float64
	Description    string
	Status         string
	StartTime      string
	EndTime        string
}

// ResourceService manages the account-owned resources. Every write validates
// its owner through the AccountOracle first.
type ResourceService interface {
	CreateProject(ctx context.Context, in ProjectInput) (*domain.Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	ListProjects(ctx context.Context, owner uuid.UUID) ([]domain.Project, error)
	UpdateProject(ctx context.Context, id uuid.UUID, in ProjectInput) (*domain.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error

	CreateTask(ctx context.Context, in TaskInput) (*domain.Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ListTasks(ctx context.Context, projectID uuid.UUID) ([]domain.Task, error)

	CreateTimesheet(ctx context.Context, in TimesheetInput) (*domain.Timesheet, error)
	GetTimesheet(ctx context.Context, id uuid.UUID) (*domain.Timesheet, error)
	ListTimesheets(ctx context.Context, owner uuid.UUID) ([]domain.Timesheet, error)
	TotalHours(ctx context.Context, owner uuid.UUID) (float64, error)
}

// ResourceNotifier receives committed resource mutations for fan-out. It must
// not block the caller.
type ResourceNotifier interface {
	Notify(ev domain.ResourceEvent)
}

// ResourceEventPublisher delivers a resource event to the outbound stream.
type ResourceEventPublisher interface {
	PublishResourceEvent(ctx context.Context, ev domain.ResourceEvent) error
}

// ResourceEventProcessor handles one dispatched resource event.
type ResourceEventProcessor interface {
	Process(ctx context.Context, ev domain.ResourceEvent) error
}

// LiveBroadcaster pushes a resource event to connected live clients.
type LiveBroadcaster interface {
	Broadcast(ev domain.ResourceEvent)
}
