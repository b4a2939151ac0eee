package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/collabhub/timesheet-api/internal/core/domain"
)

// ProjectRepository persists projects. Get, Update and Delete return
// domain.ErrProjectNotFound on a miss.
type ProjectRepository interface {
	Create(ctx context.Context, p *domain.Project) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Task, error)
}

type TimesheetRepository interface {
	Create(ctx context.Context, ts *domain.Timesheet) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Timesheet, error)
	// ListByOwner returns entries newest first.
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]domain.Timesheet, error)
	TotalHours(ctx context.Context, owner uuid.UUID) (float64, error)
}
