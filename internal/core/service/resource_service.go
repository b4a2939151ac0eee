package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/collabhub/timesheet-api/internal/core/domain"
	"github.com/collabhub/timesheet-api/internal/core/ports"
)

// ResourceService owns project, task and timesheet writes. Owner ids carry no
// foreign key, so every write asks the oracle first.
type ResourceService struct {
	projects   ports.ProjectRepository
	tasks      ports.TaskRepository
	timesheets ports.TimesheetRepository
	oracle     ports.AccountOracle
	notifier   ports.ResourceNotifier
	log        zerolog.Logger
	now        func() time.Time
}

func NewResourceService(
	projects ports.ProjectRepository,
	tasks ports.TaskRepository,
	timesheets ports.TimesheetRepository,
	oracle ports.AccountOracle,
	notifier ports.ResourceNotifier,
	log zerolog.Logger,
) *ResourceService {
	return &ResourceService{
		projects:   projects,
		tasks:      tasks,
		timesheets: timesheets,
		oracle:     oracle,
		notifier:   notifier,
		log:        log,
		now:        time.Now,
	}
}

func (s *ResourceService) requireOwner(ctx context.Context, owner uuid.UUID) error {
	ok, err := s.oracle.Exists(ctx, owner)
	if err != nil {
		return fmt.Errorf("check owner: %w", err)
	}
	if !ok {
		s.log.Warn().Str("owner_account_id", owner.String()).Msg("write rejected for unknown account")
		return domain.ErrUnknownAccount
	}
	return nil
}

func (s *ResourceService) emit(t domain.ResourceEventType, owner, id uuid.UUID, payload any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(domain.ResourceEvent{
		Type:       t,
		OwnerID:    owner,
		ResourceID: id,
		Payload:    payload,
		Timestamp:  s.now().UTC(),
	})
}

func (s *ResourceService) CreateProject(ctx context.Context, in ports.ProjectInput) (*domain.Project, error) {
	if err := s.requireOwner(ctx, in.OwnerAccountID); err != nil {
		return nil, err
	}

	p := &domain.Project{
		ID:             uuid.New(),
		OwnerAccountID: in.OwnerAccountID,
		Name:           strings.TrimSpace(in.Name),
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Status:         in.Status,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.log.Info().Str("project_id", p.ID.String()).Msg("project created")
	s.emit(domain.ProjectCreated, p.OwnerAccountID, p.ID, p)
	return p, nil
}

func (s *ResourceService) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return s.projects.Get(ctx, id)
}

func (s *ResourceService) ListProjects(ctx context.Context, owner uuid.UUID) ([]domain.Project, error) {
	return s.projects.ListByOwner(ctx, owner)
}

func (s *ResourceService) UpdateProject(ctx context.Context, id uuid.UUID, in ports.ProjectInput) (*domain.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(ctx, in.OwnerAccountID); err != nil {
		return nil, err
	}

	p.OwnerAccountID = in.OwnerAccountID
	p.Name = strings.TrimSpace(in.Name)
	p.StartDate = in.StartDate
	p.EndDate = in.EndDate
	p.Status = in.Status
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	s.emit(domain.ProjectUpdated, p.OwnerAccountID, p.ID, p)
	return p, nil
}

func (s *ResourceService) DeleteProject(ctx context.Context, id uuid.UUID) error {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	s.log.Info().Str("project_id", id.String()).Msg("project deleted")
	s.emit(domain.ProjectDeleted, p.OwnerAccountID, id, nil)
	return nil
}

func (s *ResourceService) CreateTask(ctx context.Context, in ports.TaskInput) (*domain.Task, error) {
	if err := s.requireOwner(ctx, in.OwnerAccountID); err != nil {
		return nil, err
	}
	if _, err := s.projects.Get(ctx, in.ProjectID); err != nil {
		return nil, err
	}

	t := &domain.Task{
		ID:             uuid.New(),
		ProjectID:      in.ProjectID,
		OwnerAccountID: in.OwnerAccountID,
		Name:           strings.TrimSpace(in.Name),
		Description:    in.Description,
		LastModifiedOn: s.now().UTC(),
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.emit(domain.TaskCreated, t.OwnerAccountID, t.ID, t)
	return t, nil
}

func (s *ResourceService) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.tasks.Get(ctx, id)
}

func (s *ResourceService) ListTasks(ctx context.Context, projectID uuid.UUID) ([]domain.Task, error) {
	return s.tasks.ListByProject(ctx, projectID)
}

// CreateTimesheet requires the owner, the task and the project to exist, and
// the task to belong to the project.
func (s *ResourceService) CreateTimesheet(ctx context.Context, in ports.TimesheetInput) (*domain.Timesheet, error) {
	if err := s.requireOwner(ctx, in.OwnerAccountID); err != nil {
		return nil, err
	}
	if _, err := s.projects.Get(ctx, in.ProjectID); err != nil {
		return nil, err
	}
	task, err := s.tasks.Get(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}
	if task.ProjectID != in.ProjectID {
		return nil, domain.ErrTaskNotFound
	}

	now := s.now().UTC()
	ts := &domain.Timesheet{
		ID:             uuid.New(),
		OwnerAccountID: in.OwnerAccountID,
		TaskID:         in.TaskID,
		ProjectID:      in.ProjectID,
		Date:           in.Date,
		HoursWorked:    in.HoursWorked,
		Description:    in.Description,
		Status:         in.Status,
		StartTime:      in.StartTime,
		EndTime:        in.EndTime,
		CreatedAt:      now,
		LastModifiedAt: now,
	}
	if err := s.timesheets.Create(ctx, ts); err != nil {
		return nil, fmt.Errorf("create timesheet: %w", err)
	}

	s.emit(domain.TimesheetCreated, ts.OwnerAccountID, ts.ID, ts)
	return ts, nil
}

func (s *ResourceService) GetTimesheet(ctx context.Context, id uuid.UUID) (*domain.Timesheet, error) {
	return s.timesheets.Get(ctx, id)
}

func (s *ResourceService) ListTimesheets(ctx context.Context, owner uuid.UUID) ([]domain.Timesheet, error) {
	return s.timesheets.ListByOwner(ctx, owner)
}

func (s *ResourceService) TotalHours(ctx context.Context, owner uuid.UUID) (float64, error) {
	return s.timesheets.TotalHours(ctx, owner)
}
