package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/collabhub/timesheet-api/internal/core/domain"
)

const timesheetColumns = `id, owner_account_id, task_id, project_id, work_date, hours_worked,
		description, status, start_time, end_time, created_at, last_modified_at`

type TimesheetRepository struct {
	db DBTX
}

func NewTimesheetRepository(db DBTX) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

func (r *TimesheetRepository) Create(ctx context.Context, ts *domain.Timesheet) error {
	query := `INSERT INTO timesheets (` + timesheetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		ts.ID, ts.OwnerAccountID, ts.TaskID, ts.ProjectID, ts.Date, ts.HoursWorked,
		ts.Description, ts.Status, ts.StartTime, ts.EndTime, ts.CreatedAt, ts.LastModifiedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *TimesheetRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Timesheet, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheets WHERE id = $1`

	ts, err := scanTimesheet(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTimesheetNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ts, nil
}

func (r *TimesheetRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]domain.Timesheet, error) {
	query := `SELECT ` + timesheetColumns + ` FROM timesheets
		WHERE owner_account_id = $1 ORDER BY work_date DESC, start_time DESC`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []domain.Timesheet{}
	for rows.Next() {
		ts, err := scanTimesheet(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *TimesheetRepository) TotalHours(ctx context.Context, owner uuid.UUID) (float64, error) {
	query := `SELECT COALESCE(SUM(hours_worked), 0)::float8 FROM timesheets WHERE owner_account_id = $1`

	var total float64
	if err := r.db.QueryRowContext(ctx, query, owner).Scan(&total); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

func scanTimesheet(row rowScanner) (*domain.Timesheet, error) {
	var ts domain.Timesheet
	err := row.Scan(&ts.ID, &ts.OwnerAccountID, &ts.TaskID, &ts.ProjectID, &ts.Date, &ts.HoursWorked,
		&ts.Description, &ts.Status, &ts.StartTime, &ts.EndTime, &ts.CreatedAt, &ts.LastModifiedAt)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
