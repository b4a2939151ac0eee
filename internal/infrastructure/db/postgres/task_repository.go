package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/collabhub/timesheet-api/internal/core/domain"
)

type TaskRepository struct {
	db DBTX
}

func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	query := `INSERT INTO tasks (id, project_id, owner_account_id, name, description, last_modified_on)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.ProjectID, t.OwnerAccountID, t.Name, t.Description, t.LastModifiedOn)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *TaskRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT id, project_id, owner_account_id, name, description, last_modified_on
		FROM tasks WHERE id = $1`

	var t domain.Task
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&t.ID, &t.ProjectID, &t.OwnerAccountID, &t.Name, &t.Description, &t.LastModifiedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &t, nil
}

func (r *TaskRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.Task, error) {
	query := `SELECT id, project_id, owner_account_id, name, description, last_modified_on
		FROM tasks WHERE project_id = $1 ORDER BY last_modified_on DESC`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []domain.Task{}
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.OwnerAccountID, &t.Name, &t.Description, &t.LastModifiedOn); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
