package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/alfredjeanlab/kplan/internal/model"
)

const taskColumns = `id, project_id, assignee_id, title, estimated_hours, due_at,
	status, priority, created_at, created_by, updated_at`

func (s queries) CreateTask(ctx context.Context, t *model.Task) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tasks (
			id, project_id, assignee_id, title, estimated_hours, due_at,
			status, priority, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		t.ID,
		t.ProjectID,
		nullString(t.AssigneeID),
		t.Title,
		t.EstimatedHours,
		nullTimePtr(t.DueAt),
		string(t.Status),
		string(t.Priority),
		nullString(t.CreatedBy),
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if isUniqueViolation(err) {
		return &model.ConflictError{Entity: "task", Message: fmt.Sprintf("id %q already exists", t.ID)}
	}
	return err
}

func (s queries) GetTask(ctx context.Context, id string) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	return scanTask(row)
}

func (s queries) ListTasks(ctx context.Context, filter model.TaskFilter) ([]*model.Task, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.ProjectID != "" {
		whereClauses = append(whereClauses, "project_id = "+nextArg())
		args = append(args, filter.ProjectID)
	}

	if filter.AssigneeID != "" {
		whereClauses = append(whereClauses, "assignee_id = "+nextArg())
		args = append(args, filter.AssigneeID)
	}

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, st := range filter.Status {
			placeholders[i] = nextArg()
			args = append(args, string(st))
		}
		whereClauses = append(whereClauses, "status IN ("+strings.Join(placeholders, ", ")+")")
	}

	if filter.ExcludeDone {
		whereClauses = append(whereClauses, "status <> 'done'")
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks`+whereSQL+` ORDER BY due_at NULLS LAST, id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (s queries) UpdateTask(ctx context.Context, t *model.Task) error {
	return s.db.QueryRowContext(ctx, `
		UPDATE tasks SET
			assignee_id = $2,
			title = $3,
			estimated_hours = $4,
			due_at = $5,
			status = $6,
			priority = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		t.ID,
		nullString(t.AssigneeID),
		t.Title,
		t.EstimatedHours,
		nullTimePtr(t.DueAt),
		string(t.Status),
		string(t.Priority),
	).Scan(&t.UpdatedAt)
}
