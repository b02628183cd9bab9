package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/alfredjeanlab/kplan/internal/model"
)

const (
	projectColumns    = `id, organization_id, name, created_at, created_by`
	initiativeColumns = `id, project_id, title, phase, status, created_at, created_by, updated_at`
	dependencyColumns = `id, from_initiative_id, to_initiative_id, type, created_at, created_by`
)

// uniqueViolation is the SQLSTATE PostgreSQL reports for a duplicate key.
const uniqueViolation = "23505"

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Projects

func (s queries) CreateProject(ctx context.Context, p *model.Project) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO projects (id, organization_id, name, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		p.ID, p.OrganizationID, p.Name, nullString(p.CreatedBy),
	).Scan(&p.CreatedAt)
	if isUniqueViolation(err) {
		return &model.ConflictError{Entity: "project", Message: fmt.Sprintf("id %q already exists", p.ID)}
	}
	return err
}

func (s queries) GetProject(ctx context.Context, id string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

func (s queries) ListProjects(ctx context.Context, organizationID string) ([]*model.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects`
	var args []any
	if organizationID != "" {
		q += ` WHERE organization_id = $1`
		args = append(args, organizationID)
	}
	q += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	return scanProjects(rows)
}

// Initiatives

func (s queries) CreateInitiative(ctx context.Context, in *model.Initiative) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO initiatives (id, project_id, title, phase, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		in.ID, in.ProjectID, in.Title, in.Phase, string(in.Status), nullString(in.CreatedBy),
	).Scan(&in.CreatedAt, &in.UpdatedAt)
	if isUniqueViolation(err) {
		return &model.ConflictError{Entity: "initiative", Message: fmt.Sprintf("id %q already exists", in.ID)}
	}
	return err
}

func (s queries) GetInitiative(ctx context.Context, id string) (*model.Initiative, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+initiativeColumns+` FROM initiatives WHERE id = $1`, id)
	return scanInitiative(row)
}

func (s queries) ListInitiatives(ctx context.Context, projectID string) ([]*model.Initiative, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+initiativeColumns+`
		FROM initiatives
		WHERE project_id = $1
		ORDER BY phase, id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list initiatives: %w", err)
	}
	defer rows.Close()
	return scanInitiatives(rows)
}

func (s queries) ListInitiativesByOrganization(ctx context.Context, organizationID string) ([]*model.Initiative, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.project_id, i.title, i.phase, i.status, i.created_at, i.created_by, i.updated_at
		FROM initiatives i
		JOIN projects p ON p.id = i.project_id
		WHERE p.organization_id = $1
		ORDER BY i.project_id, i.phase, i.id`,
		organizationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list organization initiatives: %w", err)
	}
	defer rows.Close()
	return scanInitiatives(rows)
}

func (s queries) UpdateInitiativeStatus(ctx context.Context, id string, status model.InitiativeStatus) (*model.Initiative, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE initiatives SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+initiativeColumns,
		id, string(status),
	)
	return scanInitiative(row)
}

// Dependencies

func (s queries) AddDependency(ctx context.Context, dep *model.Dependency) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO dependencies (id, from_initiative_id, to_initiative_id, type, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		dep.ID,
		dep.FromInitiativeID,
		dep.ToInitiativeID,
		string(dep.Type),
		nullString(dep.CreatedBy),
	).Scan(&dep.CreatedAt)
	if isUniqueViolation(err) {
		return &model.ConflictError{
			Entity:  "dependency",
			Message: fmt.Sprintf("%s %s %s already exists", dep.FromInitiativeID, dep.Type, dep.ToInitiativeID),
		}
	}
	return err
}

func (s queries) RemoveDependency(ctx context.Context, id string) (*model.Dependency, error) {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM dependencies WHERE id = $1
		RETURNING `+dependencyColumns,
		id,
	)
	dep, err := scanDependency(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return dep, err
}

func (s queries) ListDependencies(ctx context.Context, projectID string) ([]*model.Dependency, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.from_initiative_id, d.to_initiative_id, d.type, d.created_at, d.created_by
		FROM dependencies d
		JOIN initiatives i ON i.id = d.from_initiative_id
		WHERE i.project_id = $1
		ORDER BY d.from_initiative_id, d.to_initiative_id, d.type`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list dependencies: %w", err)
	}
	defer rows.Close()
	return scanDependencies(rows)
}
