package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/alfredjeanlab/kplan/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanAll drains rows through scan.
func scanAll[T any](rows *sql.Rows, scan func(scannable) (*T, error)) ([]*T, error) {
	var out []*T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// scanProject scans a row in projectColumns order.
func scanProject(row scannable) (*model.Project, error) {
	var p model.Project
	var createdBy sql.NullString
	if err := row.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.CreatedAt, &createdBy); err != nil {
		return nil, err
	}
	p.CreatedBy = createdBy.String
	return &p, nil
}

func scanProjects(rows *sql.Rows) ([]*model.Project, error) {
	return scanAll(rows, scanProject)
}

// scanInitiative scans a row in initiativeColumns order.
func scanInitiative(row scannable) (*model.Initiative, error) {
	var in model.Initiative
	var createdBy sql.NullString
	err := row.Scan(
		&in.ID,
		&in.ProjectID,
		&in.Title,
		&in.Phase,
		&in.Status,
		&in.CreatedAt,
		&createdBy,
		&in.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	in.CreatedBy = createdBy.String
	return &in, nil
}

func scanInitiatives(rows *sql.Rows) ([]*model.Initiative, error) {
	return scanAll(rows, scanInitiative)
}

// scanDependency scans a row in dependencyColumns order.
func scanDependency(row scannable) (*model.Dependency, error) {
	var d model.Dependency
	var createdBy sql.NullString
	err := row.Scan(
		&d.ID,
		&d.FromInitiativeID,
		&d.ToInitiativeID,
		&d.Type,
		&d.CreatedAt,
		&createdBy,
	)
	if err != nil {
		return nil, err
	}
	d.CreatedBy = createdBy.String
	return &d, nil
}

func scanDependencies(rows *sql.Rows) ([]*model.Dependency, error) {
	return scanAll(rows, scanDependency)
}

// scanTask scans a row in taskColumns order.
func scanTask(row scannable) (*model.Task, error) {
	var t model.Task
	var (
		assignee  sql.NullString
		dueAt     sql.NullTime
		createdBy sql.NullString
	)
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&assignee,
		&t.Title,
		&t.EstimatedHours,
		&dueAt,
		&t.Status,
		&t.Priority,
		&t.CreatedAt,
		&createdBy,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.AssigneeID = assignee.String
	t.CreatedBy = createdBy.String
	if dueAt.Valid {
		d := dueAt.Time
		t.DueAt = &d
	}
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]*model.Task, error) {
	return scanAll(rows, scanTask)
}

// scanEvent scans a single row into a model.Event.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	var (
		actor   sql.NullString
		payload []byte
	)
	err := row.Scan(&e.ID, &e.Topic, &e.SubjectID, &actor, &payload, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Actor = actor.String
	if len(payload) > 0 {
		e.Payload = json.RawMessage(payload)
	}
	return &e, nil
}

func scanEvents(rows *sql.Rows) ([]*model.Event, error) {
	return scanAll(rows, scanEvent)
}

// scanConfig scans a single row into a model.Config.
func scanConfig(row scannable) (*model.Config, error) {
	var c model.Config
	var value []byte
	err := row.Scan(&c.Key, &value, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Value = json.RawMessage(value)
	return &c, nil
}

func scanConfigs(rows *sql.Rows) ([]*model.Config, error) {
	return scanAll(rows, scanConfig)
}

// nullTimePtr converts a *time.Time to a sql.NullTime.
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// jsonbBytes converts json.RawMessage to a []byte suitable for JSONB columns.
func jsonbBytes(m json.RawMessage) []byte {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}
