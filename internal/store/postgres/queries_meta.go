package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alfredjeanlab/kplan/internal/model"
)

// Events

func (s queries) RecordEvent(ctx context.Context, e *model.Event) error {
	return s.db.QueryRowContext(ctx, `
		INSERT INTO events (topic, subject_id, actor, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		e.Topic, e.SubjectID, nullString(e.Actor), jsonbBytes(e.Payload),
	).Scan(&e.ID, &e.CreatedAt)
}

func (s queries) GetEvents(ctx context.Context, subjectID string) ([]*model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topic, subject_id, actor, payload, created_at
		FROM events
		WHERE subject_id = $1
		ORDER BY created_at, id`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// Configs

func (s queries) SetConfig(ctx context.Context, c *model.Config) error {
	return s.db.QueryRowContext(ctx, `
		INSERT INTO configs (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()
		RETURNING created_at, updated_at`,
		c.Key, []byte(c.Value),
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (s queries) GetConfig(ctx context.Context, key string) (*model.Config, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT key, value, created_at, updated_at
		FROM configs WHERE key = $1`, key)
	return scanConfig(row)
}

func (s queries) ListConfigs(ctx context.Context, namespace string) ([]*model.Config, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value, created_at, updated_at
		FROM configs WHERE key LIKE $1 || ':%'
		ORDER BY key`, namespace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConfigs(rows)
}

func (s queries) ListAllConfigs(ctx context.Context) ([]*model.Config, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value, created_at, updated_at
		FROM configs ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConfigs(rows)
}

func (s queries) DeleteConfig(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM configs WHERE key = $1`, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
