// Package postgres stores templates in a Postgres table as JSONB documents.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/csvorganizer/internal/core"
	"github.com/JonMunkholm/csvorganizer/internal/store"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS column_templates (
	name       TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

// TemplateStore implements core.TemplateStore on Postgres.
type TemplateStore struct {
	pool *pgxpool.Pool
}

func init() {
	store.Register("postgres", New)
}

// New connects to cfg.DSN and creates the templates table if needed.
func New(ctx context.Context, cfg store.Config) (store.Store, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create column_templates: %w", err)
	}
	return &TemplateStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *TemplateStore) Close() {
	s.pool.Close()
}

func (s *TemplateStore) Create(ctx context.Context, tpl *core.Template) error {
	if tpl == nil || tpl.Name == "" {
		return core.ErrInvalidTemplateName
	}
	payload, err := json.Marshal(tpl)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO column_templates (name, id, payload, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING`,
		tpl.Name, tpl.ID, payload, tpl.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert template %q: %w", tpl.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrTemplateExists
	}
	return nil
}

func (s *TemplateStore) Get(ctx context.Context, name string) (*core.Template, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM column_templates WHERE name = $1`, name,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template %q: %w", name, err)
	}
	return decode(payload)
}

func (s *TemplateStore) List(ctx context.Context) ([]*core.Template, error) {
	rows, err := s.pool.Query(ctx, `SELECT payload FROM column_templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	payloads, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	out := make([]*core.Template, 0, len(payloads))
	for _, p := range payloads {
		tpl, err := decode(p)
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, nil
}

func (s *TemplateStore) Delete(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM column_templates WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete template %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrTemplateNotFound
	}
	return nil
}

func decode(payload []byte) (*core.Template, error) {
	var tpl core.Template
	if err := json.Unmarshal(payload, &tpl); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	return &tpl, nil
}
