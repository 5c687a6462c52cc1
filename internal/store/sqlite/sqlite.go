// Package sqlite stores templates in a SQLite database file.
//
// Payloads are JSON text and created_at is an RFC3339Nano string, since
// SQLite has neither a JSON nor a timestamp column type.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/csvorganizer/internal/core"
	"github.com/JonMunkholm/csvorganizer/internal/store"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS column_templates (
	name       TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

// TemplateStore implements core.TemplateStore on SQLite.
type TemplateStore struct {
	db *sql.DB
}

func init() {
	store.Register("sqlite", New)
}

// New opens cfg.DSN (a file path or "file::memory:") and creates the
// templates table if needed.
func New(ctx context.Context, cfg store.Config) (store.Store, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	// One writer at a time; also keeps in-memory databases on one connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create column_templates: %w", err)
	}
	return &TemplateStore{db: db}, nil
}

func (s *TemplateStore) Close() { _ = s.db.Close() }

func (s *TemplateStore) Create(ctx context.Context, tpl *core.Template) error {
	if tpl == nil || tpl.Name == "" {
		return core.ErrInvalidTemplateName
	}
	payload, err := json.Marshal(tpl)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO column_templates (name, id, payload, created_at)
		VALUES (?, ?, ?, ?)`,
		tpl.Name, tpl.ID, string(payload), tpl.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert template %q: %w", tpl.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrTemplateExists
	}
	return nil
}

func (s *TemplateStore) Get(ctx context.Context, name string) (*core.Template, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM column_templates WHERE name = ?`, name,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template %q: %w", name, err)
	}
	return decode(payload)
}

func (s *TemplateStore) List(ctx context.Context) ([]*core.Template, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM column_templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []*core.Template
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		tpl, err := decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, rows.Err()
}

func (s *TemplateStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM column_templates WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete template %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrTemplateNotFound
	}
	return nil
}

func decode(payload string) (*core.Template, error) {
	var tpl core.Template
	if err := json.Unmarshal([]byte(payload), &tpl); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	return &tpl, nil
}
