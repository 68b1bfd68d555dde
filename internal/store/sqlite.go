package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
	_ "modernc.org/sqlite"
)

// SQLite is the durable store backend. Scripts and run payloads are stored
// as JSON documents; run listing metadata is broken out into columns.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and migrates) a SQLite database at dbPath.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scripts (
		id TEXT PRIMARY KEY,
		persona TEXT NOT NULL,
		body TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		script_id TEXT NOT NULL,
		state TEXT NOT NULL,
		mode TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		body TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_script ON runs(script_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) GetScript(ctx context.Context, id string) (*models.Script, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM scripts WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("script %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var script models.Script
	if err := json.Unmarshal([]byte(body), &script); err != nil {
		return nil, fmt.Errorf("decode script %s: %w", id, err)
	}
	return &script, nil
}

func (s *SQLite) ListScripts(ctx context.Context) ([]*models.Script, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM scripts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scripts []*models.Script
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var script models.Script
		if err := json.Unmarshal([]byte(body), &script); err != nil {
			return nil, fmt.Errorf("decode script: %w", err)
		}
		scripts = append(scripts, &script)
	}
	return scripts, rows.Err()
}

func (s *SQLite) PutScript(ctx context.Context, script *models.Script) error {
	if err := script.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(script)
	if err != nil {
		return fmt.Errorf("encode script %s: %w", script.ID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scripts (id, persona, body) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET persona = excluded.persona, body = excluded.body`,
		script.ID, script.Persona, string(body))
	return err
}

func (s *SQLite) DeleteScript(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scripts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("script %q: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLite) CreateRun(ctx context.Context, run *models.RunResult) error {
	body, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", run.RunID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, script_id, state, mode, started_at, body) VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID, run.ScriptID, string(run.State), string(run.Mode), run.StartedAt, string(body))
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("run %q: %w", run.RunID, ErrRunExists)
	}
	return err
}

func (s *SQLite) GetRun(ctx context.Context, id string) (*models.RunResult, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM runs WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var run models.RunResult
	if err := json.Unmarshal([]byte(body), &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}

func (s *SQLite) ListRecentRuns(ctx context.Context, limit int) ([]*models.RunResult, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.RunResult
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var run models.RunResult
		if err := json.Unmarshal([]byte(body), &run); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

func (s *SQLite) UpdateRun(ctx context.Context, run *models.RunResult) error {
	body, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", run.RunID, err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET state = ?, body = ? WHERE id = ?`,
		string(run.State), string(body), run.RunID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %q: %w", run.RunID, ErrNotFound)
	}
	return nil
}

// isUniqueViolation detects a primary-key conflict without depending on
// driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ Store = (*SQLite)(nil)
