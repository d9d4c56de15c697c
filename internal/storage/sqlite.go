// Package storage persists analysis tasks in SQLite so API clients can poll
// task status and fetch results after the analysis goroutine finishes.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"rubricon/internal/rubric"
)

// Task statuses move strictly forward: pending -> processing -> completed or
// failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Task is one analysis request tracked through the API.
type Task struct {
	ID        string
	Filename  string
	Status    string
	Result    *rubric.AnalysisResult
	YAML      string
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			filename TEXT,
			status TEXT NOT NULL,
			result JSON,
			yaml TEXT,
			error TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// CreateTask records a new pending task.
func (s *SQLiteStore) CreateTask(ctx context.Context, id, filename string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, filename, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, filename, StatusPending, now, now)
	return err
}

// UpdateStatus moves a task to a new status.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?
	`, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// SetResult stores the completed analysis and its rendered prompt document.
func (s *SQLiteStore) SetResult(ctx context.Context, id string, result *rubric.AnalysisResult, yamlDoc string) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status = ?, result = ?, yaml = ?, error = '', updated_at = ?
		WHERE id = ?
	`, StatusCompleted, payload, yamlDoc, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// SetError marks a task failed with a message.
func (s *SQLiteStore) SetError(ctx context.Context, id, message string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, StatusFailed, message, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// UpdateYAML replaces the stored prompt document after a caller edit.
func (s *SQLiteStore) UpdateYAML(ctx context.Context, id, yamlDoc string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET yaml = ?, updated_at = ? WHERE id = ?
	`, yamlDoc, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// GetTask loads a task by id. Returns sql.ErrNoRows when absent.
func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, status, result, yaml, error, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id)

	var t Task
	var result sql.NullString
	var yamlDoc sql.NullString
	var errMsg sql.NullString
	if err := row.Scan(&t.ID, &t.Filename, &t.Status, &result, &yamlDoc, &errMsg, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if result.Valid && result.String != "" {
		var r rubric.AnalysisResult
		if err := json.Unmarshal([]byte(result.String), &r); err != nil {
			return nil, fmt.Errorf("decoding stored result: %w", err)
		}
		t.Result = &r
	}
	t.YAML = yamlDoc.String
	t.Error = errMsg.String
	return &t, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task %s not found", id)
	}
	return nil
}
