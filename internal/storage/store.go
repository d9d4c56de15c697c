package storage

import (
	"context"

	"rubricon/internal/rubric"
)

// TaskStore defines the operations the API server needs for task tracking.
type TaskStore interface {
	// CreateTask records a new pending task.
	CreateTask(ctx context.Context, id, filename string) error

	// UpdateStatus moves a task to a new status.
	UpdateStatus(ctx context.Context, id, status string) error

	// SetResult stores a completed analysis and its rendered prompt document.
	SetResult(ctx context.Context, id string, result *rubric.AnalysisResult, yamlDoc string) error

	// SetError marks a task failed with a message.
	SetError(ctx context.Context, id, message string) error

	// UpdateYAML replaces the stored prompt document after a caller edit.
	UpdateYAML(ctx context.Context, id, yamlDoc string) error

	// GetTask retrieves a task by its ID.
	GetTask(ctx context.Context, id string) (*Task, error)

	Close() error
}
