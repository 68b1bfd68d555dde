// Package store persists scripts and run results. Two backends exist: an
// in-memory store for tests and single-process serving, and a durable
// SQLite store.
//
// Run records follow a single-writer discipline: CreateRun inserts a run id
// exactly once, and only the engine that owns a run updates it afterward.
// No cross-run locking is required.
package store

import (
	"context"
	"errors"

	"github.com/Rohit-Deshmukh/Voice-Framework/internal/models"
)

// ErrNotFound is returned when a script or run id does not exist.
var ErrNotFound = errors.New("not found")

// ErrRunExists is returned when CreateRun is called twice for one run id.
var ErrRunExists = errors.New("run already exists")

// ScriptStore holds authored scripts.
type ScriptStore interface {
	GetScript(ctx context.Context, id string) (*models.Script, error)
	ListScripts(ctx context.Context) ([]*models.Script, error)
	PutScript(ctx context.Context, script *models.Script) error
	DeleteScript(ctx context.Context, id string) error
}

// RunStore holds run results.
type RunStore interface {
	// CreateRun inserts a new run record. The run id must not exist yet.
	CreateRun(ctx context.Context, run *models.RunResult) error
	GetRun(ctx context.Context, id string) (*models.RunResult, error)
	// ListRecentRuns returns up to limit runs, newest first.
	ListRecentRuns(ctx context.Context, limit int) ([]*models.RunResult, error)
	// UpdateRun replaces the stored record for run.RunID.
	UpdateRun(ctx context.Context, run *models.RunResult) error
}

// Store combines both interfaces; both backends implement it.
type Store interface {
	ScriptStore
	RunStore
}
