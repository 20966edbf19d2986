// Package store persists finished simulation runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/miretskiy/mlqsim/simulator"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("run not found")

// Run is the stored outcome of one simulation.
type Run struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	CreatedAt   time.Time                `json:"createdAt"`
	TimeQuantum int                      `json:"timeQuantum"`
	Steps       int                      `json:"steps"`
	Processes   []simulator.Process      `json:"processes"`
	Gantt       []simulator.GanttEvent   `json:"ganttChart"`
	Metrics     []simulator.QueueMetrics `json:"queueMetrics"`
	Summary     simulator.Summary        `json:"summary"`
}

// NewRun captures a finished state. The caller assigns ID and Name.
func NewRun(state simulator.State, cfg simulator.SimConfig, metrics []simulator.QueueMetrics) *Run {
	snap := state.Clone()
	return &Run{
		CreatedAt:   time.Now().UTC(),
		TimeQuantum: cfg.TimeQuantum,
		Steps:       snap.CurrentStep,
		Processes:   snap.Processes,
		Gantt:       snap.Gantt,
		Metrics:     metrics,
		Summary:     simulator.Summarize(snap),
	}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL DEFAULT '',
		time_quantum  INTEGER NOT NULL,
		steps         INTEGER NOT NULL DEFAULT 0,
		processes     TEXT NOT NULL,
		gantt         TEXT NOT NULL,
		queue_metrics TEXT NOT NULL,
		summary       TEXT NOT NULL,
		created_at    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
