// Package store records compile runs and the files they produced.
package store

import (
	"context"
	"time"
)

// Run is one compile of one strategy.
type Run struct {
	ID               string
	Strategy         string
	GeneratorVersion string
	Targets          []string
	Diagnostics      int
	CreatedAt        time.Time
}

// File is one generated file of a run.
type File struct {
	RunID   string
	Target  string
	Name    string
	Content string
}

// ArtifactStore keeps the compile history.
type ArtifactStore interface {
	// SaveRun records a run and its files atomically.
	SaveRun(ctx context.Context, run Run, files []File) error
	// ListRuns returns runs newest first. An empty strategy lists every run.
	ListRuns(ctx context.Context, strategy string) ([]Run, error)
	// GetFiles returns the files of a run in the order they were saved.
	GetFiles(ctx context.Context, runID string) ([]File, error)
	// Export writes the history tables as Parquet files into dir.
	Export(dir string) error
	Close() error
}
