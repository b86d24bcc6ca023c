// Package store persists a built competitor graph as a queryable SQLite file.
package store

import (
	"context"

	"github.com/sells-group/compgraph/internal/model"
)

// Snapshot is the graph content written for one run.
type Snapshot struct {
	Entities      []*model.Entity
	Relationships []model.Relationship
	Merges        []model.MergeRecord
}

// Store defines the persistence interface for the graph artifact.
type Store interface {
	// Runs
	CreateRun(ctx context.Context) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error
	FailRun(ctx context.Context, runID string) error
	LastRun(ctx context.Context) (*model.Run, error)

	// Graph
	WriteGraph(ctx context.Context, runID string, snap Snapshot) error
	GetEntity(ctx context.Context, slug string) (*model.Entity, error)
	CountEntities(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
