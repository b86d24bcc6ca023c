package store

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/compgraph/internal/model"
)

// WriteArtifact creates a fresh graph database at path, writes snap into it
// and records a completed run carrying summary. Any file already at path is
// replaced.
func WriteArtifact(ctx context.Context, path string, snap Snapshot, summary *model.RunSummary) (*model.Run, error) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(err, "store: remove %s", p)
		}
	}

	st, err := NewSQLite(path)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck

	run, err := writeRun(ctx, st, snap, summary)
	if err != nil {
		return nil, err
	}
	zap.L().Info("store: graph artifact written",
		zap.String("path", path),
		zap.String("run_id", run.ID),
		zap.Int("entities", len(snap.Entities)),
		zap.Int("relationships", len(snap.Relationships)),
	)
	return run, nil
}

// writeRun migrates st and records snap under a new run. A failed graph write
// leaves the run marked failed.
func writeRun(ctx context.Context, st Store, snap Snapshot, summary *model.RunSummary) (*model.Run, error) {
	if err := st.Migrate(ctx); err != nil {
		return nil, err
	}

	run, err := st.CreateRun(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.WriteGraph(ctx, run.ID, snap); err != nil {
		if ferr := st.FailRun(ctx, run.ID); ferr != nil {
			zap.L().Warn("store: mark run failed", zap.String("run_id", run.ID), zap.Error(ferr))
		}
		return nil, err
	}
	if err := st.CompleteRun(ctx, run.ID, summary); err != nil {
		return nil, err
	}

	run.Status = model.RunStatusComplete
	run.Summary = summary
	return run, nil
}

// OpenExisting opens a graph database that must already exist on disk.
func OpenExisting(path string) (Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "store: stat %s", path)
	}
	st, err := NewSQLite(path)
	if err != nil {
		return nil, err
	}
	return st, nil
}
