package ingest

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/compgraph/internal/model"
)

// LoadSnapshots reads every *.json file directly inside dir, in file name
// order. In strict mode the first malformed file aborts the load; otherwise
// malformed files are skipped with a warning.
func LoadSnapshots(dir string, strict bool) ([]model.RawSnapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read snapshot dir %s", dir)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	snapshots := make([]model.RawSnapshot, 0, len(names))
	skipped := 0
	for _, name := range names {
		snap, err := readSnapshot(filepath.Join(dir, name))
		if err != nil {
			if strict {
				return nil, err
			}
			skipped++
			zap.L().Warn("ingest: skipping malformed snapshot",
				zap.String("file", name),
				zap.Error(err),
			)
			continue
		}
		snap.File = name
		snapshots = append(snapshots, *snap)
	}

	zap.L().Info("ingest: snapshots loaded",
		zap.String("dir", dir),
		zap.Int("files", len(names)),
		zap.Int("loaded", len(snapshots)),
		zap.Int("skipped", skipped),
	)
	return snapshots, nil
}

func readSnapshot(path string) (*model.RawSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	snap, err := DecodeJSONObject[model.RawSnapshot](f)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: decode %s", path)
	}
	if err := snap.Validate(); err != nil {
		return nil, eris.Wrapf(err, "ingest: validate %s", path)
	}
	return snap, nil
}
