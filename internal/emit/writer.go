package emit

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/compgraph/internal/store"
)

// Artifact file names inside the output directory.
const (
	IndexFile       = "index.json"
	PublicIndexFile = "index-public.json"
	EntitiesDir     = "entities"
	GraphDBFile     = "graph.db"
	XLSXFile        = "entities.xlsx"
)

// maxEntityFileBytes caps entity file names well under the 255-byte limit
// common to most filesystems.
const maxEntityFileBytes = 200

// Options controls which artifacts are written and where.
type Options struct {
	Dir          string
	BundleName   string
	BundleGlobal string
	SQLite       bool
	XLSX         bool
}

// Write renders every artifact into a staging directory beside opts.Dir and
// then swaps it into place. On error the previous output is left untouched.
func Write(ctx context.Context, opts Options, out *Output) error {
	dir := filepath.Clean(opts.Dir)
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return eris.Wrapf(err, "emit: create parent of %s", dir)
	}

	staging, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+".staging-")
	if err != nil {
		return eris.Wrap(err, "emit: create staging dir")
	}
	// MkdirTemp creates 0700; the output is meant to be served.
	if err := os.Chmod(staging, 0o755); err != nil {
		os.RemoveAll(staging) //nolint:errcheck
		return eris.Wrap(err, "emit: chmod staging dir")
	}

	if err := render(ctx, staging, opts, out); err != nil {
		os.RemoveAll(staging) //nolint:errcheck
		return err
	}

	if err := swap(staging, dir); err != nil {
		os.RemoveAll(staging) //nolint:errcheck
		return err
	}

	zap.L().Info("emit: artifacts written",
		zap.String("dir", dir),
		zap.Int("entities", len(out.Entities)),
		zap.Int("relationships", len(out.Relationships)),
		zap.Bool("sqlite", opts.SQLite),
		zap.Bool("xlsx", opts.XLSX),
	)
	return nil
}

func render(ctx context.Context, dir string, opts Options, out *Output) error {
	for _, e := range out.Entities {
		e.FillEmpty()
	}

	if err := writeJSON(filepath.Join(dir, IndexFile), BuildIndex(out)); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, PublicIndexFile), BuildPublicIndex(out)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "emit: context cancelled")
	}

	if err := writeEntityFiles(filepath.Join(dir, EntitiesDir), out); err != nil {
		return err
	}
	if err := writeBundle(filepath.Join(dir, opts.BundleName), opts.BundleGlobal, BuildBundle(out)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "emit: context cancelled")
	}

	if opts.SQLite {
		snap := store.Snapshot{
			Entities:      sortedEntities(out.Entities),
			Relationships: out.Relationships,
			Merges:        out.Merges,
		}
		if _, err := store.WriteArtifact(ctx, filepath.Join(dir, GraphDBFile), snap, out.Summary); err != nil {
			return eris.Wrap(err, "emit: graph database")
		}
	}
	if opts.XLSX {
		if err := WriteXLSX(filepath.Join(dir, XLSXFile), out); err != nil {
			return err
		}
	}
	return nil
}

func writeEntityFiles(dir string, out *Output) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "emit: create entities dir")
	}
	for _, e := range out.Entities {
		if e.Slug == "" || filepath.Base(e.Slug) != e.Slug || strings.HasPrefix(e.Slug, ".") {
			return eris.Errorf("emit: slug %q is not a valid file name", e.Slug)
		}
		if err := writeJSON(filepath.Join(dir, EntityFile(e.Slug)), e); err != nil {
			return err
		}
	}
	return nil
}

// EntityFile returns the file name of slug's entity document: slug + ".json",
// or for slugs too long to be a file name, a truncated slug followed by a
// hash of the full slug.
func EntityFile(slug string) string {
	name := slug + ".json"
	if len(name) <= maxEntityFileBytes {
		return name
	}

	sum := sha256.Sum256([]byte(slug))
	suffix := "-" + hex.EncodeToString(sum[:])[:12] + ".json"
	prefix := slug[:maxEntityFileBytes-len(suffix)]
	for !utf8.ValidString(prefix) {
		prefix = prefix[:len(prefix)-1]
	}
	return strings.TrimRight(prefix, "-") + suffix
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "emit: marshal %s", filepath.Base(path))
	}
	data = append(data, '\n')
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "emit: write %s", filepath.Base(path))
}

const bundleTemplate = `(function (root, factory) {
  if (typeof module === 'object' && module.exports) {
    module.exports = factory();
  } else {
    root.%s = factory();
  }
}(typeof self !== 'undefined' ? self : this, function () {
  return %s;
}));
`

// RenderBundle wraps b so it loads under a CommonJS loader or as a plain
// script that assigns the named global.
func RenderBundle(global string, b Bundle) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, eris.Wrap(err, "emit: marshal bundle")
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, bundleTemplate, global, data)
	return buf.Bytes(), nil
}

func writeBundle(path, global string, b Bundle) error {
	data, err := RenderBundle(global, b)
	if err != nil {
		return err
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "emit: write %s", filepath.Base(path))
}

// swap replaces dir with staging. The previous dir is moved aside first and
// restored if the final rename fails.
func swap(staging, dir string) error {
	backup := ""
	if _, err := os.Stat(dir); err == nil {
		backup = staging + ".previous"
		if err := os.Rename(dir, backup); err != nil {
			return eris.Wrapf(err, "emit: move aside %s", dir)
		}
	} else if !os.IsNotExist(err) {
		return eris.Wrapf(err, "emit: stat %s", dir)
	}

	if err := os.Rename(staging, dir); err != nil {
		if backup != "" {
			if rerr := os.Rename(backup, dir); rerr != nil {
				zap.L().Error("emit: restore previous output", zap.String("dir", dir), zap.Error(rerr))
			}
		}
		return eris.Wrapf(err, "emit: move staging into %s", dir)
	}

	if backup != "" {
		if err := os.RemoveAll(backup); err != nil {
			zap.L().Warn("emit: remove previous output", zap.String("path", backup), zap.Error(err))
		}
	}
	return nil
}
