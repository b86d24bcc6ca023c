package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/compgraph/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas below are per connection.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'running',
	summary    TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS entities (
	slug           TEXT PRIMARY KEY,
	run_id         TEXT NOT NULL REFERENCES runs(id),
	name           TEXT NOT NULL,
	ticker         TEXT,
	is_public      INTEGER NOT NULL DEFAULT 0,
	entity_type    TEXT NOT NULL,
	ownership      TEXT,
	parent_slug    TEXT,
	revenue_raw    REAL,
	market_cap_raw REAL,
	mentions       INTEGER NOT NULL DEFAULT 0,
	record         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS relationships (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	source TEXT NOT NULL,
	target TEXT NOT NULL,
	year   INTEGER NOT NULL,
	notes  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS mentions (
	run_id      TEXT NOT NULL REFERENCES runs(id),
	slug        TEXT NOT NULL,
	by_slug     TEXT NOT NULL,
	by_name     TEXT NOT NULL,
	by_ticker   TEXT,
	year        INTEGER NOT NULL,
	PRIMARY KEY (slug, by_slug, year)
);

CREATE TABLE IF NOT EXISTS merges (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	from_slug TEXT NOT NULL,
	into_slug TEXT NOT NULL,
	reason    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entities_ticker ON entities(ticker);
CREATE INDEX IF NOT EXISTS idx_entities_public ON entities(is_public);
CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(source);
CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships(target);
CREATE INDEX IF NOT EXISTS idx_mentions_by_slug ON mentions(by_slug);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET summary = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(summaryJSON), string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

// LastRun returns the most recently created run.
func (s *SQLiteStore) LastRun(ctx context.Context) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, summary, created_at, updated_at FROM runs ORDER BY created_at DESC LIMIT 1`,
	)
	return scanRun(row)
}

// WriteGraph inserts every entity, relationship, mention and merge of snap
// in a single transaction.
func (s *SQLiteStore) WriteGraph(ctx context.Context, runID string, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin graph tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertEntities(ctx, tx, runID, snap.Entities); err != nil {
		return err
	}
	if err := insertRelationships(ctx, tx, runID, snap.Relationships); err != nil {
		return err
	}
	if err := insertMerges(ctx, tx, runID, snap.Merges); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit graph tx")
}

func insertEntities(ctx context.Context, tx *sql.Tx, runID string, entities []*model.Entity) error {
	entStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entities (slug, run_id, name, ticker, is_public, entity_type, ownership, parent_slug,
		 revenue_raw, market_cap_raw, mentions, record) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare entity insert")
	}
	defer entStmt.Close() //nolint:errcheck

	menStmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO mentions (run_id, slug, by_slug, by_name, by_ticker, year) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare mention insert")
	}
	defer menStmt.Close() //nolint:errcheck

	for _, e := range entities {
		record, err := json.Marshal(e)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal entity %s", e.Slug)
		}
		var revenue, marketCap sql.NullFloat64
		if e.Financials != nil {
			revenue = nullFloat(e.Financials.RevenueRaw)
			marketCap = nullFloat(e.Financials.MarketCapRaw)
		}
		_, err = entStmt.ExecContext(ctx,
			e.Slug, runID, e.Name, nullString(e.Ticker), e.IsPublic, string(e.EntityType),
			nullString(e.Ownership), nullString(e.ParentSlug), revenue, marketCap,
			len(e.MentionedBy), string(record),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert entity %s", e.Slug)
		}

		for _, m := range e.MentionedBy {
			_, err := menStmt.ExecContext(ctx, runID, e.Slug, m.Slug, m.Name, nullString(m.Ticker), m.Year)
			if err != nil {
				return eris.Wrapf(err, "sqlite: insert mention %s<-%s", e.Slug, m.Slug)
			}
		}
	}
	return nil
}

func insertRelationships(ctx context.Context, tx *sql.Tx, runID string, rels []model.Relationship) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO relationships (run_id, source, target, year, notes) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare relationship insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, r := range rels {
		if _, err := stmt.ExecContext(ctx, runID, r.Source, r.Target, r.Year, r.Notes); err != nil {
			return eris.Wrapf(err, "sqlite: insert relationship %s->%s", r.Source, r.Target)
		}
	}
	return nil
}

func insertMerges(ctx context.Context, tx *sql.Tx, runID string, merges []model.MergeRecord) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO merges (run_id, from_slug, into_slug, reason) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare merge insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, m := range merges {
		if _, err := stmt.ExecContext(ctx, runID, m.From, m.Into, m.Reason); err != nil {
			return eris.Wrapf(err, "sqlite: insert merge %s->%s", m.From, m.Into)
		}
	}
	return nil
}

// GetEntity returns the stored record for slug, or nil when absent.
func (s *SQLiteStore) GetEntity(ctx context.Context, slug string) (*model.Entity, error) {
	var record string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM entities WHERE slug = ?`, slug).Scan(&record)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get entity %s", slug)
	}

	var e model.Entity
	if err := json.Unmarshal([]byte(record), &e); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal entity %s", slug)
	}
	return &e, nil
}

func (s *SQLiteStore) CountEntities(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count entities")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var summaryJSON sql.NullString

	err := row.Scan(&r.ID, &r.Status, &summaryJSON, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if summaryJSON.Valid {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
	}
	return &r, nil
}
