// Package store persists the pipeline's documents in SQLite: canonical
// per-production review shards, aggregator evidence snapshots, the single
// site-wide aggregate, the rebuild advisory lock, and run reports.
//
// Every document is stored whole and replaced whole; the schema never
// decomposes reviews into rows, matching the pipeline's atomic
// replace-whole-document shard semantics.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/showscore/marquee/internal/domain"
)

// shardWriteAttempts bounds retries on write contention. Shard writers
// retry a fixed number of times before failing the job, never unbounded.
const shardWriteAttempts = 3

// SQLiteStore implements the pipeline's store ports using
// modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode with a busy timeout so disjoint shard writers rarely observe
// contention at all.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS shards (
	production_id TEXT PRIMARY KEY,
	doc           TEXT NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sources (
	source_type   TEXT NOT NULL,
	production_id TEXT NOT NULL,
	doc           TEXT NOT NULL,
	fetched_at    DATETIME NOT NULL,
	PRIMARY KEY (source_type, production_id)
);

CREATE TABLE IF NOT EXISTS aggregate (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	doc        BLOB NOT NULL,
	rebuilt_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS rebuild_lock (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	owner       TEXT NOT NULL,
	acquired_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	report      TEXT NOT NULL,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sources_production_id ON sources(production_id);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// GetShard loads the canonical shard for a production.
func (s *SQLiteStore) GetShard(ctx context.Context, productionID string) (*domain.ReviewShard, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM shards WHERE production_id = ?`, productionID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrShardNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get shard %s", productionID)
	}

	var shard domain.ReviewShard
	if err := json.Unmarshal([]byte(doc), &shard); err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode shard %s", productionID)
	}
	return &shard, nil
}

// PutShard atomically replaces a production's canonical shard. Reviews
// are sorted before serialization so identical content always produces
// identical documents. Contended writes retry a fixed number of times.
func (s *SQLiteStore) PutShard(ctx context.Context, shard *domain.ReviewShard) error {
	shard.SortReviews()
	doc, err := json.Marshal(shard)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal shard %s", shard.Production.ID)
	}

	var lastErr error
	for attempt := 0; attempt < shardWriteAttempts; attempt++ {
		_, lastErr = s.db.ExecContext(ctx,
			`INSERT INTO shards (production_id, doc, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(production_id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
			shard.Production.ID, string(doc), time.Now().UTC(),
		)
		if lastErr == nil {
			return nil
		}
		if !isBusy(lastErr) || ctx.Err() != nil {
			break
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
	return eris.Wrapf(lastErr, "sqlite: put shard %s", shard.Production.ID)
}

// ListProductionIDs returns every production with a shard, sorted by id.
func (s *SQLiteStore) ListProductionIDs(ctx context.Context) ([]string, error) {
	query, args, err := sq.Select("production_id").
		From("shards").
		OrderBy("production_id").
		ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build list query")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list productions")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan production id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "sqlite: iterate productions")
}

// PutSnapshot replaces the evidence snapshot for its (source, production)
// pair.
func (s *SQLiteStore) PutSnapshot(ctx context.Context, src *domain.ReviewSource) error {
	doc, err := json.Marshal(src)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal snapshot")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sources (source_type, production_id, doc, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(source_type, production_id) DO UPDATE SET doc = excluded.doc, fetched_at = excluded.fetched_at`,
		string(src.SourceType), src.ProductionID, string(doc), src.FetchedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: put snapshot %s/%s", src.SourceType, src.ProductionID)
}

// ListSnapshots returns every stored snapshot for a production, ordered
// by source type.
func (s *SQLiteStore) ListSnapshots(ctx context.Context, productionID string) ([]domain.ReviewSource, error) {
	query, args, err := sq.Select("doc").
		From("sources").
		Where(sq.Eq{"production_id": productionID}).
		OrderBy("source_type").
		ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build snapshot query")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list snapshots %s", productionID)
	}
	defer rows.Close()

	var snapshots []domain.ReviewSource
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot")
		}
		var snapshot domain.ReviewSource
		if err := json.Unmarshal([]byte(doc), &snapshot); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode snapshot")
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, eris.Wrap(rows.Err(), "sqlite: iterate snapshots")
}

// isBusy reports whether an error is SQLite write contention.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
