package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"

	"github.com/showscore/marquee/internal/domain"
)

// ReplaceAggregate atomically replaces the site-wide aggregate document.
// A failed write leaves the previous document intact: the upsert runs in
// a single implicit transaction.
func (s *SQLiteStore) ReplaceAggregate(ctx context.Context, doc []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO aggregate (id, doc, rebuilt_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, rebuilt_at = excluded.rebuilt_at`,
		doc, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: replace aggregate")
}

// GetAggregate returns the current aggregate document, or nil when no
// rebuild has completed yet.
func (s *SQLiteStore) GetAggregate(ctx context.Context) ([]byte, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM aggregate WHERE id = 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get aggregate")
	}
	return doc, nil
}

// AcquireRebuildLock takes the exclusive advisory rebuild lock by
// inserting the single lock row. A second rebuild attempt while one is in
// progress fails fast with domain.ErrRebuildConflict rather than racing.
func (s *SQLiteStore) AcquireRebuildLock(ctx context.Context, owner string) (func() error, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO rebuild_lock (id, owner, acquired_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		owner, time.Now().UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: acquire rebuild lock")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: rebuild lock rows affected")
	}
	if affected == 0 {
		return nil, domain.ErrRebuildConflict
	}

	release := func() error {
		_, err := s.db.ExecContext(context.Background(),
			`DELETE FROM rebuild_lock WHERE id = 1 AND owner = ?`, owner)
		return eris.Wrap(err, "sqlite: release rebuild lock")
	}
	return release, nil
}

// SaveRun persists a completed run report.
func (s *SQLiteStore) SaveRun(ctx context.Context, report *domain.RunReport) error {
	doc, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run report")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, report, started_at, finished_at) VALUES (?, ?, ?, ?, ?)`,
		report.ID, string(report.Kind), string(doc), report.StartedAt.UTC(), report.FinishedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: save run %s", report.ID)
}

// ListRuns returns the most recent run reports, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]domain.RunReport, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := sq.Select("report").
		From("runs").
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build runs query")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var reports []domain.RunReport
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run report")
		}
		var report domain.RunReport
		if err := json.Unmarshal([]byte(doc), &report); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode run report")
		}
		reports = append(reports, report)
	}
	return reports, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}
