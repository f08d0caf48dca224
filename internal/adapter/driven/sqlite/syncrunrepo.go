package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ericfisherdev/assetsync/internal/domain/model"
	"github.com/ericfisherdev/assetsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SyncRunStore = (*SyncRunRepo)(nil)

// timeLayout is fixed-width so lexical order in SQLite matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SyncRunRepo is the SQLite implementation of the SyncRunStore port interface.
type SyncRunRepo struct {
	db *DB
}

// NewSyncRunRepo creates a new SyncRunRepo backed by the given DB.
func NewSyncRunRepo(db *DB) *SyncRunRepo {
	return &SyncRunRepo{db: db}
}

// Record inserts a finished run. Timestamps are stored as fixed-width UTC strings.
func (r *SyncRunRepo) Record(ctx context.Context, run model.SyncRun) (int64, error) {
	const query = `
		INSERT INTO sync_runs (
			trigger, repo, ref, status, message,
			added, modified, removed, promoted, deleted, failed,
			started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.Writer.ExecContext(ctx, query,
		string(run.Trigger), run.Repo, run.Ref, string(run.Status), run.Message,
		run.Added, run.Modified, run.Removed, run.Promoted, run.Deleted, run.Failed,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("record sync run for %s: %w", run.Repo, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get sync run id for %s: %w", run.Repo, err)
	}

	return id, nil
}

// ListRecent returns up to limit runs ordered by started_at DESC, id DESC.
func (r *SyncRunRepo) ListRecent(ctx context.Context, limit int) ([]model.SyncRun, error) {
	const query = `
		SELECT id, trigger, repo, ref, status, message,
			added, modified, removed, promoted, deleted, failed,
			started_at, finished_at
		FROM sync_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	runs := []model.SyncRun{}
	for rows.Next() {
		var (
			run                 model.SyncRun
			trigger, status     string
			startedAt, finished string
		)
		if err := rows.Scan(
			&run.ID, &trigger, &run.Repo, &run.Ref, &status, &run.Message,
			&run.Added, &run.Modified, &run.Removed, &run.Promoted, &run.Deleted, &run.Failed,
			&startedAt, &finished,
		); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}

		run.Trigger = model.Trigger(trigger)
		run.Status = model.RunStatus(status)

		if run.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at for run %d: %w", run.ID, err)
		}
		if run.FinishedAt, err = parseTime(finished); err != nil {
			return nil, fmt.Errorf("parse finished_at for run %d: %w", run.ID, err)
		}

		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync runs: %w", err)
	}

	return runs, nil
}

// parseTime attempts to parse a time string in common SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %q", s)
}
