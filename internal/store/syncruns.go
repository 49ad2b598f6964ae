package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/morehouse/mhouse/internal/model"
)

// ErrNoSyncRun is returned when no sync run has been recorded.
var ErrNoSyncRun = errors.New("no sync run recorded")

// runTimeLayout is fixed-width so stored timestamps sort lexically.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SaveSyncRun records or updates a sync run.
func (s *Store) SaveSyncRun(ctx context.Context, run model.SyncRun) error {
	var result sql.NullString
	if run.Result != nil {
		data, err := json.Marshal(run.Result)
		if err != nil {
			return fmt.Errorf("encoding sync result: %w", err)
		}
		result = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO sync_runs
			(run_id, status, started_at, finished_at, result_json)
			VALUES (?, ?, ?, ?, ?)`,
		run.ID, string(run.Status), formatTime(run.StartedAt), formatTime(run.FinishedAt), result,
	)
	if err != nil {
		return fmt.Errorf("saving sync run %s: %w", run.ID, err)
	}
	return nil
}

// LastSyncRun returns the most recently started run, with LastSyncedAt set
// to the finish time of the latest completed run.
func (s *Store) LastSyncRun(ctx context.Context) (model.SyncRun, error) {
	var run model.SyncRun
	var status string
	var started, finished, result sql.NullString

	err := s.db.QueryRowContext(ctx, `SELECT run_id, status, started_at, finished_at, result_json
		FROM sync_runs ORDER BY started_at DESC LIMIT 1`).
		Scan(&run.ID, &status, &started, &finished, &result)
	if errors.Is(err, sql.ErrNoRows) {
		return run, ErrNoSyncRun
	}
	if err != nil {
		return run, fmt.Errorf("reading sync runs: %w", err)
	}

	run.Status = model.SyncState(status)
	run.StartedAt = parseTime(started)
	run.FinishedAt = parseTime(finished)
	if result.Valid && result.String != "" {
		var r model.SyncResult
		if err := json.Unmarshal([]byte(result.String), &r); err == nil {
			run.Result = &r
		}
	}

	var lastOK sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT finished_at FROM sync_runs
		WHERE status = ? ORDER BY finished_at DESC LIMIT 1`, string(model.SyncCompleted)).Scan(&lastOK)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return run, fmt.Errorf("reading last completed sync: %w", err)
	}
	run.LastSyncedAt = parseTime(lastOK)
	return run, nil
}

func formatTime(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(runTimeLayout), Valid: true}
}

func parseTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(runTimeLayout, ns.String)
	if err != nil {
		return nil
	}
	return &t
}
