package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const runColumns = "id, origin, status, started_at, finished_at, pages_written, pages_unchanged, pages_pruned, issue_count, error_message"

// BeginRun inserts a running build with the given identifier.
func (s *Store) BeginRun(ctx context.Context, id, trigger string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("run id is required")
	}
	if trigger = strings.TrimSpace(trigger); trigger == "" {
		trigger = "build"
	}
	started := time.Now().UTC()
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, origin, status, started_at) VALUES (?, ?, ?, ?)`,
		id, trigger, string(RunRunning), formatTime(started),
	); err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &Run{ID: id, Trigger: trigger, Status: RunRunning, StartedAt: started}, nil
}

// FinishRun stamps the run with its final status and counts. A non-empty
// errMsg is stored alongside failed runs.
func (s *Store) FinishRun(ctx context.Context, id string, status RunStatus, counts RunCounts, errMsg string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE runs
         SET status = ?, finished_at = ?, pages_written = ?, pages_unchanged = ?,
             pages_pruned = ?, issue_count = ?, error_message = ?
         WHERE id = ?`,
		string(status),
		formatTime(time.Now()),
		counts.Written,
		counts.Unchanged,
		counts.Pruned,
		counts.Issues,
		nullableString(errMsg),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %q", id)
	}
	return nil
}

// LastRun returns the most recently started run, or nil when none exist.
func (s *Store) LastRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last run: %w", err)
	}
	return run, nil
}

// GetRun fetches a run by identifier; nil when absent.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		status      string
		startedRaw  string
		finishedRaw sql.NullString
		errMsg      sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Trigger,
		&status,
		&startedRaw,
		&finishedRaw,
		&run.PagesWritten,
		&run.PagesUnchanged,
		&run.PagesPruned,
		&run.IssueCount,
		&errMsg,
	); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	run.ErrorMessage = errMsg.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}
