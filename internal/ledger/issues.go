package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RecordIssue stores a skipped document against its run.
func (s *Store) RecordIssue(ctx context.Context, issue Issue) error {
	if strings.TrimSpace(issue.RunID) == "" {
		return errors.New("issue run id is required")
	}
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = time.Now()
	}
	if strings.TrimSpace(issue.Kind) == "" {
		issue.Kind = "failure"
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO issues (run_id, source, episode_key, kind, message, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		issue.RunID,
		issue.Source,
		nullableString(issue.EpisodeKey),
		issue.Kind,
		issue.Message,
		formatTime(issue.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("record issue: %w", err)
	}
	return nil
}

// ListIssues returns the issues recorded for a run in insertion order.
func (s *Store) ListIssues(ctx context.Context, runID string) ([]Issue, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, run_id, source, episode_key, kind, message, created_at
         FROM issues WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	var issues []Issue
	for rows.Next() {
		var (
			issue      Issue
			episodeKey sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&issue.ID, &issue.RunID, &issue.Source, &episodeKey, &issue.Kind, &issue.Message, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issue.EpisodeKey = episodeKey.String
		if created, err := parseTimeString(createdRaw); err == nil {
			issue.CreatedAt = created
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issues: %w", err)
	}
	return issues, nil
}
