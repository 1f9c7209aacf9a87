package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LookupExtraction returns cached converter output for a source hash.
func (s *Store) LookupExtraction(ctx context.Context, sourceHash, converter string) (string, bool, error) {
	var text string
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT text FROM extractions WHERE source_hash = ? AND converter = ?`,
		sourceHash, converter,
	).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup extraction: %w", err)
	}
	return text, true, nil
}

// SaveExtraction caches converter output for a source hash.
func (s *Store) SaveExtraction(ctx context.Context, sourceHash, converter, sourcePath, text string) error {
	_, err := s.execWithRetry(ctx,
		`INSERT INTO extractions (source_hash, converter, source_path, text, created_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(source_hash, converter) DO UPDATE SET
             source_path = excluded.source_path,
             text = excluded.text,
             created_at = excluded.created_at`,
		sourceHash, converter, sourcePath, text, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save extraction: %w", err)
	}
	return nil
}

// ClearExtractions drops every cached extraction.
func (s *Store) ClearExtractions(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM extractions`)
	if err != nil {
		return 0, fmt.Errorf("clear extractions: %w", err)
	}
	return res.RowsAffected()
}
