package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const pageColumns = "slug, season, episode, path, title, content_hash, has_english, has_chinese, english_source, chinese_source, run_id, updated_at"

// UpsertPage records the page produced for an episode, replacing any earlier row.
func (s *Store) UpsertPage(ctx context.Context, page Page) error {
	if strings.TrimSpace(page.Slug) == "" {
		return errors.New("page slug is required")
	}
	if page.UpdatedAt.IsZero() {
		page.UpdatedAt = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO pages (`+pageColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(slug) DO UPDATE SET
             season = excluded.season,
             episode = excluded.episode,
             path = excluded.path,
             title = excluded.title,
             content_hash = excluded.content_hash,
             has_english = excluded.has_english,
             has_chinese = excluded.has_chinese,
             english_source = excluded.english_source,
             chinese_source = excluded.chinese_source,
             run_id = excluded.run_id,
             updated_at = excluded.updated_at`,
		page.Slug,
		page.Season,
		page.Episode,
		page.Path,
		page.Title,
		page.ContentHash,
		boolToInt(page.HasEnglish),
		boolToInt(page.HasChinese),
		nullableString(page.EnglishSource),
		nullableString(page.ChineseSource),
		page.RunID,
		formatTime(page.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert page %s: %w", page.Slug, err)
	}
	return nil
}

// ListPages returns every recorded page ordered by season and episode.
func (s *Store) ListPages(ctx context.Context) ([]Page, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+pageColumns+` FROM pages ORDER BY season, episode, slug`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, *page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return pages, nil
}

// GetPage fetches a page by slug; nil when absent.
func (s *Store) GetPage(ctx context.Context, slug string) (*Page, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+pageColumns+` FROM pages WHERE slug = ?`, strings.ToLower(strings.TrimSpace(slug)))
	page, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	return page, nil
}

// DeletePage removes the page row for slug. Missing rows are not an error.
func (s *Store) DeletePage(ctx context.Context, slug string) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM pages WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("delete page %s: %w", slug, err)
	}
	return nil
}

func scanPage(scanner interface{ Scan(dest ...any) error }) (*Page, error) {
	var (
		page       Page
		hasEnglish int
		hasChinese int
		enSource   sql.NullString
		zhSource   sql.NullString
		updatedRaw string
	)
	if err := scanner.Scan(
		&page.Slug,
		&page.Season,
		&page.Episode,
		&page.Path,
		&page.Title,
		&page.ContentHash,
		&hasEnglish,
		&hasChinese,
		&enSource,
		&zhSource,
		&page.RunID,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	page.HasEnglish = hasEnglish != 0
	page.HasChinese = hasChinese != 0
	page.EnglishSource = enSource.String
	page.ChineseSource = zhSource.String
	if updated, err := parseTimeString(updatedRaw); err == nil {
		page.UpdatedAt = updated
	}
	return &page, nil
}
