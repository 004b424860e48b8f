package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"curator/internal/core"
)

// AddSource registers a new content source.
func (s *Store) AddSource(ctx context.Context, src core.Source) error {
	query := `
	INSERT INTO sources (id, url, category, active, error_count, last_error, last_fetched, last_modified, etag, date_added)
	VALUES (?, ?, ?, ?, 0, '', NULL, '', '', ?)`

	_, err := s.db.ExecContext(ctx, query, src.ID, src.URL, src.Category, src.Active, src.DateAdded)
	if err != nil {
		return fmt.Errorf("failed to add source: %w", err)
	}
	return nil
}

// GetSource returns the source with the given ID, or (nil, nil).
func (s *Store) GetSource(ctx context.Context, id string) (*core.Source, error) {
	row := s.db.QueryRowContext(ctx, sourceSelect+" WHERE id = ?", id)
	src, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan source: %w", err)
	}
	return src, nil
}

// ListSources returns all sources; activeOnly restricts to pollable ones.
func (s *Store) ListSources(ctx context.Context, activeOnly bool) ([]core.Source, error) {
	query := sourceSelect
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY date_added ASC"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []core.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, *src)
	}
	return sources, rows.Err()
}

// RecordSourceSuccess resets the failure counter and stores the cache
// headers returned by the source.
func (s *Store) RecordSourceSuccess(ctx context.Context, id, lastModified, etag string, fetchedAt time.Time) error {
	query := `
	UPDATE sources
	SET error_count = 0, last_error = '', last_fetched = ?, last_modified = ?, etag = ?
	WHERE id = ?`

	_, err := s.db.ExecContext(ctx, query, fetchedAt, lastModified, etag, id)
	if err != nil {
		return fmt.Errorf("failed to record source success: %w", err)
	}
	return nil
}

// RecordSourceFailure increments the consecutive failure counter and
// deactivates the source once it reaches maxFailures. It returns the
// new counter value and whether the source was deactivated.
func (s *Store) RecordSourceFailure(ctx context.Context, id, fetchErr string, maxFailures int) (int, bool, error) {
	query := `
	UPDATE sources
	SET error_count = error_count + 1,
	    last_error = ?,
	    active = CASE WHEN error_count + 1 >= ? THEN 0 ELSE active END
	WHERE id = ?`

	_, err := s.db.ExecContext(ctx, query, fetchErr, maxFailures, id)
	if err != nil {
		return 0, false, fmt.Errorf("failed to record source failure: %w", err)
	}

	var count int
	var active bool
	if err := s.db.QueryRowContext(ctx, "SELECT error_count, active FROM sources WHERE id = ?", id).Scan(&count, &active); err != nil {
		return 0, false, fmt.Errorf("failed to read source state: %w", err)
	}
	return count, !active, nil
}

// SetSourceActive toggles a source's polling flag and clears its
// failure counter on reactivation.
func (s *Store) SetSourceActive(ctx context.Context, id string, active bool) error {
	query := "UPDATE sources SET active = ?, error_count = CASE WHEN ? THEN 0 ELSE error_count END WHERE id = ?"
	_, err := s.db.ExecContext(ctx, query, active, active, id)
	if err != nil {
		return fmt.Errorf("failed to set source active: %w", err)
	}
	return nil
}

const sourceSelect = `
SELECT id, url, category, active, error_count, last_error, last_fetched, last_modified, etag, date_added
FROM sources`

func scanSource(row rowScanner) (*core.Source, error) {
	var src core.Source
	var lastFetched sql.NullTime

	err := row.Scan(&src.ID, &src.URL, &src.Category, &src.Active, &src.ErrorCount,
		&src.LastError, &lastFetched, &src.LastModified, &src.ETag, &src.DateAdded)
	if err != nil {
		return nil, err
	}
	if lastFetched.Valid {
		src.LastFetched = lastFetched.Time
	}
	return &src, nil
}
