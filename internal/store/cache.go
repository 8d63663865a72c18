package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// GetCached returns the payload cached under (kind, key) if it was fetched at
// or after notBefore.
func (s *Store) GetCached(ctx context.Context, kind, key string, notBefore time.Time) ([]byte, bool, error) {
	var payload []byte
	var fetchedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM response_cache WHERE kind = ? AND key = ?`, kind, key,
	).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return nil, false, err
	}
	if parsed.Before(notBefore) {
		return nil, false, nil
	}
	return payload, true, nil
}

// PutCached stores payload under (kind, key), replacing any previous entry.
func (s *Store) PutCached(ctx context.Context, kind, key string, payload []byte, fetchedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO response_cache (kind, key, payload, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(kind, key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		kind, key, payload, fetchedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// ClearCache removes every cached response and returns the number removed.
func (s *Store) ClearCache(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM response_cache`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
