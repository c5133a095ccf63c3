package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Fixed keys shared with the original browser build. Values under these
// keys are the same JSON array text localStorage held, so a database
// seeded from exported browser data loads unchanged.
const (
	ClientsKey    = "emmark_clients"
	ActivitiesKey = "emmark_activities"
	ConfigKey     = "emmark_config"
)

// ErrWrite marks a failed persistence write. Callers surface it instead
// of dropping the mutation silently.
var ErrWrite = errors.New("storage write failed")

// Store is the key-value substrate over SQLite. Every Put is a full
// overwrite of the key; there is no merge and no cross-key transaction.
type Store struct {
	DB  *sql.DB
	Now func() time.Time
}

func (s Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Get returns the value under key, reporting whether the key exists.
func (s Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM store WHERE key=?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Put fully overwrites the value under key.
func (s Store) Put(ctx context.Context, key, value string) error {
	ts := s.now().UTC().Format(time.RFC3339)
	_, err := s.DB.ExecContext(ctx, `INSERT INTO store(key,value,updated_at) VALUES (?,?,?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`, key, value, ts)
	if err != nil {
		return fmt.Errorf("%w: key %s: %v", ErrWrite, key, err)
	}
	return nil
}

// Delete removes a key if present.
func (s Store) Delete(ctx context.Context, key string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM store WHERE key=?`, key); err != nil {
		return fmt.Errorf("%w: key %s: %v", ErrWrite, key, err)
	}
	return nil
}
