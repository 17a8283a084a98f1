// Package sqlite provides a SQLite-backed quota store for single-instance
// deployments that want quota state to survive restarts.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pysensei/ai-gateway/internal/quota"
)

// Store implements quota.Store on a SQLite database.
type Store struct {
	db *sql.DB
}

var _ quota.Store = (*Store)(nil)

// New opens (or creates) the database at dbPath and initializes the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS quota_records (
		identity TEXT PRIMARY KEY,
		count INTEGER NOT NULL,
		reset_at INTEGER NOT NULL
	)`)
	return err
}

func (s *Store) Get(ctx context.Context, identity string) (quota.Record, bool, error) {
	var count int
	var resetMs int64
	err := s.db.QueryRowContext(ctx,
		"SELECT count, reset_at FROM quota_records WHERE identity = ?", identity,
	).Scan(&count, &resetMs)
	if errors.Is(err, sql.ErrNoRows) {
		return quota.Record{}, false, nil
	}
	if err != nil {
		return quota.Record{}, false, fmt.Errorf("quota get %s: %w", identity, err)
	}
	return quota.Record{Count: count, ResetAt: time.UnixMilli(resetMs)}, true, nil
}

func (s *Store) Set(ctx context.Context, identity string, rec quota.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quota_records (identity, count, reset_at) VALUES (?, ?, ?)
		 ON CONFLICT(identity) DO UPDATE SET count = excluded.count, reset_at = excluded.reset_at`,
		identity, rec.Count, rec.ResetAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("quota set %s: %w", identity, err)
	}
	return nil
}

// Prune deletes records whose window expired before now. The gate replaces
// expired records lazily, so this only reclaims space for identities that
// stopped requesting.
func (s *Store) Prune(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM quota_records WHERE reset_at < ?", now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("quota prune: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
