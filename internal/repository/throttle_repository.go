package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abelzeko/erfiume-bot/internal/entities"
)

// ThrottleRepository persists per-identity request counters
type ThrottleRepository interface {
	GetThrottle(ctx context.Context, id int64) (entities.ThrottleRecord, bool, error)
	// IncrementThrottle atomically adds one to the counter of id (creating it
	// at 1), sets its expiry and returns the new count.
	IncrementThrottle(ctx context.Context, id int64, expiresAt time.Time) (int, error)
	DeleteThrottle(ctx context.Context, id int64) error
	Close() error
}

// ThrottlePurger is implemented by stores that do not expire records on their own
type ThrottlePurger interface {
	PurgeExpiredThrottles(ctx context.Context, now time.Time) (int64, error)
}

// SQLiteThrottleRepository implements ThrottleRepository using SQLite
type SQLiteThrottleRepository struct {
	db *sql.DB
}

// NewSQLiteThrottleRepository opens (or creates) the throttle table in dbPath
func NewSQLiteThrottleRepository(dbPath string) (*SQLiteThrottleRepository, error) {
	db, _, err := openSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS throttles (
		id INTEGER PRIMARY KEY,
		count INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_throttles_expires_at ON throttles(expires_at);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &SQLiteThrottleRepository{db: db}, nil
}

// Close closes the database connection
func (r *SQLiteThrottleRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetThrottle returns the stored record, lapsed or not
func (r *SQLiteThrottleRepository) GetThrottle(ctx context.Context, id int64) (entities.ThrottleRecord, bool, error) {
	var count int
	var expiresAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT count, expires_at FROM throttles WHERE id = ?`, id).Scan(&count, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.ThrottleRecord{}, false, nil
	}
	if err != nil {
		return entities.ThrottleRecord{}, false, &StoreError{Op: "get throttle", Err: fmt.Errorf("identity %d: %w", id, err)}
	}
	return entities.ThrottleRecord{
		ID:        id,
		Count:     count,
		ExpiresAt: time.UnixMilli(expiresAt),
	}, true, nil
}

// IncrementThrottle bumps the counter in a single upsert
func (r *SQLiteThrottleRepository) IncrementThrottle(ctx context.Context, id int64, expiresAt time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO throttles(id, count, expires_at)
		VALUES(?, 1, ?)
		ON CONFLICT(id) DO UPDATE SET
			count=throttles.count + 1,
			expires_at=excluded.expires_at
		RETURNING count`, id, expiresAt.UnixMilli()).Scan(&count)
	if err != nil {
		return 0, &StoreError{Op: "increment throttle", Err: fmt.Errorf("identity %d: %w", id, err)}
	}
	return count, nil
}

// DeleteThrottle removes the record of id, if any
func (r *SQLiteThrottleRepository) DeleteThrottle(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM throttles WHERE id = ?`, id); err != nil {
		return &StoreError{Op: "delete throttle", Err: fmt.Errorf("identity %d: %w", id, err)}
	}
	return nil
}

// PurgeExpiredThrottles deletes every record whose expiry is not after now
func (r *SQLiteThrottleRepository) PurgeExpiredThrottles(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM throttles WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, &StoreError{Op: "purge throttles", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &StoreError{Op: "purge throttles", Err: err}
	}
	if n > 0 {
		slog.Info("purged expired throttle records", "count", n)
	}
	return n, nil
}
