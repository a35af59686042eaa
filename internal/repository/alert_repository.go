package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abelzeko/erfiume-bot/internal/entities"
)

// AlertRepository persists threshold subscriptions keyed by (station, chat)
type AlertRepository interface {
	// UpsertAlert stores the subscription as active, clearing any previous firing.
	UpsertAlert(ctx context.Context, alert entities.Alert) error
	DeleteAlert(ctx context.Context, station string, chatID int64) (bool, error)
	AlertExists(ctx context.Context, station string, chatID int64) (bool, error)
	// ListAlertsForChat returns active alerts first, then paused ones.
	ListAlertsForChat(ctx context.Context, chatID int64) ([]entities.Alert, error)
	CountActiveAlertsForChat(ctx context.Context, chatID int64) (int, error)
	ListPendingAlertsForStation(ctx context.Context, station string) ([]entities.Alert, error)
	// ReactivateAlerts re-arms paused alerts of station fired at or before cutoff (ms).
	ReactivateAlerts(ctx context.Context, station string, cutoff int64) (int64, error)
	MarkAlertTriggered(ctx context.Context, station string, chatID int64, triggeredAt int64, value float64) error
	Close() error
}

const alertColumns = `station, chat_id, threshold, created_at, active, triggered_at, triggered_value`

// SQLiteAlertRepository implements AlertRepository using SQLite
type SQLiteAlertRepository struct {
	db *sql.DB
}

// NewSQLiteAlertRepository opens (or creates) the alerts table in dbPath
func NewSQLiteAlertRepository(dbPath string) (*SQLiteAlertRepository, error) {
	db, _, err := openSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS alerts (
		station TEXT NOT NULL,
		chat_id INTEGER NOT NULL,
		threshold REAL NOT NULL,
		created_at INTEGER NOT NULL,
		active INTEGER NOT NULL,
		triggered_at INTEGER,
		triggered_value REAL,
		PRIMARY KEY (station, chat_id)
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_chat_active ON alerts(chat_id, active);
	CREATE INDEX IF NOT EXISTS idx_alerts_station_active ON alerts(station, active);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &SQLiteAlertRepository{db: db}, nil
}

// Close closes the database connection
func (r *SQLiteAlertRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteAlertRepository) UpsertAlert(ctx context.Context, alert entities.Alert) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alerts(station, chat_id, threshold, created_at, active, triggered_at, triggered_value)
		VALUES(?, ?, ?, ?, 1, NULL, NULL)
		ON CONFLICT(station, chat_id) DO UPDATE SET
			threshold=excluded.threshold,
			created_at=excluded.created_at,
			active=1,
			triggered_at=NULL,
			triggered_value=NULL`,
		alert.StationName, alert.ChatID, alert.Threshold, alert.CreatedAt)
	if err != nil {
		return &StoreError{Op: "upsert alert", Station: alert.StationName, Err: err}
	}
	return nil
}

func (r *SQLiteAlertRepository) DeleteAlert(ctx context.Context, station string, chatID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE station = ? AND chat_id = ?`, station, chatID)
	if err != nil {
		return false, &StoreError{Op: "delete alert", Station: station, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &StoreError{Op: "delete alert", Station: station, Err: err}
	}
	return n > 0, nil
}

func (r *SQLiteAlertRepository) AlertExists(ctx context.Context, station string, chatID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM alerts WHERE station = ? AND chat_id = ?`, station, chatID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &StoreError{Op: "get alert", Station: station, Err: err}
	}
	return true, nil
}

func (r *SQLiteAlertRepository) ListAlertsForChat(ctx context.Context, chatID int64) ([]entities.Alert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+alertColumns+`
		FROM alerts
		WHERE chat_id = ?
		ORDER BY active DESC, created_at, station`, chatID)
	if err != nil {
		return nil, &StoreError{Op: "list alerts", Err: fmt.Errorf("chat %d: %w", chatID, err)}
	}
	alerts, err := scanSQLiteAlerts(rows)
	if err != nil {
		return nil, &StoreError{Op: "list alerts", Err: fmt.Errorf("chat %d: %w", chatID, err)}
	}
	return alerts, nil
}

func (r *SQLiteAlertRepository) CountActiveAlertsForChat(ctx context.Context, chatID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alerts WHERE chat_id = ? AND active = 1`, chatID).Scan(&count)
	if err != nil {
		return 0, &StoreError{Op: "count alerts", Err: fmt.Errorf("chat %d: %w", chatID, err)}
	}
	return count, nil
}

func (r *SQLiteAlertRepository) ListPendingAlertsForStation(ctx context.Context, station string) ([]entities.Alert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+alertColumns+`
		FROM alerts
		WHERE station = ? AND active = 1
		ORDER BY chat_id`, station)
	if err != nil {
		return nil, &StoreError{Op: "list pending alerts", Station: station, Err: err}
	}
	alerts, err := scanSQLiteAlerts(rows)
	if err != nil {
		return nil, &StoreError{Op: "list pending alerts", Station: station, Err: err}
	}
	return alerts, nil
}

func (r *SQLiteAlertRepository) ReactivateAlerts(ctx context.Context, station string, cutoff int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE alerts
		SET active = 1, triggered_at = NULL, triggered_value = NULL
		WHERE station = ? AND active = 0 AND triggered_at IS NOT NULL AND triggered_at <= ?`,
		station, cutoff)
	if err != nil {
		return 0, &StoreError{Op: "reactivate alerts", Station: station, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &StoreError{Op: "reactivate alerts", Station: station, Err: err}
	}
	return n, nil
}

func (r *SQLiteAlertRepository) MarkAlertTriggered(ctx context.Context, station string, chatID int64, triggeredAt int64, value float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE alerts
		SET active = 0, triggered_at = ?, triggered_value = ?
		WHERE station = ? AND chat_id = ?`,
		triggeredAt, value, station, chatID)
	if err != nil {
		return &StoreError{Op: "mark alert", Station: station, Err: err}
	}
	return nil
}

func scanSQLiteAlerts(rows *sql.Rows) ([]entities.Alert, error) {
	defer rows.Close()

	var alerts []entities.Alert
	for rows.Next() {
		var (
			a              entities.Alert
			active         int
			triggeredAt    sql.NullInt64
			triggeredValue sql.NullFloat64
		)
		if err := rows.Scan(&a.StationName, &a.ChatID, &a.Threshold, &a.CreatedAt, &active, &triggeredAt, &triggeredValue); err != nil {
			return nil, err
		}
		a.Active = active == 1
		a.TriggeredAt = triggeredAt.Int64
		a.TriggeredValue = triggeredValue.Float64
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
