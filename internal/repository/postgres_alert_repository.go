package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abelzeko/erfiume-bot/internal/entities"
)

const createAlertsPostgresSQL = `
CREATE TABLE IF NOT EXISTS alerts (
    station TEXT NOT NULL,
    chat_id BIGINT NOT NULL,
    threshold DOUBLE PRECISION NOT NULL,
    created_at BIGINT NOT NULL,
    active BOOLEAN NOT NULL,
    triggered_at BIGINT,
    triggered_value DOUBLE PRECISION,
    PRIMARY KEY (station, chat_id)
);
CREATE INDEX IF NOT EXISTS idx_alerts_chat_active ON alerts(chat_id, active);
CREATE INDEX IF NOT EXISTS idx_alerts_station_active ON alerts(station, active)`

const upsertAlertPostgresSQL = `
INSERT INTO alerts (station, chat_id, threshold, created_at, active, triggered_at, triggered_value)
VALUES ($1,$2,$3,$4,TRUE,NULL,NULL)
ON CONFLICT (station, chat_id) DO UPDATE
SET threshold = EXCLUDED.threshold,
    created_at = EXCLUDED.created_at,
    active = TRUE,
    triggered_at = NULL,
    triggered_value = NULL`

// PostgresAlertRepository implements AlertRepository on a pgx pool
type PostgresAlertRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAlertRepository connects to databaseURL and ensures the schema exists.
func NewPostgresAlertRepository(ctx context.Context, databaseURL string) (*PostgresAlertRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createAlertsPostgresSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	slog.Info("connected to postgres alert store")
	return &PostgresAlertRepository{pool: pool}, nil
}

// Close releases the pool resources.
func (r *PostgresAlertRepository) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

func (r *PostgresAlertRepository) UpsertAlert(ctx context.Context, alert entities.Alert) error {
	if _, err := r.pool.Exec(ctx, upsertAlertPostgresSQL,
		alert.StationName, alert.ChatID, alert.Threshold, alert.CreatedAt); err != nil {
		return &StoreError{Op: "upsert alert", Station: alert.StationName, Err: err}
	}
	return nil
}

func (r *PostgresAlertRepository) DeleteAlert(ctx context.Context, station string, chatID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM alerts WHERE station = $1 AND chat_id = $2`, station, chatID)
	if err != nil {
		return false, &StoreError{Op: "delete alert", Station: station, Err: err}
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresAlertRepository) AlertExists(ctx context.Context, station string, chatID int64) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx,
		`SELECT 1 FROM alerts WHERE station = $1 AND chat_id = $2`, station, chatID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, &StoreError{Op: "get alert", Station: station, Err: err}
	}
	return true, nil
}

func (r *PostgresAlertRepository) ListAlertsForChat(ctx context.Context, chatID int64) ([]entities.Alert, error) {
	alerts, err := r.queryAlerts(ctx, `
		SELECT `+alertColumns+`
		FROM alerts
		WHERE chat_id = $1
		ORDER BY active DESC, created_at, station`, chatID)
	if err != nil {
		return nil, &StoreError{Op: "list alerts", Err: fmt.Errorf("chat %d: %w", chatID, err)}
	}
	return alerts, nil
}

func (r *PostgresAlertRepository) CountActiveAlertsForChat(ctx context.Context, chatID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM alerts WHERE chat_id = $1 AND active`, chatID).Scan(&count)
	if err != nil {
		return 0, &StoreError{Op: "count alerts", Err: fmt.Errorf("chat %d: %w", chatID, err)}
	}
	return count, nil
}

func (r *PostgresAlertRepository) ListPendingAlertsForStation(ctx context.Context, station string) ([]entities.Alert, error) {
	alerts, err := r.queryAlerts(ctx, `
		SELECT `+alertColumns+`
		FROM alerts
		WHERE station = $1 AND active
		ORDER BY chat_id`, station)
	if err != nil {
		return nil, &StoreError{Op: "list pending alerts", Station: station, Err: err}
	}
	return alerts, nil
}

func (r *PostgresAlertRepository) ReactivateAlerts(ctx context.Context, station string, cutoff int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE alerts
		SET active = TRUE, triggered_at = NULL, triggered_value = NULL
		WHERE station = $1 AND NOT active AND triggered_at IS NOT NULL AND triggered_at <= $2`,
		station, cutoff)
	if err != nil {
		return 0, &StoreError{Op: "reactivate alerts", Station: station, Err: err}
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresAlertRepository) MarkAlertTriggered(ctx context.Context, station string, chatID int64, triggeredAt int64, value float64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE alerts
		SET active = FALSE, triggered_at = $1, triggered_value = $2
		WHERE station = $3 AND chat_id = $4`,
		triggeredAt, value, station, chatID)
	if err != nil {
		return &StoreError{Op: "mark alert", Station: station, Err: err}
	}
	return nil
}

func (r *PostgresAlertRepository) queryAlerts(ctx context.Context, query string, args ...any) ([]entities.Alert, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []entities.Alert
	for rows.Next() {
		var (
			a              entities.Alert
			triggeredAt    *int64
			triggeredValue *float64
		)
		if err := rows.Scan(&a.StationName, &a.ChatID, &a.Threshold, &a.CreatedAt, &a.Active, &triggeredAt, &triggeredValue); err != nil {
			return nil, err
		}
		if triggeredAt != nil {
			a.TriggeredAt = *triggeredAt
		}
		if triggeredValue != nil {
			a.TriggeredValue = *triggeredValue
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
