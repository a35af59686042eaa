package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// OpenStationRepository picks PostgreSQL when databaseURL is set and SQLite otherwise.
func OpenStationRepository(ctx context.Context, databaseURL, sqlitePath string) (StationRepository, error) {
	if databaseURL != "" {
		return NewPostgresStationRepository(ctx, databaseURL)
	}
	return NewSQLiteStationRepository(sqlitePath)
}

// OpenThrottleRepository picks Redis when redisAddr is set and SQLite otherwise.
func OpenThrottleRepository(ctx context.Context, redisAddr, redisPassword, sqlitePath string) (ThrottleRepository, error) {
	if redisAddr == "" {
		return NewSQLiteThrottleRepository(sqlitePath)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis not available at %s: %w", redisAddr, err)
	}

	slog.Info("redis connected", "addr", redisAddr)
	return NewRedisThrottleRepository(client), nil
}

// OpenAlertRepository picks PostgreSQL when databaseURL is set and SQLite otherwise.
func OpenAlertRepository(ctx context.Context, databaseURL, sqlitePath string) (AlertRepository, error) {
	if databaseURL != "" {
		return NewPostgresAlertRepository(ctx, databaseURL)
	}
	return NewSQLiteAlertRepository(sqlitePath)
}
