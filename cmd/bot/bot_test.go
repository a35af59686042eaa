package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/abelzeko/erfiume-bot/internal/config"
	"github.com/abelzeko/erfiume-bot/internal/repository"
)

func TestRunRequiresToken(t *testing.T) {
	cfg := config.Config{SQLitePath: filepath.Join(t.TempDir(), "erfiume.db")}
	if err := run(context.Background(), cfg); err == nil {
		t.Error("Expected an error without TELEGRAM_BOT_TOKEN")
	}
}

func TestSchedulePurgeOnlyForSQLite(t *testing.T) {
	ctx := context.Background()

	sqliteRepo, err := repository.NewSQLiteThrottleRepository(filepath.Join(t.TempDir(), "erfiume.db"))
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer sqliteRepo.Close()

	c, err := schedulePurge(ctx, sqliteRepo)
	if err != nil {
		t.Fatalf("schedulePurge failed: %v", err)
	}
	if c == nil || len(c.Entries()) != 1 {
		t.Error("Expected one purge job for the SQLite store")
	}

	mr := miniredis.RunT(t)
	redisRepo := repository.NewRedisThrottleRepository(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer redisRepo.Close()

	c, err = schedulePurge(ctx, redisRepo)
	if err != nil {
		t.Fatalf("schedulePurge failed: %v", err)
	}
	if c != nil {
		t.Error("Expected no purge job for the Redis store")
	}
}
