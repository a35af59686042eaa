package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestOpenStationRepositoryDefaultsToSQLite(t *testing.T) {
	repo, err := OpenStationRepository(context.Background(), "", filepath.Join(t.TempDir(), "erfiume.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer repo.Close()

	if _, ok := repo.(*SQLiteStationRepository); !ok {
		t.Errorf("Expected a SQLite repository, got %T", repo)
	}
}

func TestOpenThrottleRepositorySelectsBackend(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "erfiume.db")

	sqliteRepo, err := OpenThrottleRepository(ctx, "", "", dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer sqliteRepo.Close()
	if _, ok := sqliteRepo.(ThrottlePurger); !ok {
		t.Errorf("Expected the SQLite backend to support purging, got %T", sqliteRepo)
	}

	mr := miniredis.RunT(t)
	redisRepo, err := OpenThrottleRepository(ctx, mr.Addr(), "", dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer redisRepo.Close()
	if _, ok := redisRepo.(*RedisThrottleRepository); !ok {
		t.Errorf("Expected a Redis repository, got %T", redisRepo)
	}
}

func TestOpenThrottleRepositoryUnreachableRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := OpenThrottleRepository(context.Background(), addr, "", ""); err == nil {
		t.Error("Expected an error for an unreachable Redis")
	}
}
