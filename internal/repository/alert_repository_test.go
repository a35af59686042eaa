package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/abelzeko/erfiume-bot/internal/entities"
)

func newTestAlertRepos(t *testing.T) map[string]AlertRepository {
	t.Helper()

	sqliteRepo, err := NewSQLiteAlertRepository(filepath.Join(t.TempDir(), "alerts.db"))
	if err != nil {
		t.Fatalf("Failed to create SQLite alert repository: %v", err)
	}
	t.Cleanup(func() { sqliteRepo.Close() })

	repos := map[string]AlertRepository{"sqlite": sqliteRepo}

	if databaseURL := os.Getenv("TEST_DATABASE_URL"); databaseURL != "" {
		pgRepo, err := NewPostgresAlertRepository(context.Background(), databaseURL)
		if err != nil {
			t.Fatalf("Failed to connect: %v", err)
		}
		t.Cleanup(func() { pgRepo.Close() })
		repos["postgres"] = pgRepo
	}
	return repos
}

// testChatID keeps rows of concurrent test runs apart on a shared database
func testChatID(offset int64) int64 {
	return int64(os.Getpid())*10 + offset
}

func cleanupAlerts(t *testing.T, repo AlertRepository, chatIDs ...int64) {
	t.Cleanup(func() {
		ctx := context.Background()
		for _, chatID := range chatIDs {
			alerts, _ := repo.ListAlertsForChat(ctx, chatID)
			for _, a := range alerts {
				repo.DeleteAlert(ctx, a.StationName, chatID)
			}
		}
	})
}

// TestAlertRepositorySubscriptions checks upsert, listing, counting and deletion
func TestAlertRepositorySubscriptions(t *testing.T) {
	for name, repo := range newTestAlertRepos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			chat := testChatID(1)
			cleanupAlerts(t, repo, chat)

			if exists, err := repo.AlertExists(ctx, "Cesena", chat); err != nil || exists {
				t.Fatalf("Expected no alert, exists=%v err=%v", exists, err)
			}

			for i, station := range []string{"Cesena", "Borello"} {
				err := repo.UpsertAlert(ctx, entities.Alert{StationName: station, ChatID: chat, Threshold: 2.5, CreatedAt: int64(100 + i)})
				if err != nil {
					t.Fatalf("Upsert %s failed: %v", station, err)
				}
			}

			// Same station again replaces the threshold instead of adding a row
			if err := repo.UpsertAlert(ctx, entities.Alert{StationName: "Cesena", ChatID: chat, Threshold: 3, CreatedAt: 100}); err != nil {
				t.Fatalf("Upsert failed: %v", err)
			}

			if exists, err := repo.AlertExists(ctx, "Cesena", chat); err != nil || !exists {
				t.Fatalf("Expected alert, exists=%v err=%v", exists, err)
			}
			if n, err := repo.CountActiveAlertsForChat(ctx, chat); err != nil || n != 2 {
				t.Fatalf("Expected 2 active alerts, got %d err=%v", n, err)
			}

			alerts, err := repo.ListAlertsForChat(ctx, chat)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(alerts) != 2 || alerts[0].StationName != "Cesena" || alerts[0].Threshold != 3 || !alerts[0].Active {
				t.Errorf("Unexpected alerts %+v", alerts)
			}

			removed, err := repo.DeleteAlert(ctx, "Cesena", chat)
			if err != nil || !removed {
				t.Fatalf("Expected removal, removed=%v err=%v", removed, err)
			}
			if removed, err := repo.DeleteAlert(ctx, "Cesena", chat); err != nil || removed {
				t.Errorf("Expected nothing to remove, removed=%v err=%v", removed, err)
			}
		})
	}
}

// TestAlertRepositoryTriggerCycle checks firing pauses an alert and the cutoff re-arms it
func TestAlertRepositoryTriggerCycle(t *testing.T) {
	for name, repo := range newTestAlertRepos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			station := fmt.Sprintf("test-station-%d", os.Getpid())
			first, second := testChatID(2), testChatID(3)
			cleanupAlerts(t, repo, first, second)

			for _, chat := range []int64{first, second} {
				if err := repo.UpsertAlert(ctx, entities.Alert{StationName: station, ChatID: chat, Threshold: 1, CreatedAt: 1}); err != nil {
					t.Fatalf("Upsert failed: %v", err)
				}
			}

			if err := repo.MarkAlertTriggered(ctx, station, first, 5000, 1.7); err != nil {
				t.Fatalf("Mark failed: %v", err)
			}

			pending, err := repo.ListPendingAlertsForStation(ctx, station)
			if err != nil {
				t.Fatalf("List pending failed: %v", err)
			}
			if len(pending) != 1 || pending[0].ChatID != second {
				t.Errorf("Expected only the second chat pending, got %+v", pending)
			}
			if n, err := repo.CountActiveAlertsForChat(ctx, first); err != nil || n != 0 {
				t.Errorf("Expected no active alerts for a fired subscription, got %d err=%v", n, err)
			}

			alerts, err := repo.ListAlertsForChat(ctx, first)
			if err != nil || len(alerts) != 1 {
				t.Fatalf("Expected one alert, got %+v err=%v", alerts, err)
			}
			if alerts[0].Active || alerts[0].TriggeredAt != 5000 || alerts[0].TriggeredValue != 1.7 {
				t.Errorf("Unexpected fired alert %+v", alerts[0])
			}

			if n, err := repo.ReactivateAlerts(ctx, station, 4999); err != nil || n != 0 {
				t.Errorf("Expected nothing re-armed before the cutoff, got %d err=%v", n, err)
			}
			if n, err := repo.ReactivateAlerts(ctx, station, 5000); err != nil || n != 1 {
				t.Errorf("Expected one alert re-armed, got %d err=%v", n, err)
			}

			alerts, _ = repo.ListAlertsForChat(ctx, first)
			if len(alerts) != 1 || !alerts[0].Active || alerts[0].TriggeredAt != 0 {
				t.Errorf("Expected a re-armed alert, got %+v", alerts)
			}
		})
	}
}

func TestOpenAlertRepositoryDefaultsToSQLite(t *testing.T) {
	repo, err := OpenAlertRepository(context.Background(), "", filepath.Join(t.TempDir(), "erfiume.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer repo.Close()

	if _, ok := repo.(*SQLiteAlertRepository); !ok {
		t.Errorf("Expected a SQLite repository, got %T", repo)
	}
}
