package runs

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmrzaf/mockgen/internal/domain"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo := NewSQLiteRepository(filepath.Join(t.TempDir(), "runs.db"))
	if err := repo.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestInitCreatesParentDirectory(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "nested", "deeper", "runs.db")
	repo := NewSQLiteRepository(dbPath)

	if err := repo.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if repo.DB() == nil {
		t.Fatal("expected db handle to be initialized")
	}
	t.Cleanup(func() {
		_ = repo.DB().Close()
	})
}

func TestCreateUpdateGetList(t *testing.T) {
	repo := newRepo(t)
	started := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	older := &domain.Run{PlanID: "p", PlanName: "p", OutputDir: "out", Seed: 1, ConfigHash: "h", Status: domain.RunStatusSuccess, StartedAt: started.Add(-time.Hour)}
	run := &domain.Run{PlanID: "p", PlanName: "p", OutputDir: "out", Seed: 7, ConfigHash: "h", Status: domain.RunStatusRunning, StartedAt: started, TablesTotal: 3}
	for _, r := range []*domain.Run{older, run} {
		if err := repo.Create(r); err != nil {
			t.Fatal(err)
		}
	}
	if run.ID == "" {
		t.Fatal("expected generated id")
	}

	if err := repo.UpdateProgress(run.ID, 1, 3, 50, "customer.kna1"); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Get(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TablesDone != 1 || got.RowsGenerated != 50 || got.CurrentTable != "customer.kna1" || got.Stats != nil {
		t.Fatalf("unexpected progress %+v", got)
	}

	stats, _ := json.Marshal(domain.RunStats{TablesGenerated: 3, TotalRows: 150})
	done := started.Add(time.Minute)
	run.Status = domain.RunStatusPartial
	run.CompletedAt = &done
	run.Stats = stats
	run.Error = "1 table failed"
	run.TablesDone = 3
	if err := repo.Update(run); err != nil {
		t.Fatal(err)
	}
	got, err = repo.Get(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.RunStatusPartial || got.CompletedAt == nil || !got.CompletedAt.Equal(done) || got.Error == "" {
		t.Fatalf("unexpected run %+v", got)
	}
	var rs domain.RunStats
	if err := json.Unmarshal(got.Stats, &rs); err != nil || rs.TotalRows != 150 {
		t.Fatalf("stats not persisted: %s", got.Stats)
	}

	list, err := repo.List(0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != run.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}
	list, err = repo.List(10, string(domain.RunStatusSuccess))
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != older.ID {
		t.Fatalf("unexpected filtered list %+v", list)
	}
}

func TestGetAndUpdateMissing(t *testing.T) {
	repo := newRepo(t)
	if _, err := repo.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.UpdateProgress("nope", 0, 0, 0, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
