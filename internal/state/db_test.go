package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ShayCichocki/skillflow/pkg/models"
)

// setupTestDB creates a new temporary database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), "")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "state.db")

	db, err := Open(path, DriverPure)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
	if db.Driver() != DriverPure {
		t.Errorf("Driver() = %q, want %q", db.Driver(), DriverPure)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("database file does not exist at %s", path)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "x.db"), "postgres"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("SchemaVersion() = %d, want %d", v, len(migrations))
	}
}

func TestMigrate_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	db, err := Open(path, "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	now := time.Now()
	if err := db.RecordRun(ctx, &Run{ID: "r1", Request: "x", StartedAt: now, FinishedAt: now}); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	db.Close()

	db, err = Open(path, "")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()
	if _, err := db.GetRun(ctx, "r1"); err != nil {
		t.Errorf("GetRun after reopen: %v", err)
	}
}

func TestRecordRun_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	in := &Run{
		ID:         "run-1",
		Request:    "build a web scraper",
		Success:    true,
		SkillName:  "flow_build_a_web_1",
		OutputPath: "/tmp/flows/flow_build_a_web_1.go",
		Confidence: 0.7,
		Candidates: []string{"scraper", "csv_writer"},
		Components: []string{"csv_writer", "scraper"},
		Warnings:   []string{"scraper: HIGH risk"},
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
	}
	if err := db.RecordRun(ctx, in); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	got, err := db.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Request != in.Request || !got.Success || got.SkillName != in.SkillName || got.OutputPath != in.OutputPath {
		t.Errorf("GetRun() = %+v, want %+v", got, in)
	}
	if len(got.Components) != 2 || got.Components[0] != "csv_writer" {
		t.Errorf("Components = %v", got.Components)
	}
	if len(got.Errors) != 0 || got.Errors == nil {
		t.Errorf("Errors = %#v, want empty non-nil", got.Errors)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if got.Duration() != 1500*time.Millisecond {
		t.Errorf("Duration() = %v", got.Duration())
	}
}

func TestRecordRun_EmptyID(t *testing.T) {
	db := setupTestDB(t)
	if err := db.RecordRun(context.Background(), &Run{}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestGetRun_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetRun(context.Background(), "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("GetRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestListRuns_NewestFirstWithLimit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		at := base.Add(time.Duration(i) * time.Hour)
		if err := db.RecordRun(ctx, &Run{ID: id, Request: id, StartedAt: at, FinishedAt: at}); err != nil {
			t.Fatalf("RecordRun(%s) failed: %v", id, err)
		}
	}

	runs, err := db.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("ListRuns(2) = %v", runIDs(runs))
	}

	all, err := db.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListRuns(0) returned %d runs, want 3", len(all))
	}
}

func TestPurgeRuns(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	db.RecordRun(ctx, &Run{ID: "old", StartedAt: base, FinishedAt: base})
	db.RecordRun(ctx, &Run{ID: "new", StartedAt: base.Add(48 * time.Hour), FinishedAt: base.Add(48 * time.Hour)})

	n, err := db.PurgeRuns(ctx, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("PurgeRuns failed: %v", err)
	}
	if n != 1 {
		t.Errorf("PurgeRuns() = %d, want 1", n)
	}
	if _, err := db.GetRun(ctx, "old"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("old run still present: %v", err)
	}
}

func TestScanCache(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, _, ok, err := db.LookupScan(ctx, "/skills/a", "h1"); err != nil || ok {
		t.Fatalf("LookupScan on empty cache = ok %v, err %v", ok, err)
	}

	if err := db.StoreScan(ctx, "/skills/a", "h1", models.RiskHigh, "shell-exec"); err != nil {
		t.Fatalf("StoreScan failed: %v", err)
	}
	risk, detail, ok, err := db.LookupScan(ctx, "/skills/a", "h1")
	if err != nil || !ok {
		t.Fatalf("LookupScan = ok %v, err %v", ok, err)
	}
	if risk != models.RiskHigh || detail != "shell-exec" {
		t.Errorf("LookupScan = %s %q", risk, detail)
	}

	// A new hash replaces the stale entry.
	if err := db.StoreScan(ctx, "/skills/a", "h2", models.RiskLow, ""); err != nil {
		t.Fatalf("StoreScan failed: %v", err)
	}
	if _, _, ok, _ := db.LookupScan(ctx, "/skills/a", "h1"); ok {
		t.Error("stale hash still cached")
	}

	n, err := db.ClearScanCache(ctx)
	if err != nil {
		t.Fatalf("ClearScanCache failed: %v", err)
	}
	if n != 1 {
		t.Errorf("ClearScanCache() = %d, want 1", n)
	}
}

func runIDs(runs []*Run) []string {
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}
