package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/liftlog/liftlog/internal/stats"
	"github.com/liftlog/liftlog/internal/storage"
)

func setup(t *testing.T) (*storage.SQLiteDB, uuid.UUID) {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "import.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(db.Close)
	u, err := db.CreateUser(context.Background(), "lifter@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return db, u.ID
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestImportCreatesWorkouts verifies one workout per session, warm-ups excluded,
// and a success entry in the import log.
func TestImportCreatesWorkouts(t *testing.T) {
	db, userID := setup(t)
	ctx := context.Background()

	res, err := New(db, discardLogger(), false).Import(ctx, userID, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.SessionsReceived != 2 || res.WorkoutsInserted != 2 {
		t.Errorf("result = %+v, want 2 sessions, 2 workouts", res)
	}
	// 3+2+2+2+2 working sets in legs, 3 in push
	if res.SetsInserted != 14 {
		t.Errorf("sets inserted = %d, want 14", res.SetsInserted)
	}
	if res.WarmupsSkipped != 7 {
		t.Errorf("warm-ups skipped = %d, want 7", res.WarmupsSkipped)
	}
	if len(res.WorkoutIDs) != 2 {
		t.Errorf("workout ids = %v", res.WorkoutIDs)
	}

	workouts, err := db.ListWorkouts(ctx, userID)
	if err != nil {
		t.Fatalf("ListWorkouts: %v", err)
	}
	if len(workouts) != 2 {
		t.Fatalf("workouts = %d, want 2", len(workouts))
	}
	if workouts[0].DateString() != "2026-02-19" {
		t.Errorf("newest = %s, want 2026-02-19", workouts[0].DateString())
	}
	// 102.5*6*2 + 100*6
	if got := stats.WorkoutVolume(workouts[1]); got != 1830 {
		t.Errorf("push volume = %v, want 1830", got)
	}

	logs, err := db.QueryImportLogs(ctx, userID, 10)
	if err != nil {
		t.Fatalf("QueryImportLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].Status != "success" || logs[0].Source != SourceAlpha {
		t.Errorf("logs = %+v, want one success entry", logs)
	}
	if logs[0].WorkoutsInserted != 2 || logs[0].SetsInserted != 14 {
		t.Errorf("log counts = %d/%d, want 2/14", logs[0].WorkoutsInserted, logs[0].SetsInserted)
	}
}

// TestImportDryRun verifies nothing is written in dry-run mode.
func TestImportDryRun(t *testing.T) {
	db, userID := setup(t)
	ctx := context.Background()

	res, err := New(db, discardLogger(), true).Import(ctx, userID, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.WorkoutsInserted != 2 {
		t.Errorf("workouts counted = %d, want 2", res.WorkoutsInserted)
	}

	workouts, _ := db.ListWorkouts(ctx, userID)
	logs, _ := db.QueryImportLogs(ctx, userID, 10)
	if len(workouts) != 0 || len(logs) != 0 {
		t.Errorf("dry run wrote %d workouts, %d logs", len(workouts), len(logs))
	}
}

// TestImportSkipsEmptySession verifies a session with only warm-ups is skipped
// and the import is logged as partial.
func TestImportSkipsEmptySession(t *testing.T) {
	db, userID := setup(t)
	ctx := context.Background()

	csv := `"Deload";"2026-02-20 6:00 h";"0:20 hr"
"1. Bench Press · Barbell · 6 reps";"WU1 · 40 kg · 10 reps"
#;KG;REPS;RIR
`
	res, err := New(db, discardLogger(), false).Import(ctx, userID, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.SessionsSkipped != 1 || res.WorkoutsInserted != 0 {
		t.Errorf("result = %+v, want 1 skipped", res)
	}
	logs, err := db.QueryImportLogs(ctx, userID, 10)
	if err != nil {
		t.Fatalf("QueryImportLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].Status != "partial" {
		t.Errorf("logs = %+v, want one partial entry", logs)
	}
}

// TestImportParseError verifies malformed input is logged as an error.
func TestImportParseError(t *testing.T) {
	db, userID := setup(t)
	ctx := context.Background()

	_, err := New(db, discardLogger(), false).Import(ctx, userID, strings.NewReader(`"1. Squat · Barbell · 5 reps"`))
	if !errors.Is(err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
	logs, _ := db.QueryImportLogs(ctx, userID, 10)
	if len(logs) != 1 || logs[0].Status != "error" || logs[0].ErrorMessage == nil {
		t.Errorf("logs = %+v, want one error entry", logs)
	}
}
