// Package importer turns Alpha Progression CSV exports into workouts.
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/storage"
)

// SourceAlpha identifies Alpha Progression imports in the import log.
const SourceAlpha = "alpha_progression"

// Result holds the outcome of an import.
type Result struct {
	SessionsReceived int      `json:"sessions_received"`
	WorkoutsInserted int      `json:"workouts_inserted"`
	SetsInserted     int      `json:"sets_inserted"`
	SessionsSkipped  int      `json:"sessions_skipped"`
	WarmupsSkipped   int      `json:"warmups_skipped"`
	WorkoutIDs       []string `json:"workout_ids"`
}

// Importer stores parsed sessions as workouts of one user.
type Importer struct {
	store  storage.Store
	log    *slog.Logger
	dryRun bool
}

// New creates a new Importer. With dryRun set, sessions are parsed and
// validated but nothing is written.
func New(store storage.Store, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{store: store, log: log, dryRun: dryRun}
}

// Import parses r and creates one workout per session. Each workout is
// written in its own transaction; a failure stops the import and leaves
// earlier sessions in place. The outcome is recorded in the import log.
func (imp *Importer) Import(ctx context.Context, userID uuid.UUID, r io.Reader) (*Result, error) {
	start := time.Now()
	result := &Result{WorkoutIDs: []string{}}

	err := imp.run(ctx, userID, r, result)

	if !imp.dryRun {
		imp.record(ctx, userID, result, time.Since(start), err)
	}
	return result, err
}

func (imp *Importer) run(ctx context.Context, userID uuid.UUID, r io.Reader, result *Result) error {
	sessions, err := Parse(r)
	if err != nil {
		return fmt.Errorf("parsing CSV: %w", err)
	}
	result.SessionsReceived = len(sessions)

	for _, s := range sessions {
		result.WarmupsSkipped += s.WarmupSets
		w, err := s.Input().Build(s.Date)
		if err != nil {
			if models.IsValidation(err) {
				imp.log.Warn("skipping session", "session", s.Name, "date", s.Date.Format(models.DateLayout), "error", err)
				result.SessionsSkipped++
				continue
			}
			return err
		}

		sets := 0
		for _, ex := range w.Exercises {
			sets += len(ex.Sets)
		}

		if imp.dryRun {
			result.WorkoutsInserted++
			result.SetsInserted += sets
			continue
		}

		created, err := imp.store.CreateWorkout(ctx, userID, w)
		if err != nil {
			return fmt.Errorf("storing session %s: %w", w.DateString(), err)
		}
		result.WorkoutsInserted++
		result.SetsInserted += sets
		result.WorkoutIDs = append(result.WorkoutIDs, created.ID.String())
	}
	return nil
}

func (imp *Importer) record(ctx context.Context, userID uuid.UUID, result *Result, elapsed time.Duration, importErr error) {
	durationMs := int(elapsed.Milliseconds())
	entry := storage.ImportLog{
		UserID:           userID,
		Source:           SourceAlpha,
		Status:           "success",
		SessionsReceived: result.SessionsReceived,
		WorkoutsInserted: result.WorkoutsInserted,
		SetsInserted:     result.SetsInserted,
		DurationMs:       &durationMs,
	}
	if importErr != nil {
		msg := importErr.Error()
		entry.Status = "error"
		entry.ErrorMessage = &msg
	} else if result.SessionsSkipped > 0 {
		entry.Status = "partial"
	}

	if _, err := imp.store.InsertImportLog(ctx, entry); err != nil {
		imp.log.Warn("failed to write import log", "error", err)
	}
}
