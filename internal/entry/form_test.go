package entry

import (
	"errors"
	"testing"
	"time"

	"github.com/liftlog/liftlog/internal/models"
)

var date = time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)

// TestNewForm verifies a fresh draft holds one exercise with set #1.
func TestNewForm(t *testing.T) {
	f := NewForm(date)
	exs := f.Exercises()
	if len(exs) != 1 {
		t.Fatalf("exercises = %d, want 1", len(exs))
	}
	if len(exs[0].Sets) != 1 || exs[0].Sets[0].SetNumber != 1 {
		t.Errorf("sets = %+v, want [{1 0 0}]", exs[0].Sets)
	}
	if got := f.Input().Date; got != "2026-03-11" {
		t.Errorf("date = %q, want 2026-03-11", got)
	}
}

// TestRemoveSetRenumbers verifies removing the second of three sets leaves sets 1 and 2.
func TestRemoveSetRenumbers(t *testing.T) {
	f := NewForm(date)
	for i := 0; i < 2; i++ {
		if err := f.AddSet(0); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.UpdateSet(0, 0, 10, 100); err != nil {
		t.Fatal(err)
	}
	if err := f.UpdateSet(0, 2, 6, 120); err != nil {
		t.Fatal(err)
	}

	if err := f.RemoveSet(0, 1); err != nil {
		t.Fatalf("RemoveSet: %v", err)
	}

	sets := f.Exercises()[0].Sets
	if len(sets) != 2 {
		t.Fatalf("sets = %d, want 2", len(sets))
	}
	for i, s := range sets {
		if s.SetNumber != i+1 {
			t.Errorf("set %d number = %d, want %d", i, s.SetNumber, i+1)
		}
	}
	if sets[1].Reps != 6 || sets[1].Weight != 120 {
		t.Errorf("second set = %+v, want former third set {6 120}", sets[1])
	}
}

// TestAddSetNumbering verifies new sets are numbered after the existing ones.
func TestAddSetNumbering(t *testing.T) {
	f := NewForm(date)
	_ = f.AddSet(0)
	_ = f.AddSet(0)
	_ = f.RemoveSet(0, 0)
	_ = f.AddSet(0)
	sets := f.Exercises()[0].Sets
	for i, s := range sets {
		if s.SetNumber != i+1 {
			t.Errorf("set %d number = %d, want %d", i, s.SetNumber, i+1)
		}
	}
}

// TestLastItemGuard verifies the only exercise and the only set cannot be removed.
func TestLastItemGuard(t *testing.T) {
	f := NewForm(date)
	if err := f.RemoveSet(0, 0); !errors.Is(err, ErrLastItem) {
		t.Errorf("RemoveSet last = %v, want ErrLastItem", err)
	}
	if err := f.RemoveExercise(0); !errors.Is(err, ErrLastItem) {
		t.Errorf("RemoveExercise last = %v, want ErrLastItem", err)
	}

	i := f.AddExercise()
	if err := f.RemoveExercise(i); err != nil {
		t.Errorf("RemoveExercise(%d) = %v, want nil", i, err)
	}
}

// TestIndexOutOfRange verifies bad indices are rejected without mutating the draft.
func TestIndexOutOfRange(t *testing.T) {
	f := NewForm(date)
	checks := []error{
		f.SetExerciseName(3, "x"),
		f.SetExerciseCategory(-1, "Chest"),
		f.AddSet(1),
		f.RemoveSet(0, 4),
		f.UpdateSet(2, 0, 1, 1),
		f.RemoveExercise(9),
	}
	for i, err := range checks {
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("check %d = %v, want ErrIndexOutOfRange", i, err)
		}
	}
	if n := len(f.Exercises()); n != 1 {
		t.Errorf("exercises = %d, want 1", n)
	}
}

// TestSubmissionValidation verifies required fields block submission.
func TestSubmissionValidation(t *testing.T) {
	f := NewForm(date)
	if _, err := f.Submission(); !models.IsValidation(err) {
		t.Fatalf("Submission of blank draft = %v, want ValidationError", err)
	}

	_ = f.SetExerciseName(0, "Bench Press")
	_ = f.SetExerciseCategory(0, "Chest")
	_ = f.UpdateSet(0, 0, 10, 100)
	f.SetNotes("easy day")

	in, err := f.Submission()
	if err != nil {
		t.Fatalf("Submission: %v", err)
	}
	if in.Notes != "easy day" || in.Exercises[0].Name != "Bench Press" {
		t.Errorf("payload = %+v", in)
	}
}

// TestExercisesIsCopy verifies callers cannot mutate the draft through Exercises.
func TestExercisesIsCopy(t *testing.T) {
	f := NewForm(date)
	exs := f.Exercises()
	exs[0].Name = "mutated"
	exs[0].Sets[0].Reps = 99
	got := f.Exercises()[0]
	if got.Name != "" || got.Sets[0].Reps != 0 {
		t.Errorf("draft mutated through copy: %+v", got)
	}
}

// TestFromWorkout verifies an existing workout loads into an editable draft.
func TestFromWorkout(t *testing.T) {
	notes := "pr day"
	w := models.Workout{
		Date:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Notes: &notes,
		Exercises: []models.Exercise{{
			Name:     "Deadlift",
			Category: models.CategoryBack,
			Sets:     []models.Set{{SetNumber: 1, Reps: 3, Weight: 180}, {SetNumber: 2, Reps: 3, Weight: 185}},
		}},
	}
	f := FromWorkout(w)
	if err := f.RemoveSet(0, 0); err != nil {
		t.Fatal(err)
	}
	in, err := f.Submission()
	if err != nil {
		t.Fatalf("Submission: %v", err)
	}
	if in.Date != "2026-03-01" || in.Notes != "pr day" {
		t.Errorf("header = %s/%q", in.Date, in.Notes)
	}
	sets := in.Exercises[0].Sets
	if len(sets) != 1 || sets[0].SetNumber != 1 || sets[0].Weight != 185 {
		t.Errorf("sets = %+v, want [{1 3 185}]", sets)
	}
}
