// Package entry holds the editable draft behind the new/edit workout form:
// a variable number of exercises, each with a variable number of sets.
// All edits are local and synchronous; nothing is persisted until the
// caller submits the payload returned by Submission.
package entry

import (
	"errors"
	"fmt"
	"time"

	"github.com/liftlog/liftlog/internal/models"
)

var (
	// ErrIndexOutOfRange is returned when an exercise or set index does not exist.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrLastItem is returned when removing the only remaining exercise or set.
	ErrLastItem = errors.New("cannot remove the last item")
)

// Form is a workout draft. The zero value is not usable; call NewForm.
type Form struct {
	date      time.Time
	notes     string
	exercises []models.ExerciseInput
}

// NewForm starts a draft dated on date with one empty exercise holding set #1.
func NewForm(date time.Time) *Form {
	return &Form{
		date:      models.CalendarDate(date),
		exercises: []models.ExerciseInput{blankExercise()},
	}
}

// FromWorkout loads a stored workout into a draft for editing.
func FromWorkout(w models.Workout) *Form {
	in := w.Input()
	f := &Form{date: w.Date, notes: in.Notes, exercises: in.Exercises}
	if len(f.exercises) == 0 {
		f.exercises = []models.ExerciseInput{blankExercise()}
	}
	return f
}

func blankExercise() models.ExerciseInput {
	return models.ExerciseInput{Sets: []models.SetInput{{SetNumber: 1}}}
}

// SetDate changes the workout date.
func (f *Form) SetDate(d time.Time) { f.date = models.CalendarDate(d) }

// SetNotes changes the optional free-text note.
func (f *Form) SetNotes(notes string) { f.notes = notes }

// Exercises returns a deep copy of the current exercises.
func (f *Form) Exercises() []models.ExerciseInput {
	out := make([]models.ExerciseInput, len(f.exercises))
	for i, e := range f.exercises {
		out[i] = e
		out[i].Sets = append([]models.SetInput(nil), e.Sets...)
	}
	return out
}

// AddExercise appends an empty exercise with one set and returns its index.
func (f *Form) AddExercise() int {
	f.exercises = append(f.exercises, blankExercise())
	return len(f.exercises) - 1
}

// RemoveExercise drops the exercise at i. The last exercise cannot be removed.
func (f *Form) RemoveExercise(i int) error {
	if err := f.checkExercise(i); err != nil {
		return err
	}
	if len(f.exercises) == 1 {
		return ErrLastItem
	}
	f.exercises = append(f.exercises[:i], f.exercises[i+1:]...)
	return nil
}

// SetExerciseName changes the name of exercise i.
func (f *Form) SetExerciseName(i int, name string) error {
	if err := f.checkExercise(i); err != nil {
		return err
	}
	f.exercises[i].Name = name
	return nil
}

// SetExerciseCategory changes the category of exercise i. Unknown labels are
// kept as typed and reported by Submission.
func (f *Form) SetExerciseCategory(i int, category string) error {
	if err := f.checkExercise(i); err != nil {
		return err
	}
	f.exercises[i].Category = category
	return nil
}

// AddSet appends a zeroed set to exercise i, numbered after the existing ones.
func (f *Form) AddSet(i int) error {
	if err := f.checkExercise(i); err != nil {
		return err
	}
	sets := f.exercises[i].Sets
	f.exercises[i].Sets = append(sets, models.SetInput{SetNumber: len(sets) + 1})
	return nil
}

// RemoveSet drops set si of exercise ei and renumbers the rest 1..n.
func (f *Form) RemoveSet(ei, si int) error {
	if err := f.checkSet(ei, si); err != nil {
		return err
	}
	sets := f.exercises[ei].Sets
	if len(sets) == 1 {
		return ErrLastItem
	}
	sets = append(sets[:si], sets[si+1:]...)
	for n := range sets {
		sets[n].SetNumber = n + 1
	}
	f.exercises[ei].Sets = sets
	return nil
}

// UpdateSet changes the reps and weight of set si of exercise ei.
func (f *Form) UpdateSet(ei, si, reps int, weight float64) error {
	if err := f.checkSet(ei, si); err != nil {
		return err
	}
	f.exercises[ei].Sets[si].Reps = reps
	f.exercises[ei].Sets[si].Weight = weight
	return nil
}

// Input returns the draft as a submission payload without validating it.
func (f *Form) Input() models.WorkoutInput {
	return models.WorkoutInput{
		Date:      f.date.Format(models.DateLayout),
		Notes:     f.notes,
		Exercises: f.Exercises(),
	}
}

// Submission validates the draft and returns the payload to hand to the store.
// Any problem yields a *models.ValidationError listing all of them.
func (f *Form) Submission() (models.WorkoutInput, error) {
	in := f.Input()
	if _, err := in.Build(f.date); err != nil {
		return models.WorkoutInput{}, err
	}
	return in, nil
}

func (f *Form) checkExercise(i int) error {
	if i < 0 || i >= len(f.exercises) {
		return fmt.Errorf("exercise %d: %w", i, ErrIndexOutOfRange)
	}
	return nil
}

func (f *Form) checkSet(ei, si int) error {
	if err := f.checkExercise(ei); err != nil {
		return err
	}
	if si < 0 || si >= len(f.exercises[ei].Sets) {
		return fmt.Errorf("exercise %d set %d: %w", ei, si, ErrIndexOutOfRange)
	}
	return nil
}
