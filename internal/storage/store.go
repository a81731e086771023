package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/liftlog/liftlog/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist or is owned by another user.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("already exists")
)

// PersistenceError wraps any failure of a store operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// Store is the persistence contract shared by the PostgreSQL and SQLite backends.
// Workout operations are scoped to the owning user.
type Store interface {
	CreateUser(ctx context.Context, email, passwordHash string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)

	// CreateWorkout persists w, its exercises and sets in one transaction and
	// returns it with server-assigned identifiers.
	CreateWorkout(ctx context.Context, userID uuid.UUID, w models.Workout) (models.Workout, error)
	// UpdateWorkout replaces the date, notes and exercises of an existing workout.
	UpdateWorkout(ctx context.Context, userID, workoutID uuid.UUID, w models.Workout) (models.Workout, error)
	GetWorkout(ctx context.Context, userID, workoutID uuid.UUID) (models.Workout, error)
	// ListWorkouts returns every workout of the user, newest date first.
	ListWorkouts(ctx context.Context, userID uuid.UUID) ([]models.Workout, error)
	DeleteWorkout(ctx context.Context, userID, workoutID uuid.UUID) error

	InsertImportLog(ctx context.Context, log ImportLog) (int64, error)
	QueryImportLogs(ctx context.Context, userID uuid.UUID, limit int) ([]ImportLog, error)

	Close()
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*SQLiteDB)(nil)
)

// exerciseRow is a row of the exercises table.
type exerciseRow struct {
	ID        uuid.UUID
	WorkoutID uuid.UUID
	Position  int
	Name      string
	Category  *string
}

// setRow is a row of the exercise_sets table.
type setRow struct {
	ExerciseID uuid.UUID
	SetNumber  int
	Reps       int
	Weight     float64
}

// assemble joins exercise and set rows onto their workouts by foreign key.
// Exercise rows must arrive in position order and set rows in set_number order.
func assemble(workouts []models.Workout, exercises []exerciseRow, sets []setRow) []models.Workout {
	setsByExercise := make(map[uuid.UUID][]models.Set)
	for _, s := range sets {
		setsByExercise[s.ExerciseID] = append(setsByExercise[s.ExerciseID], models.Set{
			SetNumber: s.SetNumber,
			Reps:      s.Reps,
			Weight:    s.Weight,
		})
	}

	exByWorkout := make(map[uuid.UUID][]models.Exercise)
	for _, e := range exercises {
		ex := models.Exercise{
			ID:        e.ID,
			WorkoutID: e.WorkoutID,
			Name:      e.Name,
			Sets:      setsByExercise[e.ID],
		}
		if e.Category != nil {
			ex.Category = models.Category(*e.Category)
		}
		if ex.Sets == nil {
			ex.Sets = []models.Set{}
		}
		exByWorkout[e.WorkoutID] = append(exByWorkout[e.WorkoutID], ex)
	}

	for i := range workouts {
		workouts[i].Exercises = exByWorkout[workouts[i].ID]
		if workouts[i].Exercises == nil {
			workouts[i].Exercises = []models.Exercise{}
		}
	}
	return workouts
}

// prepare stamps fresh identifiers onto an unsaved workout.
func prepare(userID, workoutID uuid.UUID, w models.Workout) models.Workout {
	w.ID = workoutID
	w.UserID = userID
	w.Date = models.CalendarDate(w.Date)
	exs := make([]models.Exercise, len(w.Exercises))
	for i, e := range w.Exercises {
		e.ID = uuid.New()
		e.WorkoutID = workoutID
		e.Sets = append([]models.Set(nil), e.Sets...)
		if e.Sets == nil {
			e.Sets = []models.Set{}
		}
		exs[i] = e
	}
	w.Exercises = exs
	return w
}

func categoryValue(c models.Category) *string {
	if c == "" {
		return nil
	}
	s := string(c)
	return &s
}
