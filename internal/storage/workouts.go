package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/liftlog/liftlog/internal/models"
)

// CreateWorkout inserts the workout, its exercises and sets in a single transaction.
func (db *DB) CreateWorkout(ctx context.Context, userID uuid.UUID, w models.Workout) (models.Workout, error) {
	w = prepare(userID, uuid.New(), w)

	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO workouts (id, user_id, workout_date, notes)
			 VALUES ($1, $2, $3, $4)
			 RETURNING created_at`,
			w.ID, w.UserID, w.Date, w.Notes).Scan(&w.CreatedAt)
		if err != nil {
			return pgErr("inserting workout", err)
		}
		return insertExercises(ctx, tx, w.Exercises)
	})
	if err != nil {
		return models.Workout{}, err
	}
	return w, nil
}

// UpdateWorkout rewrites the workout header and replaces all of its exercises.
func (db *DB) UpdateWorkout(ctx context.Context, userID, workoutID uuid.UUID, w models.Workout) (models.Workout, error) {
	w = prepare(userID, workoutID, w)

	err := pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE workouts SET workout_date = $3, notes = $4
			 WHERE id = $1 AND user_id = $2
			 RETURNING created_at`,
			w.ID, w.UserID, w.Date, w.Notes).Scan(&w.CreatedAt)
		if err != nil {
			return pgErr("updating workout", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM exercises WHERE workout_id = $1`, w.ID); err != nil {
			return pgErr("clearing exercises", err)
		}
		return insertExercises(ctx, tx, w.Exercises)
	})
	if err != nil {
		return models.Workout{}, err
	}
	return w, nil
}

func insertExercises(ctx context.Context, tx pgx.Tx, exercises []models.Exercise) error {
	for pos, e := range exercises {
		_, err := tx.Exec(ctx,
			`INSERT INTO exercises (id, workout_id, position, exercise_name, exercise_category)
			 VALUES ($1, $2, $3, $4, $5)`,
			e.ID, e.WorkoutID, pos, e.Name, categoryValue(e.Category))
		if err != nil {
			return pgErr("inserting exercise", err)
		}
		if err := insertSets(ctx, tx, e.ID, e.Sets); err != nil {
			return err
		}
	}
	return nil
}

// insertSets batch-inserts the sets of one exercise.
func insertSets(ctx context.Context, tx pgx.Tx, exerciseID uuid.UUID, sets []models.Set) error {
	if len(sets) == 0 {
		return nil
	}

	query := `INSERT INTO exercise_sets (exercise_id, set_number, reps, weight) VALUES `
	args := make([]any, 0, len(sets)*4)
	valueStrings := make([]string, 0, len(sets))

	for i, s := range sets {
		base := i * 4
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4))
		args = append(args, exerciseID, s.SetNumber, s.Reps, s.Weight)
	}

	query += strings.Join(valueStrings, ",")

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return pgErr("inserting sets", err)
	}
	return nil
}

// GetWorkout retrieves a single workout with its exercises and sets.
func (db *DB) GetWorkout(ctx context.Context, userID, workoutID uuid.UUID) (models.Workout, error) {
	ws, err := db.queryWorkouts(ctx, "w.user_id = $1 AND w.id = $2", userID, workoutID)
	if err != nil {
		return models.Workout{}, err
	}
	if len(ws) == 0 {
		return models.Workout{}, persistErr("querying workout", ErrNotFound)
	}
	return ws[0], nil
}

// ListWorkouts retrieves all workouts of a user, newest first.
func (db *DB) ListWorkouts(ctx context.Context, userID uuid.UUID) ([]models.Workout, error) {
	return db.queryWorkouts(ctx, "w.user_id = $1", userID)
}

// DeleteWorkout removes a workout; exercises and sets cascade.
func (db *DB) DeleteWorkout(ctx context.Context, userID, workoutID uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workouts WHERE id = $1 AND user_id = $2`, workoutID, userID)
	if err != nil {
		return pgErr("deleting workout", err)
	}
	if tag.RowsAffected() == 0 {
		return persistErr("deleting workout", ErrNotFound)
	}
	return nil
}

// queryWorkouts loads workouts matching filter (over alias w) and joins their
// exercises and sets client-side.
func (db *DB) queryWorkouts(ctx context.Context, filter string, args ...any) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT w.id, w.user_id, w.workout_date, w.notes, w.created_at
		 FROM workouts w
		 WHERE `+filter+`
		 ORDER BY w.workout_date DESC, w.created_at DESC`, args...)
	if err != nil {
		return nil, pgErr("querying workouts", err)
	}
	defer rows.Close()

	workouts := []models.Workout{}
	for rows.Next() {
		var w models.Workout
		var date time.Time
		if err := rows.Scan(&w.ID, &w.UserID, &date, &w.Notes, &w.CreatedAt); err != nil {
			return nil, pgErr("scanning workout", err)
		}
		w.Date = models.CalendarDate(date)
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr("iterating workouts", err)
	}
	if len(workouts) == 0 {
		return workouts, nil
	}

	exRows, err := db.Pool.Query(ctx,
		`SELECT e.id, e.workout_id, e.position, e.exercise_name, e.exercise_category
		 FROM exercises e
		 JOIN workouts w ON w.id = e.workout_id
		 WHERE `+filter+`
		 ORDER BY e.workout_id, e.position`, args...)
	if err != nil {
		return nil, pgErr("querying exercises", err)
	}
	defer exRows.Close()

	var exercises []exerciseRow
	for exRows.Next() {
		var e exerciseRow
		if err := exRows.Scan(&e.ID, &e.WorkoutID, &e.Position, &e.Name, &e.Category); err != nil {
			return nil, pgErr("scanning exercise", err)
		}
		exercises = append(exercises, e)
	}
	if err := exRows.Err(); err != nil {
		return nil, pgErr("iterating exercises", err)
	}

	setRows, err := db.Pool.Query(ctx,
		`SELECT s.exercise_id, s.set_number, s.reps, s.weight
		 FROM exercise_sets s
		 JOIN exercises e ON e.id = s.exercise_id
		 JOIN workouts w ON w.id = e.workout_id
		 WHERE `+filter+`
		 ORDER BY s.exercise_id, s.set_number`, args...)
	if err != nil {
		return nil, pgErr("querying sets", err)
	}
	defer setRows.Close()

	var sets []setRow
	for setRows.Next() {
		var s setRow
		if err := setRows.Scan(&s.ExerciseID, &s.SetNumber, &s.Reps, &s.Weight); err != nil {
			return nil, pgErr("scanning set", err)
		}
		sets = append(sets, s)
	}
	if err := setRows.Err(); err != nil {
		return nil, pgErr("iterating sets", err)
	}

	return assemble(workouts, exercises, sets), nil
}
