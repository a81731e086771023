package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/liftlog/liftlog/internal/models"
	_ "modernc.org/sqlite"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

// timeLayout is fixed-width so TEXT timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteDB implements Store on a single SQLite file.
type SQLiteDB struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteDB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir %s: %w", dir, err)
		}
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteDB{db: db}, nil
}

// Close closes the database.
func (s *SQLiteDB) Close() {
	s.db.Close()
}

func now() time.Time {
	return time.Now().UTC()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// sqliteErr maps driver errors onto the package sentinels.
func sqliteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistErr(op, ErrNotFound)
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return persistErr(op, fmt.Errorf("%w: %v", ErrDuplicate, err))
	}
	return persistErr(op, err)
}

func (s *SQLiteDB) CreateUser(ctx context.Context, email, passwordHash string) (models.User, error) {
	u := models.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash, CreatedAt: now()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID.String(), u.Email, u.PasswordHash, formatTime(u.CreatedAt))
	if err != nil {
		return models.User{}, sqliteErr("inserting user", err)
	}
	u.CreatedAt, _ = parseTime(formatTime(u.CreatedAt))
	return u, nil
}

func (s *SQLiteDB) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getUser(ctx, "querying user by email",
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email)
}

func (s *SQLiteDB) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	return s.getUser(ctx, "querying user",
		`SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id.String())
}

func (s *SQLiteDB) getUser(ctx context.Context, op, query string, arg any) (models.User, error) {
	var u models.User
	var created string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &created)
	if err != nil {
		return models.User{}, sqliteErr(op, err)
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return models.User{}, persistErr(op, err)
	}
	return u, nil
}

func (s *SQLiteDB) CreateWorkout(ctx context.Context, userID uuid.UUID, w models.Workout) (models.Workout, error) {
	w = prepare(userID, uuid.New(), w)
	w.CreatedAt, _ = parseTime(formatTime(now()))

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO workouts (id, user_id, workout_date, notes, created_at) VALUES (?, ?, ?, ?, ?)`,
			w.ID.String(), w.UserID.String(), w.DateString(), w.Notes, formatTime(w.CreatedAt))
		if err != nil {
			return sqliteErr("inserting workout", err)
		}
		return insertExercisesSQLite(ctx, tx, w.Exercises)
	})
	if err != nil {
		return models.Workout{}, err
	}
	return w, nil
}

func (s *SQLiteDB) UpdateWorkout(ctx context.Context, userID, workoutID uuid.UUID, w models.Workout) (models.Workout, error) {
	w = prepare(userID, workoutID, w)

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var created string
		err := tx.QueryRowContext(ctx,
			`UPDATE workouts SET workout_date = ?, notes = ?
			 WHERE id = ? AND user_id = ?
			 RETURNING created_at`,
			w.DateString(), w.Notes, w.ID.String(), w.UserID.String()).Scan(&created)
		if err != nil {
			return sqliteErr("updating workout", err)
		}
		if w.CreatedAt, err = parseTime(created); err != nil {
			return persistErr("updating workout", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM exercises WHERE workout_id = ?`, w.ID.String()); err != nil {
			return sqliteErr("clearing exercises", err)
		}
		return insertExercisesSQLite(ctx, tx, w.Exercises)
	})
	if err != nil {
		return models.Workout{}, err
	}
	return w, nil
}

func insertExercisesSQLite(ctx context.Context, tx *sql.Tx, exercises []models.Exercise) error {
	for pos, e := range exercises {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO exercises (id, workout_id, position, exercise_name, exercise_category)
			 VALUES (?, ?, ?, ?, ?)`,
			e.ID.String(), e.WorkoutID.String(), pos, e.Name, categoryValue(e.Category))
		if err != nil {
			return sqliteErr("inserting exercise", err)
		}
		if len(e.Sets) == 0 {
			continue
		}

		args := make([]any, 0, len(e.Sets)*4)
		valueStrings := make([]string, 0, len(e.Sets))
		for _, set := range e.Sets {
			valueStrings = append(valueStrings, "(?,?,?,?)")
			args = append(args, e.ID.String(), set.SetNumber, set.Reps, set.Weight)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO exercise_sets (exercise_id, set_number, reps, weight) VALUES `+
				strings.Join(valueStrings, ","), args...)
		if err != nil {
			return sqliteErr("inserting sets", err)
		}
	}
	return nil
}

func (s *SQLiteDB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("beginning transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return persistErr("committing transaction", tx.Commit())
}

func (s *SQLiteDB) GetWorkout(ctx context.Context, userID, workoutID uuid.UUID) (models.Workout, error) {
	ws, err := s.queryWorkouts(ctx, "w.user_id = ? AND w.id = ?", userID.String(), workoutID.String())
	if err != nil {
		return models.Workout{}, err
	}
	if len(ws) == 0 {
		return models.Workout{}, persistErr("querying workout", ErrNotFound)
	}
	return ws[0], nil
}

func (s *SQLiteDB) ListWorkouts(ctx context.Context, userID uuid.UUID) ([]models.Workout, error) {
	return s.queryWorkouts(ctx, "w.user_id = ?", userID.String())
}

func (s *SQLiteDB) DeleteWorkout(ctx context.Context, userID, workoutID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM workouts WHERE id = ? AND user_id = ?`, workoutID.String(), userID.String())
	if err != nil {
		return sqliteErr("deleting workout", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistErr("deleting workout", err)
	}
	if n == 0 {
		return persistErr("deleting workout", ErrNotFound)
	}
	return nil
}

func (s *SQLiteDB) queryWorkouts(ctx context.Context, filter string, args ...any) ([]models.Workout, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT w.id, w.user_id, w.workout_date, w.notes, w.created_at
		 FROM workouts w
		 WHERE `+filter+`
		 ORDER BY w.workout_date DESC, w.created_at DESC`, args...)
	if err != nil {
		return nil, sqliteErr("querying workouts", err)
	}
	defer rows.Close()

	workouts := []models.Workout{}
	for rows.Next() {
		var w models.Workout
		var date, created string
		if err := rows.Scan(&w.ID, &w.UserID, &date, &w.Notes, &created); err != nil {
			return nil, sqliteErr("scanning workout", err)
		}
		if w.Date, err = models.ParseDate(date); err != nil {
			return nil, persistErr("parsing workout_date", err)
		}
		if w.CreatedAt, err = parseTime(created); err != nil {
			return nil, persistErr("parsing created_at", err)
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteErr("iterating workouts", err)
	}
	if len(workouts) == 0 {
		return workouts, nil
	}

	exRows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.workout_id, e.position, e.exercise_name, e.exercise_category
		 FROM exercises e
		 JOIN workouts w ON w.id = e.workout_id
		 WHERE `+filter+`
		 ORDER BY e.workout_id, e.position`, args...)
	if err != nil {
		return nil, sqliteErr("querying exercises", err)
	}
	defer exRows.Close()

	var exercises []exerciseRow
	for exRows.Next() {
		var e exerciseRow
		if err := exRows.Scan(&e.ID, &e.WorkoutID, &e.Position, &e.Name, &e.Category); err != nil {
			return nil, sqliteErr("scanning exercise", err)
		}
		exercises = append(exercises, e)
	}
	if err := exRows.Err(); err != nil {
		return nil, sqliteErr("iterating exercises", err)
	}

	setRows, err := s.db.QueryContext(ctx,
		`SELECT s.exercise_id, s.set_number, s.reps, s.weight
		 FROM exercise_sets s
		 JOIN exercises e ON e.id = s.exercise_id
		 JOIN workouts w ON w.id = e.workout_id
		 WHERE `+filter+`
		 ORDER BY s.exercise_id, s.set_number`, args...)
	if err != nil {
		return nil, sqliteErr("querying sets", err)
	}
	defer setRows.Close()

	var sets []setRow
	for setRows.Next() {
		var r setRow
		if err := setRows.Scan(&r.ExerciseID, &r.SetNumber, &r.Reps, &r.Weight); err != nil {
			return nil, sqliteErr("scanning set", err)
		}
		sets = append(sets, r)
	}
	if err := setRows.Err(); err != nil {
		return nil, sqliteErr("iterating sets", err)
	}

	return assemble(workouts, exercises, sets), nil
}

func (s *SQLiteDB) InsertImportLog(ctx context.Context, log ImportLog) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO import_logs (user_id, created_at, source, status, sessions_received,
		 workouts_inserted, sets_inserted, duration_ms, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.UserID.String(), formatTime(now()), log.Source, log.Status, log.SessionsReceived,
		log.WorkoutsInserted, log.SetsInserted, log.DurationMs, log.ErrorMessage)
	if err != nil {
		return 0, sqliteErr("inserting import log", err)
	}
	id, err := res.LastInsertId()
	return id, persistErr("inserting import log", err)
}

func (s *SQLiteDB) QueryImportLogs(ctx context.Context, userID uuid.UUID, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, created_at, source, status, sessions_received,
		 workouts_inserted, sets_inserted, duration_ms, error_message
		 FROM import_logs
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		userID.String(), limit)
	if err != nil {
		return nil, sqliteErr("querying import logs", err)
	}
	defer rows.Close()

	result := []ImportLog{}
	for rows.Next() {
		var l ImportLog
		var created string
		if err := rows.Scan(&l.ID, &l.UserID, &created, &l.Source, &l.Status,
			&l.SessionsReceived, &l.WorkoutsInserted, &l.SetsInserted,
			&l.DurationMs, &l.ErrorMessage); err != nil {
			return nil, sqliteErr("scanning import log", err)
		}
		if l.CreatedAt, err = parseTime(created); err != nil {
			return nil, persistErr("parsing created_at", err)
		}
		result = append(result, l)
	}
	return result, sqliteErr("iterating import logs", rows.Err())
}
