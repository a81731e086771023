package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and storage format of a workout date.
const DateLayout = "2006-01-02"

// Set is one performance of an exercise at a given rep count and weight.
type Set struct {
	SetNumber int     `json:"set_number"`
	Reps      int     `json:"reps"`
	Weight    float64 `json:"weight"`
}

// Exercise is a named movement within a workout, with its sets ordered by SetNumber.
type Exercise struct {
	ID        uuid.UUID `json:"id"`
	WorkoutID uuid.UUID `json:"workout_id"`
	Name      string    `json:"name"`
	Category  Category  `json:"category,omitempty"`
	Sets      []Set     `json:"sets"`
}

// Workout is a single logged training session.
type Workout struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Date      time.Time  `json:"-"`
	Notes     *string    `json:"notes"`
	Exercises []Exercise `json:"exercises"`
	CreatedAt time.Time  `json:"created_at"`
}

// DateString returns the workout date as YYYY-MM-DD.
func (w Workout) DateString() string {
	return w.Date.Format(DateLayout)
}

type workoutJSON Workout

// MarshalJSON renders Date as "workout_date": "YYYY-MM-DD".
func (w Workout) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		workoutJSON
		WorkoutDate string `json:"workout_date"`
	}{workoutJSON(w), w.DateString()})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (w *Workout) UnmarshalJSON(data []byte) error {
	var aux struct {
		workoutJSON
		WorkoutDate string `json:"workout_date"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*w = Workout(aux.workoutJSON)
	if aux.WorkoutDate != "" {
		d, err := ParseDate(aux.WorkoutDate)
		if err != nil {
			return fmt.Errorf("parsing workout_date: %w", err)
		}
		w.Date = d
	}
	return nil
}

// User is an account that owns workouts.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// SetInput is a set as submitted by the entry form.
type SetInput struct {
	SetNumber int     `json:"set_number"`
	Reps      int     `json:"reps"`
	Weight    float64 `json:"weight"`
}

// ExerciseInput is an exercise as submitted by the entry form.
type ExerciseInput struct {
	Name     string     `json:"name"`
	Category string     `json:"category"`
	Sets     []SetInput `json:"sets"`
}

// WorkoutInput is the payload that creates or replaces a workout.
// Date is YYYY-MM-DD; empty means today.
type WorkoutInput struct {
	Date      string          `json:"date"`
	Notes     string          `json:"notes"`
	Exercises []ExerciseInput `json:"exercises"`
}

// CalendarDate truncates t to midnight UTC of its own calendar day.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD workout date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
