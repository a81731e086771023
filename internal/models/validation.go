package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// ValidationError lists every client-side problem that blocks a submission.
type ValidationError struct {
	Problems []string `json:"details"`
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// NewValidationError flattens a multierr-combined error into a ValidationError.
// Returns nil when err is nil.
func NewValidationError(err error) error {
	if err == nil {
		return nil
	}
	errs := multierr.Errors(err)
	ve := &ValidationError{Problems: make([]string, 0, len(errs))}
	for _, e := range errs {
		ve.Problems = append(ve.Problems, e.Error())
	}
	return ve
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Build validates the input and converts it into an unsaved Workout.
// An empty Date falls back to the calendar day of today. Sets without a
// number are numbered by position.
func (in WorkoutInput) Build(today time.Time) (Workout, error) {
	var errs error
	w := Workout{Date: CalendarDate(today)}

	if d := strings.TrimSpace(in.Date); d != "" {
		parsed, err := ParseDate(d)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("date %q is not YYYY-MM-DD", d))
		} else {
			w.Date = parsed
		}
	}

	if notes := strings.TrimSpace(in.Notes); notes != "" {
		w.Notes = &notes
	}

	if len(in.Exercises) == 0 {
		errs = multierr.Append(errs, errors.New("at least one exercise is required"))
	}

	for i, ex := range in.Exercises {
		e, err := ex.build(i + 1)
		errs = multierr.Append(errs, err)
		w.Exercises = append(w.Exercises, e)
	}

	if err := NewValidationError(errs); err != nil {
		return Workout{}, err
	}
	return w, nil
}

func (in ExerciseInput) build(pos int) (Exercise, error) {
	var errs error
	e := Exercise{Name: strings.TrimSpace(in.Name)}

	if e.Name == "" {
		errs = multierr.Append(errs, fmt.Errorf("exercise %d: name is required", pos))
	}

	cat, err := ParseCategory(in.Category)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("exercise %d: %w", pos, err))
	}
	e.Category = cat

	if len(in.Sets) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("exercise %d: at least one set is required", pos))
	}

	for i, s := range in.Sets {
		num := s.SetNumber
		if num == 0 {
			num = i + 1
		}
		if num != i+1 {
			errs = multierr.Append(errs, fmt.Errorf("exercise %d: set %d is numbered %d, want %d", pos, i+1, num, i+1))
		}
		if s.Reps < 0 {
			errs = multierr.Append(errs, fmt.Errorf("exercise %d set %d: reps must not be negative", pos, i+1))
		}
		if s.Weight < 0 {
			errs = multierr.Append(errs, fmt.Errorf("exercise %d set %d: weight must not be negative", pos, i+1))
		}
		e.Sets = append(e.Sets, Set{SetNumber: num, Reps: s.Reps, Weight: s.Weight})
	}
	return e, errs
}

// Input converts a stored workout back into an editable payload.
func (w Workout) Input() WorkoutInput {
	in := WorkoutInput{Date: w.DateString()}
	if w.Notes != nil {
		in.Notes = *w.Notes
	}
	for _, e := range w.Exercises {
		ei := ExerciseInput{Name: e.Name, Category: string(e.Category)}
		for _, s := range e.Sets {
			ei.Sets = append(ei.Sets, SetInput(s))
		}
		in.Exercises = append(in.Exercises, ei)
	}
	return in
}
