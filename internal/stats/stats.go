// Package stats derives aggregate figures from an in-memory workout collection.
// Every function is pure: no I/O, no errors, safe for concurrent use.
// Negative reps or weights are not sanitized; they contribute arithmetically.
package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/liftlog/liftlog/internal/models"
)

// Weeks is the number of week buckets returned by WeeklyFrequency.
const Weeks = 8

// WeekStartDay is the first day of a week bucket.
const WeekStartDay = time.Sunday

// WeekBucket counts workouts whose week starts on WeekStart.
type WeekBucket struct {
	WeekStart string `json:"week_start"`
	Count     int    `json:"count"`
}

// CategoryVolume is the total volume lifted under one category label.
type CategoryVolume struct {
	Category string  `json:"category"`
	Volume   float64 `json:"volume"`
}

// Summary bundles the figures shown on the stats view.
type Summary struct {
	TotalWorkouts    int              `json:"total_workouts"`
	TotalSets        int              `json:"total_sets"`
	TotalVolume      float64          `json:"total_volume"`
	WeeklyFrequency  []WeekBucket     `json:"weekly_frequency"`
	VolumeByCategory []CategoryVolume `json:"volume_by_category"`
}

// ExerciseHistoryEntry is one workout's sets for a given exercise.
type ExerciseHistoryEntry struct {
	WorkoutID   string       `json:"workout_id"`
	WorkoutDate string       `json:"workout_date"`
	Sets        []models.Set `json:"sets"`
}

// ExerciseVolume returns Σ reps × weight over the exercise's sets.
func ExerciseVolume(e models.Exercise) float64 {
	var v float64
	for _, s := range e.Sets {
		v += float64(s.Reps) * s.Weight
	}
	return v
}

// WorkoutVolume returns Σ reps × weight over every set of the workout.
func WorkoutVolume(w models.Workout) float64 {
	var v float64
	for _, e := range w.Exercises {
		v += ExerciseVolume(e)
	}
	return v
}

// TotalVolume returns Σ reps × weight over all workouts. Empty input yields 0.
func TotalVolume(workouts []models.Workout) float64 {
	var v float64
	for _, w := range workouts {
		v += WorkoutVolume(w)
	}
	return v
}

// WeekStart returns midnight of the WeekStartDay on or before t, in t's location.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) - int(WeekStartDay) + 7) % 7
	return day.AddDate(0, 0, -offset)
}

// weekKey normalizes a date to the calendar day of its week start, independent
// of location, so workout dates (UTC midnights) compare against buckets built
// from a local "now".
func weekKey(t time.Time) string {
	return WeekStart(t).Format(models.DateLayout)
}

// WeeklyFrequency counts workouts per week for the current week and the
// Weeks-1 weeks before it, oldest first. Bucket labels are computed once up
// front; workouts outside the window, including future weeks, are ignored.
func WeeklyFrequency(workouts []models.Workout, now time.Time) []WeekBucket {
	current := WeekStart(now)
	buckets := make([]WeekBucket, Weeks)
	index := make(map[string]int, Weeks)
	for i := range buckets {
		start := current.AddDate(0, 0, -7*(Weeks-1-i))
		label := start.Format(models.DateLayout)
		buckets[i] = WeekBucket{WeekStart: label}
		index[label] = i
	}

	for _, w := range workouts {
		if i, ok := index[weekKey(w.Date)]; ok {
			buckets[i].Count++
		}
	}
	return buckets
}

// VolumeByCategory sums volume per category label, descending by volume.
// Exercises without a category count toward "Other". Equal volumes keep the
// order in which their labels were first encountered.
func VolumeByCategory(workouts []models.Workout) []CategoryVolume {
	var out []CategoryVolume
	index := make(map[string]int)
	for _, w := range workouts {
		for _, e := range w.Exercises {
			label := e.Category.Label()
			i, ok := index[label]
			if !ok {
				i = len(out)
				index[label] = i
				out = append(out, CategoryVolume{Category: label})
			}
			out[i].Volume += ExerciseVolume(e)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Volume > out[b].Volume
	})
	return out
}

// Summarize computes every stats-view figure in one pass over the collection.
func Summarize(workouts []models.Workout, now time.Time) Summary {
	s := Summary{
		TotalWorkouts:    len(workouts),
		TotalVolume:      TotalVolume(workouts),
		WeeklyFrequency:  WeeklyFrequency(workouts, now),
		VolumeByCategory: VolumeByCategory(workouts),
	}
	for _, w := range workouts {
		for _, e := range w.Exercises {
			s.TotalSets += len(e.Sets)
		}
	}
	if s.VolumeByCategory == nil {
		s.VolumeByCategory = []CategoryVolume{}
	}
	return s
}

// ExerciseHistory returns, for each workout containing an exercise named name
// (case-insensitive), the sets of the first such exercise. Input order is kept.
func ExerciseHistory(workouts []models.Workout, name string) []ExerciseHistoryEntry {
	want := strings.ToLower(strings.TrimSpace(name))
	out := []ExerciseHistoryEntry{}
	if want == "" {
		return out
	}
	for _, w := range workouts {
		for _, e := range w.Exercises {
			if strings.ToLower(e.Name) != want {
				continue
			}
			sets := e.Sets
			if sets == nil {
				sets = []models.Set{}
			}
			out = append(out, ExerciseHistoryEntry{
				WorkoutID:   w.ID.String(),
				WorkoutDate: w.DateString(),
				Sets:        sets,
			})
			break
		}
	}
	return out
}
