package stats

import (
	"math"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/liftlog/liftlog/internal/models"
)

// Wednesday.
var now = time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC)

func day(s string) time.Time {
	d, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func workout(date string, exercises ...models.Exercise) models.Workout {
	return models.Workout{Date: day(date), Exercises: exercises}
}

func exercise(name string, cat models.Category, sets ...models.Set) models.Exercise {
	return models.Exercise{Name: name, Category: cat, Sets: sets}
}

func set(n, reps int, weight float64) models.Set {
	return models.Set{SetNumber: n, Reps: reps, Weight: weight}
}

// TestThreeBenchWorkouts covers the canonical example: three identical
// bench sessions give 3000 total volume, all under Chest.
func TestThreeBenchWorkouts(t *testing.T) {
	var ws []models.Workout
	for _, d := range []string{"2026-03-09", "2026-03-04", "2026-02-25"} {
		ws = append(ws, workout(d, exercise("Bench Press", models.CategoryChest, set(1, 10, 100))))
	}

	if got := TotalVolume(ws); got != 3000 {
		t.Errorf("TotalVolume = %v, want 3000", got)
	}
	cats := VolumeByCategory(ws)
	if len(cats) != 1 || cats[0].Category != "Chest" || cats[0].Volume != 3000 {
		t.Errorf("VolumeByCategory = %+v, want [{Chest 3000}]", cats)
	}
}

// TestTotalVolumeEmpty verifies empty input yields 0.
func TestTotalVolumeEmpty(t *testing.T) {
	if got := TotalVolume(nil); got != 0 {
		t.Errorf("TotalVolume(nil) = %v, want 0", got)
	}
}

// TestTotalVolumeNegativePropagates verifies negative input is not sanitized.
func TestTotalVolumeNegativePropagates(t *testing.T) {
	ws := []models.Workout{workout("2026-03-09",
		exercise("Squat", models.CategoryLegs, set(1, 5, 100), set(2, -1, 50)),
	)}
	if got := TotalVolume(ws); got != 450 {
		t.Errorf("TotalVolume = %v, want 450", got)
	}
}

// TestTotalVolumeMatchesHandSum checks TotalVolume against an independent
// sum over randomly generated, non-negative workouts.
func TestTotalVolumeMatchesHandSum(t *testing.T) {
	f := gofakeit.New(42)
	for round := 0; round < 50; round++ {
		var ws []models.Workout
		var want float64
		nWorkouts := f.Number(1, 6)
		for i := 0; i < nWorkouts; i++ {
			var exs []models.Exercise
			nExercises := f.Number(1, 4)
			for j := 0; j < nExercises; j++ {
				var sets []models.Set
				nSets := f.Number(1, 5)
				for k := 0; k < nSets; k++ {
					reps := f.Number(0, 20)
					weight := math.Round(f.Float64Range(0, 200)*4) / 4
					want += float64(reps) * weight
					sets = append(sets, set(k+1, reps, weight))
				}
				exs = append(exs, exercise(f.Word(), models.CategoryBack, sets...))
			}
			ws = append(ws, workout("2026-03-01", exs...))
		}

		got := TotalVolume(ws)
		if got < 0 {
			t.Fatalf("round %d: TotalVolume = %v, want >= 0", round, got)
		}
		if math.Abs(got-want) > 1e-6 {
			t.Fatalf("round %d: TotalVolume = %v, want %v", round, got, want)
		}
	}
}

// TestWeekStart verifies dates normalize to the preceding Sunday midnight.
func TestWeekStart(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{now, "2026-03-08"},
		{day("2026-03-08"), "2026-03-08"},
		{day("2026-03-14"), "2026-03-08"},
		{time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC), "2026-03-08"},
		{day("2026-03-15"), "2026-03-15"},
		{day("2026-01-01"), "2025-12-28"},
	}
	for _, tt := range tests {
		got := WeekStart(tt.in)
		if got.Format(models.DateLayout) != tt.want {
			t.Errorf("WeekStart(%v) = %v, want %s", tt.in, got, tt.want)
		}
		if got.Hour() != 0 || got.Minute() != 0 {
			t.Errorf("WeekStart(%v) = %v, want midnight", tt.in, got)
		}
	}
}

// TestWeeklyFrequencyShape verifies exactly 8 oldest-first buckets even with no workouts.
func TestWeeklyFrequencyShape(t *testing.T) {
	buckets := WeeklyFrequency(nil, now)
	if len(buckets) != Weeks {
		t.Fatalf("buckets = %d, want %d", len(buckets), Weeks)
	}
	if buckets[0].WeekStart != "2026-01-18" {
		t.Errorf("oldest bucket = %s, want 2026-01-18", buckets[0].WeekStart)
	}
	if buckets[Weeks-1].WeekStart != "2026-03-08" {
		t.Errorf("newest bucket = %s, want 2026-03-08", buckets[Weeks-1].WeekStart)
	}
	for i := 1; i < len(buckets); i++ {
		if buckets[i].WeekStart <= buckets[i-1].WeekStart {
			t.Errorf("bucket %d (%s) not after bucket %d (%s)", i, buckets[i].WeekStart, i-1, buckets[i-1].WeekStart)
		}
		if buckets[i].Count != 0 {
			t.Errorf("bucket %d count = %d, want 0", i, buckets[i].Count)
		}
	}
}

// TestWeeklyFrequencyCounts verifies mid-week dates land in their own week
// and out-of-window dates are dropped.
func TestWeeklyFrequencyCounts(t *testing.T) {
	ws := []models.Workout{
		workout("2026-03-08"), // Sunday, current week
		workout("2026-03-11"), // today
		workout("2026-03-07"), // Saturday, previous week
		workout("2026-01-18"), // oldest bucket start
		workout("2026-01-17"), // just before the window
		workout("2026-01-07"), // exactly 9 weeks before now
		workout("2026-03-15"), // next week
	}
	buckets := WeeklyFrequency(ws, now)

	want := map[string]int{
		"2026-03-08": 2,
		"2026-03-01": 1,
		"2026-01-18": 1,
	}
	total := 0
	for _, b := range buckets {
		total += b.Count
		if b.Count != want[b.WeekStart] {
			t.Errorf("bucket %s = %d, want %d", b.WeekStart, b.Count, want[b.WeekStart])
		}
	}
	if total != 4 {
		t.Errorf("total bucketed = %d, want 4", total)
	}
}

// TestWeeklyFrequencyLocalNow verifies a non-UTC "now" still buckets calendar dates by their own day.
func TestWeeklyFrequencyLocalNow(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*3600)
	// Saturday evening locally, already Sunday in UTC.
	localNow := time.Date(2026, 3, 14, 20, 0, 0, 0, loc)
	buckets := WeeklyFrequency([]models.Workout{workout("2026-03-14")}, localNow)
	last := buckets[Weeks-1]
	if last.WeekStart != "2026-03-08" || last.Count != 1 {
		t.Errorf("current bucket = %+v, want {2026-03-08 1}", last)
	}
}

// TestVolumeByCategory verifies grouping, "Other" fallback, ordering, and tie-break.
func TestVolumeByCategory(t *testing.T) {
	ws := []models.Workout{
		workout("2026-03-09",
			exercise("Curl", models.CategoryArms, set(1, 10, 20)), // 200
			exercise("Plank", "", set(1, 1, 0)),                    // 0, Other
			exercise("Row", models.CategoryBack, set(1, 10, 50)),  // 500
		),
		workout("2026-03-04",
			exercise("Dips", models.CategoryArms, set(1, 10, 30)),  // Arms 500
			exercise("Sled", models.CategoryOther, set(1, 2, 100)), // Other 200
			exercise("Squat", models.CategoryLegs, set(1, 5, 200)), // 1000
		),
	}
	got := VolumeByCategory(ws)
	want := []CategoryVolume{
		{"Legs", 1000},
		{"Arms", 500},
		{"Back", 500},
		{"Other", 200},
	}
	if len(got) != len(want) {
		t.Fatalf("VolumeByCategory = %+v, want %+v", got, want)
	}
	seen := map[string]bool{}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
		if seen[got[i].Category] {
			t.Errorf("duplicate label %q", got[i].Category)
		}
		seen[got[i].Category] = true
	}
}

// TestSummarize verifies the combined figures.
func TestSummarize(t *testing.T) {
	ws := []models.Workout{
		workout("2026-03-09", exercise("Bench", models.CategoryChest, set(1, 10, 100), set(2, 10, 100))),
		workout("2026-03-02", exercise("Row", models.CategoryBack, set(1, 10, 50))),
	}
	s := Summarize(ws, now)
	if s.TotalWorkouts != 2 || s.TotalSets != 3 || s.TotalVolume != 2500 {
		t.Errorf("summary = %+v", s)
	}
	if len(s.WeeklyFrequency) != Weeks {
		t.Errorf("weekly buckets = %d, want %d", len(s.WeeklyFrequency), Weeks)
	}

	empty := Summarize(nil, now)
	if empty.VolumeByCategory == nil {
		t.Error("empty summary category list is nil, want empty slice")
	}
}

// TestExerciseHistory verifies case-insensitive matching and first-match-per-workout.
func TestExerciseHistory(t *testing.T) {
	ws := []models.Workout{
		workout("2026-03-09",
			exercise("Bench Press", models.CategoryChest, set(1, 5, 120)),
			exercise("bench press", models.CategoryChest, set(1, 12, 60)),
		),
		workout("2026-03-04", exercise("Squat", models.CategoryLegs, set(1, 5, 140))),
		workout("2026-03-01", exercise("BENCH PRESS", models.CategoryChest, set(1, 5, 115), set(2, 5, 115))),
	}
	got := ExerciseHistory(ws, " bench press ")
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got[0].WorkoutDate != "2026-03-09" || got[0].Sets[0].Weight != 120 {
		t.Errorf("entry 0 = %+v", got[0])
	}
	if got[1].WorkoutDate != "2026-03-01" || len(got[1].Sets) != 2 {
		t.Errorf("entry 1 = %+v", got[1])
	}

	if n := len(ExerciseHistory(ws, "")); n != 0 {
		t.Errorf("empty name entries = %d, want 0", n)
	}
}
