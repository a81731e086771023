package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/stats"
	"github.com/liftlog/liftlog/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
)

// dateRange parses optional YYYY-MM-DD bounds, defaulting to the last 30 days
// ending today. Both bounds are inclusive.
func dateRange(startStr, endStr string, today time.Time) (time.Time, time.Time, error) {
	end := models.CalendarDate(today)
	if endStr != "" {
		d, err := models.ParseDate(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = d
	}

	start := end.AddDate(0, 0, -30)
	if startStr != "" {
		d, err := models.ParseDate(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = d
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start %s is after end %s", start.Format(models.DateLayout), end.Format(models.DateLayout))
	}
	return start, end, nil
}

// inRange keeps workouts dated within [start, end].
func inRange(workouts []models.Workout, start, end time.Time) []models.Workout {
	out := []models.Workout{}
	for _, w := range workouts {
		if !w.Date.Before(start) && !w.Date.After(end) {
			out = append(out, w)
		}
	}
	return out
}

// withExercise keeps workouts containing an exercise whose name contains filter.
func withExercise(workouts []models.Workout, filter string) []models.Workout {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return workouts
	}
	out := []models.Workout{}
	for _, w := range workouts {
		for _, e := range w.Exercises {
			if strings.Contains(strings.ToLower(e.Name), filter) {
				out = append(out, w)
				break
			}
		}
	}
	return out
}

// --- Tool definitions ---

var toolGetWorkouts = mcp.NewTool("get_workouts",
	mcp.WithDescription("List logged workouts, newest first, with exercises and sets (reps and weight). Optionally filter by exercise name."),
	mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD). Defaults to 30 days before end.")),
	mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD). Defaults to today.")),
	mcp.WithString("exercise", mcp.Description("Filter by exercise name (partial match, e.g. 'bench')")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get one workout by ID with all of its exercises and sets."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout ID (UUID) as returned by get_workouts")),
)

var toolGetWorkoutStats = mcp.NewTool("get_workout_stats",
	mcp.WithDescription("Training summary across all workouts: total workouts, total sets, total volume (reps × weight), workouts per week for the last 8 weeks and volume per muscle-group category."),
	mcp.WithString("now", mcp.Description("Reference date (YYYY-MM-DD) for the weekly window. Defaults to today.")),
)

var toolGetExerciseHistory = mcp.NewTool("get_exercise_history",
	mcp.WithDescription("Every logged performance of one exercise, newest first, with the sets done in each workout."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name (case-insensitive exact match)")),
)

var toolListCategories = mcp.NewTool("list_categories",
	mcp.WithDescription("List the muscle-group categories an exercise can be tagged with."),
)

// --- Tool handlers ---

func (h *handlers) getWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := dateRange(req.GetString("start", ""), req.GetString("end", ""), h.now())
	if err != nil {
		return mcp.NewToolResultError("invalid date: " + err.Error()), nil
	}

	all, err := h.ds.ListWorkouts(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	workouts := withExercise(inRange(all, start, end), req.GetString("exercise", ""))

	result, err := mcp.NewToolResultJSON(map[string]any{"workouts": workouts})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(strings.TrimSpace(idStr))
	if err != nil {
		return mcp.NewToolResultError("invalid workout id: " + idStr), nil
	}

	workout, err := h.ds.GetWorkout(ctx, UserIDFromContext(ctx), id)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("workout not found"), nil
	}
	if err != nil {
		h.log.Error("mcp get_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(workout)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	now := h.now()
	if s := req.GetString("now", ""); s != "" {
		d, err := models.ParseDate(s)
		if err != nil {
			return mcp.NewToolResultError("invalid date: " + err.Error()), nil
		}
		now = d
	}

	workouts, err := h.ds.ListWorkouts(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_workout_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(stats.Summarize(workouts, now))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getExerciseHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil || strings.TrimSpace(name) == "" {
		return mcp.NewToolResultError("name parameter is required"), nil
	}

	workouts, err := h.ds.ListWorkouts(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_exercise_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"exercise": name,
		"history":  stats.ExerciseHistory(workouts, name),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listCategories(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(map[string]any{"categories": models.Categories()})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
