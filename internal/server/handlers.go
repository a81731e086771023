package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/liftlog/liftlog/internal/auth"
	"github.com/liftlog/liftlog/internal/importer"
	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/stats"
	"github.com/liftlog/liftlog/internal/storage"
)

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	workouts, err := s.store.ListWorkouts(r.Context(), sess.User.ID)
	if err != nil {
		s.writeError(w, "listing workouts", err)
		return
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	workout, ok := s.decodeWorkout(w, r)
	if !ok {
		return
	}

	created, err := s.store.CreateWorkout(r.Context(), sess.User.ID, workout)
	if err != nil {
		s.writeError(w, "creating workout", err)
		return
	}

	s.metrics.CounterWorkoutsCreated.Inc()
	for _, e := range created.Exercises {
		s.metrics.CounterSetsLogged.Add(float64(len(e.Sets)))
	}
	s.log.Info("workout created", "user_id", sess.User.ID, "workout_id", created.ID, "exercises", len(created.Exercises))
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	id, ok := workoutID(w, r)
	if !ok {
		return
	}

	workout, err := s.store.GetWorkout(r.Context(), sess.User.ID, id)
	if err != nil {
		s.writeError(w, "getting workout", err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleUpdateWorkout(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	id, ok := workoutID(w, r)
	if !ok {
		return
	}
	workout, ok := s.decodeWorkout(w, r)
	if !ok {
		return
	}

	updated, err := s.store.UpdateWorkout(r.Context(), sess.User.ID, id, workout)
	if err != nil {
		s.writeError(w, "updating workout", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	id, ok := workoutID(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteWorkout(r.Context(), sess.User.ID, id); err != nil {
		s.writeError(w, "deleting workout", err)
		return
	}
	s.log.Info("workout deleted", "user_id", sess.User.ID, "workout_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	now := s.now()
	if v := r.URL.Query().Get("now"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid now date, expected YYYY-MM-DD"})
			return
		}
		now = d
	}

	workouts, err := s.store.ListWorkouts(r.Context(), sess.User.ID)
	if err != nil {
		s.writeError(w, "loading workouts for stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats.Summarize(workouts, now))
}

func (s *Server) handleExerciseHistory(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name parameter required"})
		return
	}

	workouts, err := s.store.ListWorkouts(r.Context(), sess.User.ID)
	if err != nil {
		s.writeError(w, "loading workouts for history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"exercise": name,
		"history":  stats.ExerciseHistory(workouts, name),
	})
}

func (s *Server) handleAlphaImport(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	result, err := s.importer.Import(r.Context(), sess.User.ID, r.Body)
	if errors.Is(err, importer.ErrParse) {
		s.log.Warn("alpha import rejected", "user_id", sess.User.ID, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "result": result})
		return
	}
	if err != nil {
		s.writeError(w, "importing alpha csv", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	logs, err := s.store.QueryImportLogs(r.Context(), sess.User.ID, limit)
	if err != nil {
		s.writeError(w, "querying import logs", err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// decodeWorkout reads a WorkoutInput body and validates it. It writes the
// error response itself and reports whether the caller may continue.
func (s *Server) decodeWorkout(w http.ResponseWriter, r *http.Request) (models.Workout, bool) {
	var in models.WorkoutInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return models.Workout{}, false
	}
	workout, err := in.Build(s.now())
	if err != nil {
		s.writeError(w, "validating workout", err)
		return models.Workout{}, false
	}
	return workout, true
}

func workoutID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workout ID"})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps domain errors onto status codes. Unexpected errors are
// logged with op and reported as 500.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	var ve *models.ValidationError
	var ae *auth.AuthError

	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "details": ve.Problems})
	case errors.As(err, &ae):
		writeJSON(w, authStatus(ae.Code), map[string]string{"error": ae.Message, "code": ae.Code})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		s.log.Error(op, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func authStatus(code string) int {
	switch code {
	case auth.CodeEmailTaken:
		return http.StatusConflict
	case auth.CodeInvalidEmail, auth.CodeWeakPassword:
		return http.StatusBadRequest
	default:
		return http.StatusUnauthorized
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
