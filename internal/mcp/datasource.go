package mcp

import (
	"context"

	"github.com/google/uuid"
	"github.com/liftlog/liftlog/internal/models"
	"github.com/liftlog/liftlog/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both storage.Store
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListWorkouts(ctx context.Context, userID uuid.UUID) ([]models.Workout, error)
	GetWorkout(ctx context.Context, userID, workoutID uuid.UUID) (models.Workout, error)
}

var (
	_ DataSource = (storage.Store)(nil)
	_ DataSource = (*HTTPClient)(nil)
)
