package mcp

import (
	"context"
	"encoding/json"

	"github.com/liftlog/liftlog/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	all, err := h.ds.ListWorkouts(ctx, UserIDFromContext(ctx))
	if err != nil {
		return nil, err
	}

	end := models.CalendarDate(h.now())
	workouts := inRange(all, end.AddDate(0, 0, -14), end)

	data, err := json.Marshal(workouts)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
