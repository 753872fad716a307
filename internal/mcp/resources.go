package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/kettlebell/internal/catalog"
	"github.com/claude/kettlebell/internal/workout"
	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) recentSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sessions, err := h.ds.ListSessions(ctx, workout.RecentSessionsLimit)
	if err != nil {
		return nil, err
	}
	return jsonContents(req, sessions)
}

func (h *handlers) stats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := h.ds.GetStats(ctx, h.now())
	if err != nil {
		return nil, err
	}
	return jsonContents(req, stats)
}

func (h *handlers) exerciseCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(req, map[string]any{
		"exercises": catalog.Options(),
		"weights":   catalog.Weights(),
	})
}

func jsonContents(req mcp.ReadResourceRequest, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
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
