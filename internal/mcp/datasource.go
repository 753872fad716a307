package mcp

import (
	"context"
	"time"

	"github.com/claude/kettlebell/internal/models"
	"github.com/claude/kettlebell/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListSessions(ctx context.Context, limit int) ([]models.WorkoutSession, error)
	QuerySessions(ctx context.Context, start, end time.Time) ([]models.WorkoutSession, error)
	GetStats(ctx context.Context, now time.Time) (*models.WorkoutStats, error)
	ListPlans(ctx context.Context) ([]models.WorkoutPlan, error)
	GetPlan(ctx context.Context, id string) (models.WorkoutPlan, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
