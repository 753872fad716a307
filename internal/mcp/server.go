// Package mcp exposes workout history and plans to MCP clients.
package mcp

import (
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Kettlebell", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Kettlebell workout tracker. Query finished workout sessions, training statistics and saved workout plans."),
	)

	h := &handlers{ds: ds, log: log, now: time.Now}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetWorkoutStats, Handler: h.getWorkoutStats},
		server.ServerTool{Tool: toolGetRecentSessions, Handler: h.getRecentSessions},
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
		server.ServerTool{Tool: toolListWorkoutPlans, Handler: h.listWorkoutPlans},
		server.ServerTool{Tool: toolGetWorkoutPlan, Handler: h.getWorkoutPlan},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
		server.ServerResource{Resource: resStats, Handler: h.stats},
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
	now func() time.Time
}

// --- Resource definitions ---

var resRecentSessions = mcp.NewResource(
	"kettlebell://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("The ten most recent workout sessions with their exercises"),
	mcp.WithMIMEType("application/json"),
)

var resStats = mcp.NewResource(
	"kettlebell://stats",
	"Workout Statistics",
	mcp.WithResourceDescription("Total workouts, total weight lifted, preferred kettlebell, workouts by weekday and recent volume"),
	mcp.WithMIMEType("application/json"),
)

var resExerciseCatalog = mcp.NewResource(
	"kettlebell://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("Selectable exercises grouped by category and the available kettlebell weights"),
	mcp.WithMIMEType("application/json"),
)
