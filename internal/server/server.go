package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/kettlebell/internal/cues"
	"github.com/claude/kettlebell/internal/metrics"
	"github.com/claude/kettlebell/internal/storage"
	"github.com/claude/kettlebell/internal/transfer"
	"github.com/claude/kettlebell/internal/workout"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	ctrl     *workout.Controller
	db       *storage.DB
	hub      *cues.Hub
	importer *transfer.Importer
	metrics  *metrics.Manager
	log      *slog.Logger
	apiKey   string
	router   chi.Router
	now      func() time.Time
}

// New creates a new Server with all routes configured. An empty apiKey
// leaves the guarded routes open.
func New(ctrl *workout.Controller, db *storage.DB, hub *cues.Hub, importer *transfer.Importer,
	m *metrics.Manager, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		ctrl:     ctrl,
		db:       db,
		hub:      hub,
		importer: importer,
		metrics:  m,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
		now:      time.Now,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Mount attaches an extra handler such as /metrics or /mcp.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(RequestMetrics(s.metrics))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/catalog", s.handleCatalog)

		r.Get("/plans", s.handleListPlans)
		r.Post("/plans", s.handleCreatePlan)
		r.Post("/plans/quick", s.handleQuickPlan)
		r.Get("/plans/{id}", s.handleGetPlan)
		r.Patch("/plans/{id}", s.handleUpdatePlan)
		r.Post("/plans/{id}/clone", s.handleClonePlan)
		r.Post("/plans/{id}/start", s.handleStartPlan)

		r.Post("/session/start", s.handleStartWorkout)
		r.Patch("/session/config", s.handleUpdateConfig)
		r.Post("/session/sets/complete", s.handleCompleteSet)
		r.Post("/session/rest/start", s.handleStartRest)
		r.Post("/session/rest/skip", s.handleSkipRest)
		r.Post("/session/rest/extend", s.handleExtendRest)
		r.Post("/session/exercises", s.handleCompleteExercise)
		r.Post("/session/finish", s.handleFinishWorkout)
		r.Delete("/session", s.handleClearSession)
		r.Get("/session/events", s.handleEvents)

		r.Get("/sessions", s.handleListSessions)
		r.Get("/stats", s.handleStats)
		r.Get("/calendar", s.handleCalendar)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings/{key}", s.handlePutSetting)

		r.Get("/steps", s.handleGetSteps)
		r.Post("/steps", s.handleAddSteps)
		r.Put("/steps/goal", s.handleSetStepGoal)

		r.Get("/export", s.handleExport)
		r.Get("/import-logs", s.handleImportLogs)

		// Destructive and import routes need the API key when one is set.
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Delete("/plans/{id}", s.handleDeletePlan)
			r.Post("/import", s.handleImport)
			r.Delete("/data", s.handleClearData)
		})
	})
}
