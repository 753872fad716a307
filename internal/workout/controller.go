// Package workout owns the state of the workout in progress: the active
// session, set and rest bookkeeping, and the cached plan, history and stats
// views that the UI reads.
package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/kettlebell/internal/cues"
	"github.com/claude/kettlebell/internal/metrics"
	"github.com/claude/kettlebell/internal/models"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// RecentSessionsLimit is how many sessions the history view keeps.
const RecentSessionsLimit = 10

var (
	// ErrNoActiveSession is returned by operations that need a workout in progress.
	ErrNoActiveSession = errors.New("no active workout session")
	// ErrEmptyPlan is returned when starting a plan that has no exercises.
	ErrEmptyPlan = errors.New("workout plan has no exercises")
)

// Store is the persistence the controller needs. *storage.DB satisfies it.
type Store interface {
	ListPlans(ctx context.Context) ([]models.WorkoutPlan, error)
	GetPlan(ctx context.Context, id string) (models.WorkoutPlan, error)
	CreatePlan(ctx context.Context, in models.PlanInput) (models.WorkoutPlan, error)
	UpdatePlan(ctx context.Context, id string, upd models.PlanUpdate) (models.WorkoutPlan, error)
	DeletePlan(ctx context.Context, id string) error

	CreateSession(ctx context.Context, s models.WorkoutSession) (models.WorkoutSession, error)
	ListSessions(ctx context.Context, limit int) ([]models.WorkoutSession, error)
	GetStats(ctx context.Context, now time.Time) (*models.WorkoutStats, error)

	ClearAllData(ctx context.Context) error
}

// Phase is the node of the session state machine.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseActive  Phase = "active"
	PhaseResting Phase = "resting"
)

// State is a point-in-time copy of everything the UI renders.
type State struct {
	WorkoutPlans         []models.WorkoutPlan    `json:"workoutPlans"`
	CurrentSession       *models.WorkoutSession  `json:"currentSession"`
	Stats                *models.WorkoutStats    `json:"stats"`
	RecentSessions       []models.WorkoutSession `json:"recentSessions"`
	IsLoading            bool                    `json:"isLoading"`
	Error                string                  `json:"error,omitempty"`
	CurrentExerciseIndex int                     `json:"currentExerciseIndex"`
	CurrentSetIndex      int                     `json:"currentSetIndex"`
	IsRestMode           bool                    `json:"isRestMode"`
	RestTimeRemaining    int                     `json:"restTimeRemaining"`
	SelectedPlan         *models.WorkoutPlan     `json:"selectedPlan"`
	WorkoutConfig        models.WorkoutConfig    `json:"workoutConfig"`
	Phase                Phase                   `json:"phase"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithTickInterval sets how often the rest countdown ticks.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithConfig sets the initial workout configuration.
func WithConfig(cfg models.WorkoutConfig) Option {
	return func(c *Controller) { c.st.WorkoutConfig = cfg }
}

// Controller serializes every workout operation behind one mutex. Storage
// calls made by an operation run under that mutex too.
type Controller struct {
	store    Store
	cues     cues.Player
	metrics  *metrics.Manager
	log      *slog.Logger
	now      func() time.Time
	interval time.Duration

	mu    sync.Mutex
	st    State
	timer *RestTimer
	wg    sync.WaitGroup
}

// New creates a controller in the idle phase. m must not be nil; a nil player
// discards cues.
func New(store Store, player cues.Player, m *metrics.Manager, log *slog.Logger, opts ...Option) *Controller {
	if player == nil {
		player = cues.Nop{}
	}
	c := &Controller{
		store:    store,
		cues:     player,
		metrics:  m,
		log:      log,
		now:      time.Now,
		interval: DefaultTickInterval,
		st: State{
			WorkoutPlans:   []models.WorkoutPlan{},
			RecentSessions: []models.WorkoutSession{},
			WorkoutConfig:  models.DefaultWorkoutConfig(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := c.st
	s.WorkoutPlans = append([]models.WorkoutPlan{}, c.st.WorkoutPlans...)
	s.RecentSessions = make([]models.WorkoutSession, len(c.st.RecentSessions))
	for i, rs := range c.st.RecentSessions {
		s.RecentSessions[i] = rs.Clone()
	}
	if c.st.CurrentSession != nil {
		cs := c.st.CurrentSession.Clone()
		s.CurrentSession = &cs
	}
	if c.st.Stats != nil {
		st := *c.st.Stats
		st.WorkoutsByDay = make(map[string]int, len(c.st.Stats.WorkoutsByDay))
		for k, v := range c.st.Stats.WorkoutsByDay {
			st.WorkoutsByDay[k] = v
		}
		st.WeightOverTime = append([]models.WeightPoint{}, c.st.Stats.WeightOverTime...)
		s.Stats = &st
	}
	if c.st.SelectedPlan != nil {
		p := *c.st.SelectedPlan
		s.SelectedPlan = &p
	}
	s.Phase = c.phaseLocked()
	return s
}

func (c *Controller) phaseLocked() Phase {
	switch {
	case c.st.CurrentSession == nil:
		return PhaseIdle
	case c.st.IsRestMode:
		return PhaseResting
	default:
		return PhaseActive
	}
}

// Phase returns the current state machine node.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phaseLocked()
}

// StartWorkout begins a quick workout. An active session is silently replaced.
func (c *Controller) StartWorkout(cfg models.WorkoutConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid workout config: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.startLocked(cfg, "")
	c.st.SelectedPlan = nil
	return nil
}

// StartPlanWorkout begins a workout from the first exercise of a saved plan.
func (c *Controller) StartPlanWorkout(ctx context.Context, planID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	plan, err := c.store.GetPlan(ctx, planID)
	if err != nil {
		return c.failLocked("get_plan", fmt.Errorf("loading plan %s: %w", planID, err))
	}
	if len(plan.Exercises) == 0 {
		return ErrEmptyPlan
	}
	cfg := models.ConfigFromExercise(plan.Exercises[0])
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("plan %s: invalid first exercise: %w", planID, err)
	}

	c.startLocked(cfg, plan.ID)
	c.st.SelectedPlan = &plan
	return nil
}

func (c *Controller) startLocked(cfg models.WorkoutConfig, planID string) {
	if c.st.CurrentSession != nil {
		c.log.Info("replacing active workout", "session_id", c.st.CurrentSession.ID)
		c.metrics.CounterWorkoutsAbandoned.Inc()
	}
	c.stopTimerLocked()

	c.st.CurrentSession = &models.WorkoutSession{
		ID:        uuid.NewString(),
		PlanID:    planID,
		Date:      c.now(),
		Exercises: []models.CompletedExercise{},
	}
	c.st.CurrentExerciseIndex = 0
	c.st.CurrentSetIndex = 0
	c.st.IsRestMode = false
	c.st.RestTimeRemaining = 0
	c.st.WorkoutConfig = cfg

	c.log.Info("workout started",
		"session_id", c.st.CurrentSession.ID,
		"exercise", cfg.Exercise,
		"sets", cfg.Sets,
		"reps", cfg.Reps,
		"weight", cfg.EffectiveWeight(),
	)
}

// CompleteSet records a finished set. Before the last set it starts a rest
// period; the last set records the configured exercise and finishes the
// workout.
func (c *Controller) CompleteSet(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.st.CurrentSession == nil {
		return ErrNoActiveSession
	}
	c.metrics.CounterSetsCompleted.Inc()

	cfg := c.st.WorkoutConfig
	if c.st.CurrentSetIndex < cfg.Sets-1 {
		c.st.CurrentSetIndex++
		c.startRestLocked()
		c.cues.Play(cues.SetComplete)
		return nil
	}

	n := len(c.st.CurrentSession.Exercises)
	c.st.CurrentSession.Exercises = append(c.st.CurrentSession.Exercises, cfg.Completed(uuid.NewString()))
	if _, err := c.finishLocked(ctx); err != nil {
		// Keep the set retryable without recording the exercise twice.
		c.st.CurrentSession.Exercises = c.st.CurrentSession.Exercises[:n]
		return err
	}
	c.cues.Play(cues.WorkoutComplete)
	return nil
}

// StartRest enters rest mode with the configured rest time.
func (c *Controller) StartRest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startRestLocked()
}

func (c *Controller) startRestLocked() {
	c.stopTimerLocked()
	c.st.IsRestMode = true
	c.st.RestTimeRemaining = c.st.WorkoutConfig.RestTime
	c.metrics.GaugeResting.Set(1)

	t := newRestTimer(c.interval)
	c.timer = t
	t.start(&c.wg, c.tickFrom)
}

// SkipRest leaves rest mode immediately.
func (c *Controller) SkipRest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipRestLocked()
}

func (c *Controller) skipRestLocked() {
	c.stopTimerLocked()
	c.st.IsRestMode = false
	c.st.RestTimeRemaining = 0
}

// ExtendRest adds seconds to the remaining rest time without changing mode.
func (c *Controller) ExtendRest(seconds int) error {
	if seconds <= 0 {
		return fmt.Errorf("%w: rest extension must be positive, got %d", models.ErrInvalid, seconds)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.RestTimeRemaining += seconds
	c.metrics.CounterRestExtended.Add(float64(seconds))
	return nil
}

// Tick advances the rest countdown by one second.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickLocked()
}

func (c *Controller) tickFrom(t *RestTimer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != t || t.Stopped() {
		return
	}
	c.tickLocked()
}

func (c *Controller) tickLocked() {
	if !c.st.IsRestMode {
		return
	}
	if c.st.RestTimeRemaining > 0 {
		c.st.RestTimeRemaining--
	}

	switch r := c.st.RestTimeRemaining; {
	case r <= 0:
		c.cues.Play(cues.TimerEnd)
		c.skipRestLocked()
	case r == warningAt:
		c.cues.Play(cues.Warning)
	case r <= countdownAt:
		c.cues.Play(cues.CountdownBeep)
	}
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
		c.metrics.GaugeResting.Set(0)
	}
}

// CompleteExercise appends a performed exercise to the active session.
func (c *Controller) CompleteExercise(ex models.CompletedExercise) error {
	if err := ex.Exercise.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.st.CurrentSession == nil {
		return ErrNoActiveSession
	}
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	c.st.CurrentSession.Exercises = append(c.st.CurrentSession.Exercises, ex)
	return nil
}

// FinishWorkout saves the active session to history. On a storage failure
// the session stays active and the error is also kept in the error slot.
func (c *Controller) FinishWorkout(ctx context.Context) (models.WorkoutSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finishLocked(ctx)
}

func (c *Controller) finishLocked(ctx context.Context) (models.WorkoutSession, error) {
	if c.st.CurrentSession == nil {
		return models.WorkoutSession{}, ErrNoActiveSession
	}

	done := c.st.CurrentSession.Clone()
	done.Completed = true
	done.Duration = c.now().Sub(done.Date).Milliseconds()

	saved, err := c.store.CreateSession(ctx, done)
	if err != nil {
		return models.WorkoutSession{}, c.failLocked("create_session", fmt.Errorf("saving workout: %w", err))
	}

	c.metrics.CounterWorkoutsFinished.Inc()
	c.metrics.HistWorkoutDuration.Observe(float64(saved.Duration) / 1000)
	c.log.Info("workout finished",
		"session_id", saved.ID,
		"exercises", len(saved.Exercises),
		"total_weight", saved.TotalWeight(),
		"duration_ms", saved.Duration,
	)

	c.resetSessionLocked()

	// The session is already saved; refresh failures only land in the error slot.
	_ = multierr.Combine(c.loadStatsLocked(ctx), c.loadRecentLocked(ctx))
	return saved, nil
}

// ClearSession abandons the active workout without saving it.
func (c *Controller) ClearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.st.CurrentSession != nil {
		c.log.Info("workout abandoned", "session_id", c.st.CurrentSession.ID)
		c.metrics.CounterWorkoutsAbandoned.Inc()
	}
	c.resetSessionLocked()
}

func (c *Controller) resetSessionLocked() {
	c.stopTimerLocked()
	c.st.CurrentSession = nil
	c.st.CurrentExerciseIndex = 0
	c.st.CurrentSetIndex = 0
	c.st.IsRestMode = false
	c.st.RestTimeRemaining = 0
}

// UpdateWorkoutConfig applies a partial configuration change.
func (c *Controller) UpdateWorkoutConfig(patch models.ConfigPatch) (models.WorkoutConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg := patch.Apply(c.st.WorkoutConfig)
	if err := cfg.Validate(); err != nil {
		return c.st.WorkoutConfig, fmt.Errorf("invalid workout config: %w", err)
	}
	c.st.WorkoutConfig = cfg
	return cfg, nil
}

// SetError replaces the error slot. An empty message clears it.
func (c *Controller) SetError(msg string) {
	c.mu.Lock()
	c.st.Error = msg
	c.mu.Unlock()
}

// failLocked records err in the error slot and returns it.
func (c *Controller) failLocked(op string, err error) error {
	c.st.Error = err.Error()
	c.metrics.CounterStorageErrors.WithLabelValues(op).Inc()
	c.log.Error("workout operation failed", "op", op, "error", err)
	return err
}

// LoadWorkoutPlans refreshes the cached plan list.
func (c *Controller) LoadWorkoutPlans(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadPlansLocked(ctx)
}

func (c *Controller) loadPlansLocked(ctx context.Context) error {
	c.st.IsLoading = true
	c.st.Error = ""
	defer func() { c.st.IsLoading = false }()

	plans, err := c.store.ListPlans(ctx)
	if err != nil {
		return c.failLocked("list_plans", fmt.Errorf("loading plans: %w", err))
	}
	if plans == nil {
		plans = []models.WorkoutPlan{}
	}
	c.st.WorkoutPlans = plans
	return nil
}

// LoadStats refreshes the cached statistics.
func (c *Controller) LoadStats(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadStatsLocked(ctx)
}

func (c *Controller) loadStatsLocked(ctx context.Context) error {
	st, err := c.store.GetStats(ctx, c.now())
	if err != nil {
		return c.failLocked("get_stats", fmt.Errorf("loading stats: %w", err))
	}
	c.st.Stats = st
	return nil
}

// LoadRecentSessions refreshes the cached history.
func (c *Controller) LoadRecentSessions(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadRecentLocked(ctx)
}

func (c *Controller) loadRecentLocked(ctx context.Context) error {
	sessions, err := c.store.ListSessions(ctx, RecentSessionsLimit)
	if err != nil {
		return c.failLocked("list_sessions", fmt.Errorf("loading recent sessions: %w", err))
	}
	if sessions == nil {
		sessions = []models.WorkoutSession{}
	}
	c.st.RecentSessions = sessions
	return nil
}

// Refresh reloads plans, stats and recent sessions.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return multierr.Combine(
		c.loadPlansLocked(ctx),
		c.loadStatsLocked(ctx),
		c.loadRecentLocked(ctx),
	)
}

// CreateWorkoutPlan saves a new plan and reloads the plan list.
func (c *Controller) CreateWorkoutPlan(ctx context.Context, in models.PlanInput) (models.WorkoutPlan, error) {
	if err := in.Validate(); err != nil {
		return models.WorkoutPlan{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	plan, err := c.store.CreatePlan(ctx, in)
	if err != nil {
		return models.WorkoutPlan{}, c.failLocked("create_plan", fmt.Errorf("creating plan: %w", err))
	}
	return plan, c.loadPlansLocked(ctx)
}

// UpdateWorkoutPlan applies a partial update and reloads the plan list.
func (c *Controller) UpdateWorkoutPlan(ctx context.Context, id string, upd models.PlanUpdate) (models.WorkoutPlan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	plan, err := c.store.UpdatePlan(ctx, id, upd)
	if err != nil {
		return models.WorkoutPlan{}, c.failLocked("update_plan", fmt.Errorf("updating plan %s: %w", id, err))
	}
	if c.st.SelectedPlan != nil && c.st.SelectedPlan.ID == id {
		c.st.SelectedPlan = &plan
	}
	return plan, c.loadPlansLocked(ctx)
}

// DeleteWorkoutPlan removes a plan with its exercises, goals and sessions.
func (c *Controller) DeleteWorkoutPlan(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.DeletePlan(ctx, id); err != nil {
		return c.failLocked("delete_plan", fmt.Errorf("deleting plan %s: %w", id, err))
	}
	if c.st.SelectedPlan != nil && c.st.SelectedPlan.ID == id {
		c.st.SelectedPlan = nil
	}
	return multierr.Combine(
		c.loadPlansLocked(ctx),
		c.loadStatsLocked(ctx),
		c.loadRecentLocked(ctx),
	)
}

// ClearAllData wipes plans and history and resets the cached views.
func (c *Controller) ClearAllData(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.ClearAllData(ctx); err != nil {
		return c.failLocked("clear_all", fmt.Errorf("clearing data: %w", err))
	}

	c.resetSessionLocked()
	c.st.WorkoutPlans = []models.WorkoutPlan{}
	c.st.RecentSessions = []models.WorkoutSession{}
	c.st.Stats = nil
	c.st.SelectedPlan = nil
	c.log.Info("all workout data cleared")
	return nil
}

// Close stops the rest timer and waits for its goroutine to exit.
func (c *Controller) Close() {
	c.mu.Lock()
	c.stopTimerLocked()
	c.mu.Unlock()
	c.wg.Wait()
}
