package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/claude/kettlebell/internal/cues"
	"github.com/claude/kettlebell/internal/metrics"
	"github.com/claude/kettlebell/internal/models"
	"github.com/claude/kettlebell/internal/storage"
	"github.com/claude/kettlebell/internal/transfer"
	"github.com/claude/kettlebell/internal/workout"
)

type testEnv struct {
	srv  *Server
	db   *storage.DB
	ctrl *workout.Controller
	hub  *cues.Hub
}

func newTestEnv(t *testing.T, apiKey string) *testEnv {
	t.Helper()
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	path := filepath.Join(t.TempDir(), "kettlebell.db")
	if err := storage.RunMigrations(storage.DriverSQLite, "sqlite://"+path); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	db, err := storage.Open(ctx, storage.DriverSQLite,
		"file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", time.UTC)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.SeedSettings(ctx); err != nil {
		t.Fatalf("SeedSettings: %v", err)
	}

	m := metrics.NewTestManager()
	hub := cues.NewHub(log)
	ctrl := workout.New(db, hub, m, log, workout.WithTickInterval(time.Hour))
	t.Cleanup(ctrl.Close)

	srv := New(ctrl, db, hub, transfer.New(db, log, m, false), m, apiKey, log)
	return &testEnv{srv: srv, db: db, ctrl: ctrl, hub: hub}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return v
}

// TestHandleStateIdle verifies a fresh server reports an idle controller.
func TestHandleStateIdle(t *testing.T) {
	env := newTestEnv(t, "")
	rec := env.do(t, http.MethodGet, "/api/v1/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	st := decode[workout.State](t, rec)
	if st.Phase != workout.PhaseIdle || st.CurrentSession != nil {
		t.Errorf("state = %+v", st)
	}
	if st.WorkoutConfig.Exercise != "Swing" {
		t.Errorf("workoutConfig = %+v", st.WorkoutConfig)
	}
}

// TestQuickPlanAndStart creates a template plan and starts a workout from it.
func TestQuickPlanAndStart(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/v1/plans/quick", `{"kind":"strength"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	plan := decode[models.WorkoutPlan](t, rec)
	if plan.Name != "Quick Kettlebell Workout" || len(plan.Exercises) != 2 {
		t.Fatalf("plan = %+v", plan)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/plans/"+plan.ID+"/start", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d, body %s", rec.Code, rec.Body)
	}
	st := decode[workout.State](t, rec)
	if st.Phase != workout.PhaseActive || st.WorkoutConfig.Exercise != "Kettlebell Swing" || st.WorkoutConfig.Sets != 3 {
		t.Errorf("state = %+v", st)
	}
	if st.SelectedPlan == nil || st.SelectedPlan.ID != plan.ID {
		t.Error("selected plan not set")
	}

	rec = env.do(t, http.MethodPost, "/api/v1/plans/"+plan.ID+"/clone", "")
	clone := decode[models.WorkoutPlan](t, rec)
	if rec.Code != http.StatusCreated || clone.Name != "Quick Kettlebell Workout (Copy)" {
		t.Errorf("clone = %d %+v", rec.Code, clone)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/plans", "")
	if plans := decode[[]models.WorkoutPlan](t, rec); len(plans) != 2 {
		t.Errorf("plans = %d, want 2", len(plans))
	}
}

// TestPlanCRUDHandlers covers create, patch, delete and unknown ids.
func TestPlanCRUDHandlers(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/v1/plans", `{"name":"","frequency":"daily"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid plan status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/plans", `{"name":"Evening","frequency":"weekly","timesPerWeek":2,
		"exercises":[{"name":"Press","type":"strength","sets":3,"reps":5,"weight":16,"restInterval":90}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	plan := decode[models.WorkoutPlan](t, rec)

	rec = env.do(t, http.MethodPatch, "/api/v1/plans/"+plan.ID, `{"name":"Late Evening"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body)
	}
	if got := decode[models.WorkoutPlan](t, rec); got.Name != "Late Evening" || len(got.Exercises) != 1 {
		t.Errorf("patched = %+v", got)
	}

	if rec := env.do(t, http.MethodDelete, "/api/v1/plans/"+plan.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/plans/"+plan.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d, want 404", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/plans/nope/start", ""); rec.Code != http.StatusNotFound {
		t.Errorf("start unknown status = %d, want 404", rec.Code)
	}
}

// TestSessionFlow runs a two-set workout over HTTP.
func TestSessionFlow(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/v1/session/start",
		`{"exercise":"Swing","weight":16,"reps":10,"sets":2,"restTime":30}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d, body %s", rec.Code, rec.Body)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/session/sets/complete", "")
	st := decode[workout.State](t, rec)
	if !st.IsRestMode || st.RestTimeRemaining != 30 || st.CurrentSetIndex != 1 {
		t.Fatalf("after first set = %+v", st)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/session/rest/extend", `{"seconds":30}`)
	if st := decode[workout.State](t, rec); st.RestTimeRemaining != 60 {
		t.Errorf("after extend remaining = %d, want 60", st.RestTimeRemaining)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/session/rest/extend", `{"seconds":0}`); rec.Code != http.StatusBadRequest {
		t.Errorf("zero extend status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/session/rest/skip", "")
	if st := decode[workout.State](t, rec); st.IsRestMode {
		t.Error("still resting after skip")
	}

	rec = env.do(t, http.MethodPost, "/api/v1/session/sets/complete", "")
	st = decode[workout.State](t, rec)
	if st.CurrentSession != nil || st.Phase != workout.PhaseIdle {
		t.Fatalf("after last set = %+v", st)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/sessions", "")
	sessions := decode[[]models.WorkoutSession](t, rec)
	if len(sessions) != 1 || !sessions[0].Completed {
		t.Fatalf("sessions = %+v", sessions)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/stats", "")
	if stats := decode[models.WorkoutStats](t, rec); stats.TotalWeight != 320 || stats.TotalWorkouts != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

// TestSessionErrors maps controller errors to status codes.
func TestSessionErrors(t *testing.T) {
	env := newTestEnv(t, "")

	if rec := env.do(t, http.MethodPost, "/api/v1/session/sets/complete", ""); rec.Code != http.StatusConflict {
		t.Errorf("complete set idle status = %d, want 409", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/session/finish", ""); rec.Code != http.StatusConflict {
		t.Errorf("finish idle status = %d, want 409", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/session/start", `{"sets":11}`); rec.Code != http.StatusBadRequest {
		t.Errorf("start with 11 sets status = %d, want 400", rec.Code)
	}
	if rec := env.do(t, http.MethodPatch, "/api/v1/session/config", `{"reps":0}`); rec.Code != http.StatusBadRequest {
		t.Errorf("config reps 0 status = %d, want 400", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/session/start", `{bad`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d, want 400", rec.Code)
	}
}

// TestCompleteExerciseAndFinish appends a free-form exercise before finishing.
func TestCompleteExerciseAndFinish(t *testing.T) {
	env := newTestEnv(t, "")

	env.do(t, http.MethodPost, "/api/v1/session/start", "")
	rec := env.do(t, http.MethodPost, "/api/v1/session/exercises",
		`{"name":"Goblet Squat","type":"strength","sets":3,"reps":8,"weight":24,"actualSets":3,"actualReps":8,"actualWeight":24,"completed":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete exercise status = %d, body %s", rec.Code, rec.Body)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/session/finish", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("finish status = %d, body %s", rec.Code, rec.Body)
	}
	saved := decode[models.WorkoutSession](t, rec)
	if saved.TotalWeight() != 576 || !saved.Completed {
		t.Errorf("saved = %+v", saved)
	}

	env.do(t, http.MethodPost, "/api/v1/session/start", "")
	if rec := env.do(t, http.MethodDelete, "/api/v1/session", ""); rec.Code != http.StatusNoContent {
		t.Errorf("clear status = %d", rec.Code)
	}
	if env.ctrl.Phase() != workout.PhaseIdle {
		t.Error("session not cleared")
	}
}

// TestAPIKeyGuard verifies destructive routes need the configured key.
func TestAPIKeyGuard(t *testing.T) {
	env := newTestEnv(t, "secret")

	if rec := env.do(t, http.MethodDelete, "/api/v1/data?confirm=true", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key status = %d, want 401", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/v1/data?confirm=true", "", "X-API-Key", "wrong"); rec.Code != http.StatusForbidden {
		t.Errorf("wrong key status = %d, want 403", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/v1/data", "", "X-API-Key", "secret"); rec.Code != http.StatusBadRequest {
		t.Errorf("unconfirmed clear status = %d, want 400", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/api/v1/data?confirm=true", "", "X-API-Key", "secret"); rec.Code != http.StatusNoContent {
		t.Errorf("confirmed clear status = %d, want 204", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/state", ""); rec.Code != http.StatusOK {
		t.Errorf("read route status = %d, want 200 without key", rec.Code)
	}
}

// TestSettingsHandlers covers reads, typed writes and the sound toggle.
func TestSettingsHandlers(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodGet, "/api/v1/settings", "")
	if s := decode[models.Settings](t, rec); s.Theme != "dark" || s.StepGoal != 10000 {
		t.Errorf("settings = %+v", s)
	}

	if rec := env.do(t, http.MethodPut, "/api/v1/settings/theme", `"light"`); rec.Code != http.StatusOK {
		t.Errorf("put theme status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPut, "/api/v1/settings/soundEnabled", `false`); rec.Code != http.StatusOK {
		t.Errorf("put sound status = %d", rec.Code)
	}
	if env.hub.Enabled() {
		t.Error("hub still enabled after soundEnabled=false")
	}
	if rec := env.do(t, http.MethodPut, "/api/v1/settings/defaultReps", `"many"`); rec.Code != http.StatusBadRequest {
		t.Errorf("mistyped value status = %d, want 400", rec.Code)
	}
	if rec := env.do(t, http.MethodPut, "/api/v1/settings/fontSize", `12`); rec.Code != http.StatusNotFound {
		t.Errorf("unknown key status = %d, want 404", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/settings", "")
	if s := decode[models.Settings](t, rec); s.Theme != "light" || s.SoundEnabled {
		t.Errorf("settings after update = %+v", s)
	}
}

// TestStepsHandlers accumulates steps and updates the goal.
func TestStepsHandlers(t *testing.T) {
	env := newTestEnv(t, "")

	env.do(t, http.MethodPost, "/api/v1/steps", `{"day":"2024-03-01","steps":1200}`)
	rec := env.do(t, http.MethodPost, "/api/v1/steps", `{"day":"2024-03-01","steps":300}`)
	if got := decode[stepsResponse](t, rec); got.Steps != 1500 || got.Goal != 10000 {
		t.Errorf("steps = %+v", got)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/steps", `{"steps":-5}`); rec.Code != http.StatusBadRequest {
		t.Errorf("negative steps status = %d", rec.Code)
	}

	if rec := env.do(t, http.MethodPut, "/api/v1/steps/goal", `{"goal":8000}`); rec.Code != http.StatusOK {
		t.Errorf("goal status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/v1/steps?day=2024-03-01", "")
	if got := decode[stepsResponse](t, rec); got.Steps != 1500 || got.Goal != 8000 {
		t.Errorf("steps = %+v", got)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/steps?day=March", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad day status = %d", rec.Code)
	}
}

// TestExportImportHandlers round-trips history through the data routes.
func TestExportImportHandlers(t *testing.T) {
	env := newTestEnv(t, "")

	if rec := env.do(t, http.MethodGet, "/api/v1/export", ""); rec.Code != http.StatusNotFound {
		t.Errorf("empty export status = %d, want 404", rec.Code)
	}

	env.do(t, http.MethodPost, "/api/v1/session/start", `{"sets":1}`)
	env.do(t, http.MethodPost, "/api/v1/session/sets/complete", "")

	rec := env.do(t, http.MethodGet, "/api/v1/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "kettlebell-workout-data-") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	exported := rec.Body.String()

	rec = env.do(t, http.MethodPost, "/api/v1/import", exported)
	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d, body %s", rec.Code, rec.Body)
	}
	if res := decode[transfer.Result](t, rec); res.WorkoutsInserted != 1 {
		t.Errorf("result = %+v", res)
	}
	if st := env.ctrl.Snapshot(); len(st.RecentSessions) != 2 {
		t.Errorf("recent sessions after import = %d, want 2", len(st.RecentSessions))
	}

	if rec := env.do(t, http.MethodPost, "/api/v1/import", `{"hello":"world"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid import status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/import-logs", "")
	if logs := decode[[]storage.ImportLog](t, rec); len(logs) != 2 {
		t.Errorf("import logs = %d, want 2", len(logs))
	}
}

// TestCalendarHandler validates the month parameter.
func TestCalendarHandler(t *testing.T) {
	env := newTestEnv(t, "")
	if rec := env.do(t, http.MethodGet, "/api/v1/calendar?month=2024-13", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad month status = %d", rec.Code)
	}
	rec := env.do(t, http.MethodGet, "/api/v1/calendar?month=2024-02", "")
	got := decode[struct {
		Month string                `json:"month"`
		Days  []storage.CalendarDay `json:"days"`
	}](t, rec)
	if got.Month != "2024-02" || len(got.Days) != 29 {
		t.Errorf("calendar = %s with %d days", got.Month, len(got.Days))
	}
}

// TestEventsStream verifies cues reach an SSE client.
func TestEventsStream(t *testing.T) {
	env := newTestEnv(t, "")
	ts := httptest.NewServer(env.srv)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/session/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	if line, _ := reader.ReadString('\n'); line != ": connected\n" {
		t.Fatalf("first line = %q", line)
	}
	reader.ReadString('\n')

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.Subscribers() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	env.hub.Play(cues.Warning)

	if line, _ := reader.ReadString('\n'); line != "event: cue\n" {
		t.Fatalf("event line = %q", line)
	}
	data, _ := reader.ReadString('\n')
	if !strings.HasPrefix(data, "data: ") || !strings.Contains(data, `"cue":"warning"`) {
		t.Errorf("data line = %q", data)
	}
}
