package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/claude/kettlebell/internal/models"
	"github.com/go-chi/chi/v5"
)

// maxSettingBody bounds a single setting value.
const maxSettingBody = 4 << 10

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.db.LoadSettings(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handlePutSetting stores the raw JSON request body as the value of key.
func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !models.KnownSetting(key) {
		writeError(w, http.StatusNotFound, "unknown setting "+key)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSettingBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	raw := json.RawMessage(body)
	if !json.Valid(raw) {
		writeError(w, http.StatusBadRequest, "setting value must be JSON")
		return
	}
	typed, err := models.SettingsFromMap(map[string]json.RawMessage{key: raw})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.db.SetSetting(r.Context(), key, raw); err != nil {
		s.fail(w, err)
		return
	}
	if key == models.SettingSoundEnabled {
		s.hub.SetEnabled(typed.SoundEnabled)
	}
	writeJSON(w, http.StatusOK, map[string]json.RawMessage{key: raw})
}

type stepsResponse struct {
	Day   string `json:"day"`
	Steps int64  `json:"steps"`
	Goal  int    `json:"goal"`
}

func (s *Server) today() string {
	return s.now().In(s.db.Location()).Format("2006-01-02")
}

func validDay(day string) bool {
	_, err := time.Parse("2006-01-02", day)
	return err == nil
}

func (s *Server) stepsFor(w http.ResponseWriter, r *http.Request, day string, steps int64) {
	settings, err := s.db.LoadSettings(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stepsResponse{Day: day, Steps: steps, Goal: settings.StepGoal})
}

func (s *Server) handleGetSteps(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("day")
	if day == "" {
		day = s.today()
	}
	if !validDay(day) {
		writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}
	steps, err := s.db.GetSteps(r.Context(), day)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.stepsFor(w, r, day, steps)
}

func (s *Server) handleAddSteps(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Day   string `json:"day"`
		Steps int64  `json:"steps"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Steps <= 0 {
		writeError(w, http.StatusBadRequest, "steps must be positive")
		return
	}
	if req.Day == "" {
		req.Day = s.today()
	}
	if !validDay(req.Day) {
		writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}
	total, err := s.db.AddSteps(r.Context(), req.Day, req.Steps)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.stepsFor(w, r, req.Day, total)
}

func (s *Server) handleSetStepGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Goal int `json:"goal"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Goal <= 0 {
		writeError(w, http.StatusBadRequest, "goal must be positive")
		return
	}
	if err := s.db.SetSetting(r.Context(), models.SettingStepGoal, req.Goal); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"goal": req.Goal})
}
