package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/claude/kettlebell/internal/catalog"
	"github.com/claude/kettlebell/internal/models"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.db.ListPlans(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.db.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var in models.PlanInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// A failed list reload still returns the saved plan.
	plan, err := s.ctrl.CreateWorkoutPlan(r.Context(), in)
	if err != nil && plan.ID == "" {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleQuickPlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind string `json:"kind"`
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := catalog.QuickPlan(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	plan, err := s.ctrl.CreateWorkoutPlan(r.Context(), in)
	if err != nil && plan.ID == "" {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	var upd models.PlanUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	plan, err := s.ctrl.UpdateWorkoutPlan(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil && plan.ID == "" {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.DeleteWorkoutPlan(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClonePlan(w http.ResponseWriter, r *http.Request) {
	src, err := s.db.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	plan, err := s.ctrl.CreateWorkoutPlan(r.Context(), catalog.Clone(src))
	if err != nil && plan.ID == "" {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handleStartPlan(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.StartPlanWorkout(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}
