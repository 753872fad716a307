package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/claude/kettlebell/internal/models"
)

// eventBuffer is how many cues a slow SSE client may lag behind.
const eventBuffer = 16

// keepAlive is the interval of SSE comment pings.
var keepAlive = 25 * time.Second

func (s *Server) handleStartWorkout(w http.ResponseWriter, r *http.Request) {
	// Missing fields fall back to the configuration currently shown.
	cfg := s.ctrl.Snapshot().WorkoutConfig
	if err := decodeJSON(r, &cfg); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.ctrl.StartWorkout(cfg); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var patch models.ConfigPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg, err := s.ctrl.UpdateWorkoutConfig(patch)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.CompleteSet(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleStartRest(w http.ResponseWriter, r *http.Request) {
	s.ctrl.StartRest()
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleSkipRest(w http.ResponseWriter, r *http.Request) {
	s.ctrl.SkipRest()
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleExtendRest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seconds int `json:"seconds"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.ctrl.ExtendRest(req.Seconds); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleCompleteExercise(w http.ResponseWriter, r *http.Request) {
	var ex models.CompletedExercise
	if err := decodeJSON(r, &ex); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.ctrl.CompleteExercise(ex); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleFinishWorkout(w http.ResponseWriter, r *http.Request) {
	saved, err := s.ctrl.FinishWorkout(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	s.ctrl.ClearSession()
	w.WriteHeader(http.StatusNoContent)
}

// handleEvents streams audio cues as server-sent events until the client
// disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, cancel := s.hub.Subscribe(eventBuffer)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ping := time.NewTicker(keepAlive)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.log.Error("encoding cue event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: cue\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
