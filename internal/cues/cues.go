// Package cues carries the audible signals a workout emits. Playback itself
// happens in the client; the server only publishes which cue to play.
package cues

import (
	"log/slog"
	"sync"
	"time"
)

// Cue names a sound the client should play.
type Cue string

const (
	SetComplete     Cue = "set_complete"
	WorkoutComplete Cue = "workout_complete"
	Warning         Cue = "warning"
	CountdownBeep   Cue = "countdown_beep"
	TimerEnd        Cue = "timer_end"
)

// Player receives cues from the workout controller.
type Player interface {
	Play(Cue)
}

// Nop discards every cue.
type Nop struct{}

// Play implements Player.
func (Nop) Play(Cue) {}

// Event is a cue stamped with the time it was emitted.
type Event struct {
	Cue Cue       `json:"cue"`
	At  time.Time `json:"at"`
}

// Hub fans cues out to subscribers. Slow subscribers lose events rather than
// blocking the workout.
type Hub struct {
	log *slog.Logger

	mu      sync.Mutex
	enabled bool
	nextID  int
	subs    map[int]chan Event
	now     func() time.Time
}

// NewHub creates a hub with sound enabled.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:     log,
		enabled: true,
		subs:    make(map[int]chan Event),
		now:     time.Now,
	}
}

// SetEnabled mirrors the soundEnabled setting. A disabled hub drops every cue.
func (h *Hub) SetEnabled(enabled bool) {
	h.mu.Lock()
	h.enabled = enabled
	h.mu.Unlock()
}

// Enabled reports whether cues are being delivered.
func (h *Hub) Enabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enabled
}

// Play implements Player.
func (h *Hub) Play(c Cue) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.enabled {
		h.log.Debug("cue muted", "cue", c)
		return
	}
	h.log.Debug("cue", "cue", c, "subscribers", len(h.subs))

	ev := Event{Cue: c, At: h.now()}
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.log.Warn("dropping cue for slow subscriber", "cue", c, "subscriber", id)
		}
	}
}

// Subscribe registers a listener with the given buffer size. The returned
// cancel func unregisters it and closes the channel; it is safe to call twice.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of active listeners.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Recorder is a Player that remembers every cue. Useful in tests.
type Recorder struct {
	mu   sync.Mutex
	cues []Cue
}

// Play implements Player.
func (r *Recorder) Play(c Cue) {
	r.mu.Lock()
	r.cues = append(r.cues, c)
	r.mu.Unlock()
}

// Cues returns a copy of the recorded cues.
func (r *Recorder) Cues() []Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Cue(nil), r.cues...)
}
