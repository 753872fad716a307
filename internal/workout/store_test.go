package workout

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/claude/kettlebell/internal/models"
	"github.com/claude/kettlebell/internal/stats"
	"github.com/google/uuid"
)

var errNotFound = errors.New("not found")

// memStore is an in-memory Store for controller tests.
type memStore struct {
	mu       sync.Mutex
	plans    map[string]models.WorkoutPlan
	sessions []models.WorkoutSession
	failNext error
}

func newMemStore() *memStore {
	return &memStore{plans: map[string]models.WorkoutPlan{}}
}

func (m *memStore) fail() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *memStore) ListPlans(ctx context.Context) ([]models.WorkoutPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	var out []models.WorkoutPlan
	for _, p := range m.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memStore) GetPlan(ctx context.Context, id string) (models.WorkoutPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return models.WorkoutPlan{}, errNotFound
	}
	return p, nil
}

func (m *memStore) CreatePlan(ctx context.Context, in models.PlanInput) (models.WorkoutPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return models.WorkoutPlan{}, err
	}
	now := time.Now()
	p := models.WorkoutPlan{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Description:  in.Description,
		Frequency:    in.Frequency,
		TimesPerWeek: in.TimesPerWeek,
		Exercises:    in.Exercises,
		Goals:        in.Goals,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.plans[p.ID] = p
	return p, nil
}

func (m *memStore) UpdatePlan(ctx context.Context, id string, upd models.PlanUpdate) (models.WorkoutPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return models.WorkoutPlan{}, errNotFound
	}
	p, err := upd.Apply(p)
	if err != nil {
		return models.WorkoutPlan{}, err
	}
	p.UpdatedAt = time.Now()
	m.plans[id] = p
	return p, nil
}

func (m *memStore) DeletePlan(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[id]; !ok {
		return errNotFound
	}
	delete(m.plans, id)
	kept := m.sessions[:0]
	for _, s := range m.sessions {
		if s.PlanID != id {
			kept = append(kept, s)
		}
	}
	m.sessions = kept
	return nil
}

func (m *memStore) CreateSession(ctx context.Context, s models.WorkoutSession) (models.WorkoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return models.WorkoutSession{}, err
	}
	s = s.Clone()
	s.ID = uuid.NewString()
	m.sessions = append(m.sessions, s)
	return s, nil
}

func (m *memStore) ListSessions(ctx context.Context, limit int) ([]models.WorkoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.WorkoutSession(nil), m.sessions...)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) GetStats(ctx context.Context, now time.Time) (*models.WorkoutStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return stats.Compute(m.sessions, now, time.UTC), nil
}

func (m *memStore) ClearAllData(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	m.plans = map[string]models.WorkoutPlan{}
	m.sessions = nil
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
