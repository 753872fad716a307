package models

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is how often a plan is meant to be trained.
type Frequency string

// Plan frequencies.
const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly:
		return true
	}
	return false
}

// Label renders the frequency the way the plan list shows it.
func (f Frequency) Label(timesPerWeek int) string {
	switch f {
	case FrequencyDaily:
		return "Daily"
	case FrequencyWeekly:
		return fmt.Sprintf("%dx per week", timesPerWeek)
	case FrequencyMonthly:
		return "Monthly"
	case FrequencyQuarterly:
		return "Quarterly"
	}
	return string(f)
}

// GoalType is the unit a goal is measured in.
type GoalType string

// Goal types.
const (
	GoalWeight   GoalType = "weight"
	GoalReps     GoalType = "reps"
	GoalDuration GoalType = "duration"
)

// Valid reports whether g is one of the known goal types.
func (g GoalType) Valid() bool {
	switch g {
	case GoalWeight, GoalReps, GoalDuration:
		return true
	}
	return false
}

// Goal is an advisory target attached to a plan.
type Goal struct {
	ID       string   `json:"id"`
	Target   float64  `json:"target"`
	Achieved float64  `json:"achieved"`
	Type     GoalType `json:"type"`
}

// Progress returns achieved/target clamped to [0, 1].
func (g Goal) Progress() float64 {
	if g.Target <= 0 {
		return 0
	}
	p := g.Achieved / g.Target
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// WorkoutPlan is a reusable, named template of exercises and goals.
type WorkoutPlan struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Frequency    Frequency  `json:"frequency"`
	TimesPerWeek int        `json:"timesPerWeek"`
	Exercises    []Exercise `json:"exercises"`
	Goals        []Goal     `json:"goals"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// PlanInput is the payload for creating a plan. Ids and timestamps are assigned by storage.
type PlanInput struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Frequency    Frequency  `json:"frequency"`
	TimesPerWeek int        `json:"timesPerWeek"`
	Exercises    []Exercise `json:"exercises"`
	Goals        []Goal     `json:"goals"`
}

// Validate checks a plan before it is written.
func (p PlanInput) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalidf("plan name is required")
	}
	if !p.Frequency.Valid() {
		return invalidf("unknown frequency %q", p.Frequency)
	}
	if p.TimesPerWeek < 0 {
		return invalidf("timesPerWeek must not be negative")
	}
	for _, e := range p.Exercises {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	for _, g := range p.Goals {
		if !g.Type.Valid() {
			return invalidf("unknown goal type %q", g.Type)
		}
	}
	return nil
}

// PlanUpdate is a partial update. Nil fields are left unchanged; non-nil
// exercise or goal slices replace the existing lists.
type PlanUpdate struct {
	Name         *string     `json:"name,omitempty"`
	Description  *string     `json:"description,omitempty"`
	Frequency    *Frequency  `json:"frequency,omitempty"`
	TimesPerWeek *int        `json:"timesPerWeek,omitempty"`
	Exercises    *[]Exercise `json:"exercises,omitempty"`
	Goals        *[]Goal     `json:"goals,omitempty"`
}

// Apply returns a copy of plan with the update applied. The result is validated.
func (u PlanUpdate) Apply(plan WorkoutPlan) (WorkoutPlan, error) {
	if u.Name != nil {
		plan.Name = *u.Name
	}
	if u.Description != nil {
		plan.Description = *u.Description
	}
	if u.Frequency != nil {
		plan.Frequency = *u.Frequency
	}
	if u.TimesPerWeek != nil {
		plan.TimesPerWeek = *u.TimesPerWeek
	}
	if u.Exercises != nil {
		plan.Exercises = append([]Exercise(nil), (*u.Exercises)...)
	}
	if u.Goals != nil {
		plan.Goals = append([]Goal(nil), (*u.Goals)...)
	}
	err := plan.Input().Validate()
	return plan, err
}

// Input strips identity and timestamps from a plan.
func (p WorkoutPlan) Input() PlanInput {
	return PlanInput{
		Name:         p.Name,
		Description:  p.Description,
		Frequency:    p.Frequency,
		TimesPerWeek: p.TimesPerWeek,
		Exercises:    p.Exercises,
		Goals:        p.Goals,
	}
}
