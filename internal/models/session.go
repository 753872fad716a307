package models

import (
	"strings"
	"time"
)

// WorkoutSession is one timed execution of a workout.
type WorkoutSession struct {
	ID        string              `json:"id"`
	PlanID    string              `json:"planId"`
	Date      time.Time           `json:"date"`
	Exercises []CompletedExercise `json:"exercises"`
	Duration  int64               `json:"duration"` // milliseconds
	Notes     string              `json:"notes"`
	Completed bool                `json:"completed"`
}

// TotalWeight sums the volume of every exercise in the session.
func (s WorkoutSession) TotalWeight() float64 {
	var total float64
	for _, e := range s.Exercises {
		total += e.Volume()
	}
	return total
}

// Clone returns a deep copy so callers can't mutate the exercise list.
func (s WorkoutSession) Clone() WorkoutSession {
	s.Exercises = append([]CompletedExercise(nil), s.Exercises...)
	return s
}

// Limits of the configure-workout dialog.
const (
	MinReps     = 1
	MaxReps     = 50
	MinSets     = 1
	MaxSets     = 10
	MaxRestTime = 600
)

// WorkoutConfig describes the quick workout being configured or run.
type WorkoutConfig struct {
	Exercise     string  `json:"exercise"`
	IsBodyweight bool    `json:"isBodyweight"`
	Weight       float64 `json:"weight"`
	Reps         int     `json:"reps"`
	Sets         int     `json:"sets"`
	RestTime     int     `json:"restTime"` // seconds
}

// DefaultWorkoutConfig is the configuration a fresh install starts with.
func DefaultWorkoutConfig() WorkoutConfig {
	return WorkoutConfig{
		Exercise: "Swing",
		Weight:   24,
		Reps:     10,
		Sets:     3,
		RestTime: 60,
	}
}

// EffectiveWeight is the load actually lifted: zero for bodyweight work.
func (c WorkoutConfig) EffectiveWeight() float64 {
	if c.IsBodyweight {
		return 0
	}
	return c.Weight
}

// Validate checks the configuration against the dialog limits.
func (c WorkoutConfig) Validate() error {
	if strings.TrimSpace(c.Exercise) == "" {
		return invalidf("exercise is required")
	}
	if c.Reps < MinReps || c.Reps > MaxReps {
		return invalidf("reps must be between %d and %d", MinReps, MaxReps)
	}
	if c.Sets < MinSets || c.Sets > MaxSets {
		return invalidf("sets must be between %d and %d", MinSets, MaxSets)
	}
	if c.RestTime < 0 || c.RestTime > MaxRestTime {
		return invalidf("rest time must be between 0 and %d seconds", MaxRestTime)
	}
	if !c.IsBodyweight && c.Weight < 0 {
		return invalidf("weight must not be negative")
	}
	return nil
}

// ToExercise builds the prescribed exercise for this configuration.
func (c WorkoutConfig) ToExercise(id string) Exercise {
	return Exercise{
		ID:           id,
		Name:         c.Exercise,
		Type:         CategoryStrength,
		Sets:         c.Sets,
		Reps:         c.Reps,
		Weight:       c.EffectiveWeight(),
		RestInterval: c.RestTime,
	}
}

// Completed builds the record of this configuration performed as prescribed.
func (c WorkoutConfig) Completed(id string) CompletedExercise {
	ex := c.ToExercise(id)
	return CompletedExercise{
		Exercise:     ex,
		ActualSets:   ex.Sets,
		ActualReps:   ex.Reps,
		ActualWeight: ex.Weight,
		Completed:    true,
	}
}

// ConfigFromExercise derives a quick-workout configuration from a plan exercise.
func ConfigFromExercise(e Exercise) WorkoutConfig {
	return WorkoutConfig{
		Exercise:     e.Name,
		IsBodyweight: e.IsBodyweight(),
		Weight:       e.Weight,
		Reps:         e.Reps,
		Sets:         e.Sets,
		RestTime:     e.RestInterval,
	}
}

// ConfigPatch is a partial update of a WorkoutConfig.
type ConfigPatch struct {
	Exercise     *string  `json:"exercise,omitempty"`
	IsBodyweight *bool    `json:"isBodyweight,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	Reps         *int     `json:"reps,omitempty"`
	Sets         *int     `json:"sets,omitempty"`
	RestTime     *int     `json:"restTime,omitempty"`
}

// Apply returns cfg with the non-nil patch fields applied.
func (p ConfigPatch) Apply(cfg WorkoutConfig) WorkoutConfig {
	if p.Exercise != nil {
		cfg.Exercise = *p.Exercise
	}
	if p.IsBodyweight != nil {
		cfg.IsBodyweight = *p.IsBodyweight
	}
	if p.Weight != nil {
		cfg.Weight = *p.Weight
	}
	if p.Reps != nil {
		cfg.Reps = *p.Reps
	}
	if p.Sets != nil {
		cfg.Sets = *p.Sets
	}
	if p.RestTime != nil {
		cfg.RestTime = *p.RestTime
	}
	return cfg
}
