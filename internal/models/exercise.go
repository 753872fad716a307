package models

import (
	"strings"
)

// Category is the kind of movement an exercise trains.
type Category string

// Exercise categories.
const (
	CategoryStrength Category = "strength"
	CategoryCardio   Category = "cardio"
	CategoryMobility Category = "mobility"
	CategoryYoga     Category = "yoga"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryStrength, CategoryCardio, CategoryMobility, CategoryYoga:
		return true
	}
	return false
}

// NormalizeCategory maps loosely written category names ("Strength", " YOGA ")
// to their canonical form. Unknown names are returned lowercased and trimmed.
func NormalizeCategory(s string) Category {
	return Category(strings.ToLower(strings.TrimSpace(s)))
}

// Exercise is a prescribed movement inside a plan or a quick workout.
type Exercise struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Type         Category `json:"type"`
	Sets         int      `json:"sets"`
	Reps         int      `json:"reps"`
	Weight       float64  `json:"weight"`
	RestInterval int      `json:"restInterval"` // seconds
	Notes        string   `json:"notes"`
}

// IsBodyweight reports whether the exercise is done without a kettlebell.
func (e Exercise) IsBodyweight() bool {
	return e.Weight == 0
}

// Validate checks the prescription fields of an exercise.
func (e Exercise) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return invalidf("exercise name is required")
	}
	if !e.Type.Valid() {
		return invalidf("exercise %q: unknown type %q", e.Name, e.Type)
	}
	if e.Sets < 0 || e.Reps < 0 {
		return invalidf("exercise %q: sets and reps must not be negative", e.Name)
	}
	if e.Weight < 0 {
		return invalidf("exercise %q: weight must not be negative", e.Name)
	}
	if e.RestInterval < 0 {
		return invalidf("exercise %q: rest interval must not be negative", e.Name)
	}
	return nil
}

// CompletedExercise is an exercise as it was actually performed in a session.
type CompletedExercise struct {
	Exercise
	ActualSets   int     `json:"actualSets"`
	ActualReps   int     `json:"actualReps"`
	ActualWeight float64 `json:"actualWeight"`
	Completed    bool    `json:"completed"`
}

// Volume returns the weight moved: actual weight x sets x reps.
func (c CompletedExercise) Volume() float64 {
	return c.ActualWeight * float64(c.ActualSets) * float64(c.ActualReps)
}
