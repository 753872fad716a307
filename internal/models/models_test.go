package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

// TestCompletedExerciseVolume verifies volume = weight x sets x reps.
func TestCompletedExerciseVolume(t *testing.T) {
	ex := CompletedExercise{ActualWeight: 24, ActualSets: 3, ActualReps: 15}
	if got := ex.Volume(); got != 1080 {
		t.Errorf("Volume() = %v, want 1080", got)
	}

	s := WorkoutSession{Exercises: []CompletedExercise{
		ex,
		{ActualWeight: 16, ActualSets: 2, ActualReps: 5},
		{ActualWeight: 0, ActualSets: 3, ActualReps: 20},
	}}
	if got := s.TotalWeight(); got != 1240 {
		t.Errorf("TotalWeight() = %v, want 1240", got)
	}
}

// TestWorkoutConfigValidate checks the configure dialog limits.
func TestWorkoutConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WorkoutConfig)
		wantErr bool
	}{
		{name: "default", mutate: func(*WorkoutConfig) {}},
		{name: "no exercise", mutate: func(c *WorkoutConfig) { c.Exercise = " " }, wantErr: true},
		{name: "zero reps", mutate: func(c *WorkoutConfig) { c.Reps = 0 }, wantErr: true},
		{name: "too many reps", mutate: func(c *WorkoutConfig) { c.Reps = 51 }, wantErr: true},
		{name: "zero sets", mutate: func(c *WorkoutConfig) { c.Sets = 0 }, wantErr: true},
		{name: "eleven sets", mutate: func(c *WorkoutConfig) { c.Sets = 11 }, wantErr: true},
		{name: "negative rest", mutate: func(c *WorkoutConfig) { c.RestTime = -1 }, wantErr: true},
		{name: "no rest", mutate: func(c *WorkoutConfig) { c.RestTime = 0 }},
		{name: "negative weight", mutate: func(c *WorkoutConfig) { c.Weight = -4 }, wantErr: true},
		{name: "bodyweight ignores weight", mutate: func(c *WorkoutConfig) { c.IsBodyweight = true; c.Weight = -4 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultWorkoutConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("expected error for %+v", cfg)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// TestCompletedFromBodyweightConfig verifies bodyweight workouts record zero load.
func TestCompletedFromBodyweightConfig(t *testing.T) {
	cfg := WorkoutConfig{Exercise: "Squat", IsBodyweight: true, Weight: 24, Reps: 20, Sets: 4, RestTime: 45}
	done := cfg.Completed("ex-1")
	if done.ActualWeight != 0 || done.Weight != 0 {
		t.Errorf("weights = %v/%v, want 0/0", done.Weight, done.ActualWeight)
	}
	if done.ActualSets != 4 || done.ActualReps != 20 || !done.Completed {
		t.Errorf("unexpected completed exercise %+v", done)
	}
	if done.Type != CategoryStrength || done.RestInterval != 45 {
		t.Errorf("type/rest = %q/%d", done.Type, done.RestInterval)
	}
}

// TestConfigFromExercise maps plan exercises onto a quick-workout config.
func TestConfigFromExercise(t *testing.T) {
	cfg := ConfigFromExercise(Exercise{Name: "Hip Circles", Type: CategoryMobility, Sets: 2, Reps: 10, RestInterval: 30})
	if !cfg.IsBodyweight {
		t.Error("zero-weight exercise should start as bodyweight")
	}
	if cfg.Exercise != "Hip Circles" || cfg.Sets != 2 || cfg.Reps != 10 || cfg.RestTime != 30 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

// TestConfigPatchApply verifies only set fields change.
func TestConfigPatchApply(t *testing.T) {
	reps := 15
	body := true
	got := ConfigPatch{Reps: &reps, IsBodyweight: &body}.Apply(DefaultWorkoutConfig())
	want := DefaultWorkoutConfig()
	want.Reps = 15
	want.IsBodyweight = true
	if got != want {
		t.Errorf("Apply = %+v, want %+v", got, want)
	}
}

// TestPlanUpdateApply verifies partial updates and validation of the result.
func TestPlanUpdateApply(t *testing.T) {
	plan := WorkoutPlan{
		ID:        "p1",
		Name:      "Quick Kettlebell Workout",
		Frequency: FrequencyDaily,
		Exercises: []Exercise{{ID: "e1", Name: "Swing", Type: CategoryStrength, Sets: 3, Reps: 15, Weight: 24}},
	}

	name := "Renamed"
	updated, err := PlanUpdate{Name: &name}.Apply(plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "Renamed" || len(updated.Exercises) != 1 {
		t.Errorf("unexpected plan %+v", updated)
	}
	if plan.Name != "Quick Kettlebell Workout" {
		t.Error("Apply mutated the original plan")
	}

	bad := Frequency("hourly")
	if _, err := (PlanUpdate{Frequency: &bad}).Apply(plan); err == nil {
		t.Error("expected error for unknown frequency")
	}

	empty := []Exercise{}
	cleared, err := PlanUpdate{Exercises: &empty}.Apply(plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cleared.Exercises) != 0 {
		t.Errorf("exercises = %d, want 0", len(cleared.Exercises))
	}
}

// TestFrequencyLabel checks how plan cadence is rendered.
func TestFrequencyLabel(t *testing.T) {
	tests := []struct {
		f    Frequency
		n    int
		want string
	}{
		{FrequencyDaily, 7, "Daily"},
		{FrequencyWeekly, 3, "3x per week"},
		{FrequencyMonthly, 0, "Monthly"},
		{FrequencyQuarterly, 0, "Quarterly"},
		{Frequency("custom"), 0, "custom"},
	}
	for _, tt := range tests {
		if got := tt.f.Label(tt.n); got != tt.want {
			t.Errorf("Label(%q, %d) = %q, want %q", tt.f, tt.n, got, tt.want)
		}
	}
}

// TestGoalProgress verifies progress is clamped.
func TestGoalProgress(t *testing.T) {
	tests := []struct {
		g    Goal
		want float64
	}{
		{Goal{Target: 1000, Achieved: 250}, 0.25},
		{Goal{Target: 10, Achieved: 30}, 1},
		{Goal{Target: 0, Achieved: 5}, 0},
	}
	for _, tt := range tests {
		if got := tt.g.Progress(); got != tt.want {
			t.Errorf("Progress(%+v) = %v, want %v", tt.g, got, tt.want)
		}
	}
}

// TestNormalizeCategory accepts loosely typed category names.
func TestNormalizeCategory(t *testing.T) {
	if got := NormalizeCategory(" Yoga "); got != CategoryYoga {
		t.Errorf("NormalizeCategory = %q, want yoga", got)
	}
	if NormalizeCategory("pilates").Valid() {
		t.Error("pilates should not be a valid category")
	}
}

// TestSettingsFromMap decodes stored JSON values over the defaults.
func TestSettingsFromMap(t *testing.T) {
	raw := map[string]json.RawMessage{
		SettingTheme:        json.RawMessage(`"light"`),
		SettingDefaultReps:  json.RawMessage(`12`),
		SettingSoundEnabled: json.RawMessage(`false`),
		"unknown":           json.RawMessage(`{}`),
	}
	s, err := SettingsFromMap(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Theme != "light" || s.DefaultReps != 12 || s.SoundEnabled {
		t.Errorf("unexpected settings %+v", s)
	}
	if s.DefaultSets != 3 || s.StepGoal != 10000 {
		t.Errorf("defaults lost: %+v", s)
	}

	cfg := s.WorkoutConfig()
	if cfg.Reps != 12 || cfg.Exercise != "Swing" {
		t.Errorf("WorkoutConfig = %+v", cfg)
	}

	if _, err := SettingsFromMap(map[string]json.RawMessage{SettingDefaultSets: json.RawMessage(`"three"`)}); err == nil {
		t.Error("expected error for mistyped setting")
	}
}

// TestValidationErrorsMatchErrInvalid verifies every validator's error wraps ErrInvalid.
func TestValidationErrorsMatchErrInvalid(t *testing.T) {
	cfg := DefaultWorkoutConfig()
	cfg.Sets = 0
	errs := []error{
		cfg.Validate(),
		Exercise{Name: "Swing", Type: "juggling"}.Validate(),
		PlanInput{Name: "", Frequency: FrequencyDaily}.Validate(),
	}
	for i, err := range errs {
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("error %d = %v, want ErrInvalid", i, err)
		}
	}
	wrapped := fmt.Errorf("starting: %w", errs[0])
	if !errors.Is(wrapped, ErrInvalid) {
		t.Error("wrapped validation error lost ErrInvalid")
	}
	if errs[0].Error() != "sets must be between 1 and 10" {
		t.Errorf("message = %q", errs[0].Error())
	}
}
