package catalog

import (
	"testing"
	"time"

	"github.com/claude/kettlebell/internal/models"
)

// TestQuickPlans verifies every template is a valid plan.
func TestQuickPlans(t *testing.T) {
	want := map[string]string{
		KindStrength: "Quick Kettlebell Workout",
		KindMobility: "Daily Mobility Routine",
		KindYoga:     "Morning Yoga Flow",
	}
	for kind, name := range want {
		t.Run(kind, func(t *testing.T) {
			in, err := QuickPlan(kind)
			if err != nil {
				t.Fatalf("QuickPlan: %v", err)
			}
			if in.Name != name {
				t.Errorf("name = %q, want %q", in.Name, name)
			}
			if err := in.Validate(); err != nil {
				t.Errorf("template invalid: %v", err)
			}
			if len(in.Exercises) == 0 || len(in.Goals) != 1 {
				t.Errorf("exercises=%d goals=%d", len(in.Exercises), len(in.Goals))
			}
		})
	}
}

// TestQuickPlanRandom always yields one of the known templates.
func TestQuickPlanRandom(t *testing.T) {
	for i := 0; i < 20; i++ {
		in, err := QuickPlan("")
		if err != nil {
			t.Fatalf("QuickPlan: %v", err)
		}
		if in.Frequency != models.FrequencyDaily {
			t.Errorf("frequency = %q", in.Frequency)
		}
	}
	if _, err := QuickPlan("pilates"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

// TestClone resets goal progress and assigns new ids.
func TestClone(t *testing.T) {
	plan := models.WorkoutPlan{
		ID:           "p1",
		Name:         "Strength",
		Description:  "heavy",
		Frequency:    models.FrequencyWeekly,
		TimesPerWeek: 3,
		Exercises:    []models.Exercise{{ID: "e1", Name: "Swing", Type: models.CategoryStrength, Sets: 3, Reps: 10, Weight: 24}},
		Goals:        []models.Goal{{ID: "g1", Target: 1000, Achieved: 640, Type: models.GoalWeight}},
		CreatedAt:    time.Now(),
	}
	in := Clone(plan)
	if in.Name != "Strength (Copy)" || in.TimesPerWeek != 3 || in.Description != "heavy" {
		t.Errorf("clone = %+v", in)
	}
	if in.Exercises[0].ID == "e1" || in.Goals[0].ID == "g1" {
		t.Error("ids were not refreshed")
	}
	if in.Goals[0].Achieved != 0 || in.Goals[0].Target != 1000 {
		t.Errorf("goal = %+v", in.Goals[0])
	}
	if plan.Goals[0].Achieved != 640 || plan.Exercises[0].ID != "e1" {
		t.Error("source plan was modified")
	}
}

// TestCatalogLists checks option grouping and returned copies.
func TestCatalogLists(t *testing.T) {
	opts := Options()
	if len(opts) != 3 || opts[0].Category != models.CategoryStrength || opts[0].Exercises[0] != "Swing" {
		t.Errorf("options = %+v", opts)
	}
	opts[0].Exercises[0] = "changed"
	if Options()[0].Exercises[0] != "Swing" {
		t.Error("Options returned shared storage")
	}

	w := Weights()
	if len(w) != 5 || w[0] != 12 || w[4] != 40 {
		t.Errorf("weights = %v", w)
	}

	if CategoryOf("Warrior II") != models.CategoryYoga || CategoryOf("Unknown") != models.CategoryStrength {
		t.Error("CategoryOf mismatch")
	}
}
