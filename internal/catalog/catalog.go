// Package catalog holds the built-in exercise list, kettlebell sizes and
// quick-plan templates.
package catalog

import (
	"fmt"
	"math/rand/v2"

	"github.com/claude/kettlebell/internal/models"
	"github.com/google/uuid"
)

// Group lists the selectable exercises of one category.
type Group struct {
	Category  models.Category `json:"category"`
	Exercises []string        `json:"exercises"`
}

var groups = []Group{
	{Category: models.CategoryStrength, Exercises: []string{
		"Swing", "Clean", "Press", "Snatch", "Turkish Get-Up", "Deadlift",
		"Squat", "Goblet Squat", "Single-Arm Row", "Overhead Carry",
	}},
	{Category: models.CategoryMobility, Exercises: []string{
		"Hip Circles", "Leg Swings", "Arm Circles", "Shoulder Rolls", "Neck Stretches",
		"Cat-Cow Stretch", "Hip Flexor Stretch", "Hamstring Stretch", "Quad Stretch", "Calf Stretch",
	}},
	{Category: models.CategoryYoga, Exercises: []string{
		"Downward Dog", "Warrior I", "Warrior II", "Tree Pose", "Child's Pose", "Cobra Pose",
		"Pigeon Pose", "Bridge Pose", "Triangle Pose", "Mountain Pose", "Sun Salutation",
		"Seated Forward Fold", "Corpse Pose",
	}},
}

var weights = []float64{12, 16, 24, 32, 40}

// Options returns the exercise options grouped by category.
func Options() []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = Group{Category: g.Category, Exercises: append([]string(nil), g.Exercises...)}
	}
	return out
}

// Weights returns the selectable kettlebell sizes in kg.
func Weights() []float64 {
	return append([]float64(nil), weights...)
}

// CategoryOf returns the category an exercise name is listed under.
// Unknown names are treated as strength work.
func CategoryOf(name string) models.Category {
	for _, g := range groups {
		for _, e := range g.Exercises {
			if e == name {
				return g.Category
			}
		}
	}
	return models.CategoryStrength
}

// Quick-plan kinds.
const (
	KindStrength = "strength"
	KindMobility = "mobility"
	KindYoga     = "yoga"
)

// Kinds lists the quick-plan templates.
var Kinds = []string{KindStrength, KindMobility, KindYoga}

// QuickPlan returns the template for kind. An empty kind picks one at random.
func QuickPlan(kind string) (models.PlanInput, error) {
	if kind == "" {
		kind = Kinds[rand.IntN(len(Kinds))]
	}
	switch kind {
	case KindStrength:
		return models.PlanInput{
			Name:         "Quick Kettlebell Workout",
			Description:  "A simple kettlebell workout for daily training",
			Frequency:    models.FrequencyDaily,
			TimesPerWeek: 5,
			Exercises: []models.Exercise{
				exercise("Kettlebell Swing", models.CategoryStrength, 3, 15, 24, 60, "Focus on hip hinge movement"),
				exercise("Turkish Get-Up", models.CategoryStrength, 2, 5, 16, 90, "Perform slowly with control"),
			},
			Goals: []models.Goal{goal(1000, models.GoalWeight)},
		}, nil
	case KindMobility:
		return models.PlanInput{
			Name:         "Daily Mobility Routine",
			Description:  "A gentle mobility routine to improve flexibility and movement",
			Frequency:    models.FrequencyDaily,
			TimesPerWeek: 7,
			Exercises: []models.Exercise{
				exercise("Hip Circles", models.CategoryMobility, 2, 10, 0, 30, "Slow controlled circles in both directions"),
				exercise("Cat-Cow Stretch", models.CategoryMobility, 1, 15, 0, 30, "Focus on spinal movement"),
				exercise("Hip Flexor Stretch", models.CategoryMobility, 2, 30, 0, 30, "Hold for 30 seconds each side"),
			},
			Goals: []models.Goal{goal(30, models.GoalDuration)},
		}, nil
	case KindYoga:
		return models.PlanInput{
			Name:         "Morning Yoga Flow",
			Description:  "A calming yoga sequence to start your day",
			Frequency:    models.FrequencyDaily,
			TimesPerWeek: 5,
			Exercises: []models.Exercise{
				exercise("Sun Salutation", models.CategoryYoga, 3, 1, 0, 60, "Flow through the complete sequence"),
				exercise("Warrior II", models.CategoryYoga, 2, 1, 0, 30, "Hold for 30 seconds each side"),
				exercise("Child's Pose", models.CategoryYoga, 1, 1, 0, 0, "Rest and breathe deeply"),
			},
			Goals: []models.Goal{goal(20, models.GoalDuration)},
		}, nil
	}
	return models.PlanInput{}, fmt.Errorf("unknown quick plan kind %q", kind)
}

// Clone copies plan under a new name with fresh ids and goal progress reset.
func Clone(plan models.WorkoutPlan) models.PlanInput {
	in := plan.Input()
	in.Name = plan.Name + " (Copy)"
	in.Exercises = make([]models.Exercise, len(plan.Exercises))
	for i, e := range plan.Exercises {
		e.ID = uuid.NewString()
		in.Exercises[i] = e
	}
	in.Goals = make([]models.Goal, len(plan.Goals))
	for i, g := range plan.Goals {
		g.ID = uuid.NewString()
		g.Achieved = 0
		in.Goals[i] = g
	}
	return in
}

func exercise(name string, typ models.Category, sets, reps int, weight float64, rest int, notes string) models.Exercise {
	return models.Exercise{
		ID:           uuid.NewString(),
		Name:         name,
		Type:         typ,
		Sets:         sets,
		Reps:         reps,
		Weight:       weight,
		RestInterval: rest,
		Notes:        notes,
	}
}

func goal(target float64, typ models.GoalType) models.Goal {
	return models.Goal{ID: uuid.NewString(), Target: target, Type: typ}
}
