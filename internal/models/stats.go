package models

// WorkoutStats is rebuilt from the session history on every read and never stored.
type WorkoutStats struct {
	TotalWeight         float64        `json:"totalWeight"`
	TotalWorkouts       int            `json:"totalWorkouts"`
	MostUsedWeight      float64        `json:"mostUsedWeight"`
	PreferredKettlebell string         `json:"preferredKettlebell"`
	WorkoutsByDay       map[string]int `json:"workoutsByDay"`
	WeightOverTime      []WeightPoint  `json:"weightOverTime"`
}

// WeightPoint is the volume lifted in one session, keyed by its UTC calendar date.
type WeightPoint struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
}
