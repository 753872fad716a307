// Package stats derives workout statistics from session history.
package stats

import (
	"sort"
	"strconv"
	"time"

	"github.com/claude/kettlebell/internal/models"
)

// RecentDays is how far back the weight-over-time series reaches.
const RecentDays = 30

// Compute builds WorkoutStats from sessions. Only completed sessions count.
// Weekdays are evaluated in loc; series dates are UTC calendar days.
func Compute(sessions []models.WorkoutSession, now time.Time, loc *time.Location) *models.WorkoutStats {
	if loc == nil {
		loc = time.UTC
	}

	st := &models.WorkoutStats{
		WorkoutsByDay:  map[string]int{},
		WeightOverTime: []models.WeightPoint{},
	}

	weightCounts := map[float64]int{}
	cutoff := now.In(loc).AddDate(0, 0, -RecentDays)

	var recent []models.WorkoutSession
	for _, s := range sessions {
		if !s.Completed {
			continue
		}
		st.TotalWorkouts++
		st.TotalWeight += s.TotalWeight()
		for _, e := range s.Exercises {
			weightCounts[e.ActualWeight]++
		}
		st.WorkoutsByDay[s.Date.In(loc).Weekday().String()]++
		if !s.Date.Before(cutoff) {
			recent = append(recent, s)
		}
	}

	st.MostUsedWeight = MostUsed(weightCounts)
	st.PreferredKettlebell = FormatWeight(st.MostUsedWeight)

	sort.SliceStable(recent, func(i, j int) bool { return recent[i].Date.Before(recent[j].Date) })
	for _, s := range recent {
		st.WeightOverTime = append(st.WeightOverTime, models.WeightPoint{
			Date:   s.Date.UTC().Format("2006-01-02"),
			Weight: s.TotalWeight(),
		})
	}
	return st
}

// MostUsed returns the weight with the highest count. Ties go to the lowest
// weight; an empty map yields 0.
func MostUsed(counts map[float64]int) float64 {
	var best float64
	bestCount := 0
	for w, c := range counts {
		if c > bestCount || (c == bestCount && w < best) {
			best, bestCount = w, c
		}
	}
	return best
}

// FormatWeight renders a kettlebell weight like "24kg" or "12.5kg".
func FormatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64) + "kg"
}
