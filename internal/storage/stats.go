package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/kettlebell/internal/models"
	"github.com/claude/kettlebell/internal/stats"
)

// GetStats derives workout statistics from every completed session.
func (db *DB) GetStats(ctx context.Context, now time.Time) (*models.WorkoutStats, error) {
	sessions, err := db.CompletedSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading sessions for stats: %w", err)
	}
	return stats.Compute(sessions, now, db.loc), nil
}

// CalendarDay summarizes the workouts on one local calendar day.
type CalendarDay struct {
	Date        string  `json:"date"`
	Workouts    int     `json:"workouts"`
	TotalWeight float64 `json:"totalWeight"`
}

// MonthCalendar returns one entry per day of the month containing month, in
// the store's location. Days without workouts have zero counts.
func (db *DB) MonthCalendar(ctx context.Context, month time.Time) ([]CalendarDay, error) {
	month = month.In(db.loc)
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, db.loc)
	next := first.AddDate(0, 1, 0)

	sessions, err := db.QuerySessions(ctx, first, next.Add(-time.Millisecond))
	if err != nil {
		return nil, fmt.Errorf("loading sessions for calendar: %w", err)
	}

	var days []CalendarDay
	index := map[string]int{}
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		index[key] = len(days)
		days = append(days, CalendarDay{Date: key})
	}
	for _, s := range sessions {
		if !s.Completed {
			continue
		}
		i, ok := index[s.Date.In(db.loc).Format("2006-01-02")]
		if !ok {
			continue
		}
		days[i].Workouts++
		days[i].TotalWeight += s.TotalWeight()
	}
	return days, nil
}
