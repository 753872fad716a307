package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AddSteps adds n steps to the tally of day (YYYY-MM-DD) and returns the new total.
func (db *DB) AddSteps(ctx context.Context, day string, n int64) (int64, error) {
	var total int64
	err := db.sql.QueryRowContext(ctx, db.rebind(
		`INSERT INTO daily_steps (day, steps) VALUES (?, ?)
		 ON CONFLICT (day) DO UPDATE SET steps = daily_steps.steps + excluded.steps
		 RETURNING steps`), day, n).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("adding steps for %s: %w", day, err)
	}
	return total, nil
}

// GetSteps returns the steps recorded for day. Unknown days have zero steps.
func (db *DB) GetSteps(ctx context.Context, day string) (int64, error) {
	var steps int64
	err := db.sql.QueryRowContext(ctx, db.rebind(`SELECT steps FROM daily_steps WHERE day = ?`), day).Scan(&steps)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying steps for %s: %w", day, err)
	}
	return steps, nil
}
