package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// ClearAllData deletes every plan and session in one transaction. Settings,
// step tallies and import logs are kept.
func (db *DB) ClearAllData(ctx context.Context) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"session_exercises", "sessions", "goals", "exercises", "workout_plans"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		return nil
	})
}
