package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/claude/kettlebell/internal/models"
	"github.com/google/uuid"
)

// CreateSession stores a finished or imported session under a fresh id.
func (db *DB) CreateSession(ctx context.Context, s models.WorkoutSession) (models.WorkoutSession, error) {
	var saved models.WorkoutSession
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		saved, err = db.insertSession(ctx, tx, s)
		return err
	})
	if err != nil {
		return models.WorkoutSession{}, err
	}
	return saved, nil
}

// CreateSessions stores a batch of sessions in one transaction. Either all are
// inserted or none are.
func (db *DB) CreateSessions(ctx context.Context, sessions []models.WorkoutSession) ([]models.WorkoutSession, error) {
	saved := make([]models.WorkoutSession, 0, len(sessions))
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		for _, s := range sessions {
			out, err := db.insertSession(ctx, tx, s)
			if err != nil {
				return err
			}
			saved = append(saved, out)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (db *DB) insertSession(ctx context.Context, tx *sql.Tx, s models.WorkoutSession) (models.WorkoutSession, error) {
	s = s.Clone()
	s.ID = uuid.NewString()
	s.Date = s.Date.UTC().Truncate(time.Millisecond)
	if s.Exercises == nil {
		s.Exercises = []models.CompletedExercise{}
	}

	_, err := tx.ExecContext(ctx, db.rebind(
		`INSERT INTO sessions (id, plan_id, date, duration, notes, completed) VALUES (?,?,?,?,?,?)`),
		s.ID, s.PlanID, toMillis(s.Date), s.Duration, s.Notes, s.Completed)
	if err != nil {
		return models.WorkoutSession{}, fmt.Errorf("inserting session: %w", err)
	}

	query := db.rebind(`INSERT INTO session_exercises (session_id, position, exercise_id, name, type, sets, reps,
		weight, rest_interval, notes, actual_sets, actual_reps, actual_weight, completed)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	for i, e := range s.Exercises {
		if e.ID == "" {
			e.ID = uuid.NewString()
			s.Exercises[i].ID = e.ID
		}
		_, err := tx.ExecContext(ctx, query,
			s.ID, i, e.ID, e.Name, string(e.Type), e.Sets, e.Reps,
			e.Weight, e.RestInterval, e.Notes, e.ActualSets, e.ActualReps, e.ActualWeight, e.Completed)
		if err != nil {
			return models.WorkoutSession{}, fmt.Errorf("inserting session exercise %q: %w", e.Name, err)
		}
	}
	return s, nil
}

// ListSessions returns sessions newest first. limit <= 0 returns all of them.
func (db *DB) ListSessions(ctx context.Context, limit int) ([]models.WorkoutSession, error) {
	query := `SELECT id, plan_id, date, duration, notes, completed FROM sessions ORDER BY date DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return db.querySessions(ctx, db.rebind(query), args...)
}

// QuerySessions returns sessions whose date lies in [start, end], oldest first.
func (db *DB) QuerySessions(ctx context.Context, start, end time.Time) ([]models.WorkoutSession, error) {
	return db.querySessions(ctx, db.rebind(
		`SELECT id, plan_id, date, duration, notes, completed FROM sessions
		 WHERE date >= ? AND date <= ?
		 ORDER BY date ASC, id`),
		toMillis(start), toMillis(end))
}

// CompletedSessions returns every completed session, oldest first.
func (db *DB) CompletedSessions(ctx context.Context) ([]models.WorkoutSession, error) {
	return db.querySessions(ctx, db.rebind(
		`SELECT id, plan_id, date, duration, notes, completed FROM sessions
		 WHERE completed = ?
		 ORDER BY date ASC, id`), true)
}

// GetSession returns one session with its exercises.
func (db *DB) GetSession(ctx context.Context, id string) (models.WorkoutSession, error) {
	sessions, err := db.querySessions(ctx, db.rebind(
		`SELECT id, plan_id, date, duration, notes, completed FROM sessions WHERE id = ?`), id)
	if err != nil {
		return models.WorkoutSession{}, err
	}
	if len(sessions) == 0 {
		return models.WorkoutSession{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return sessions[0], nil
}

// querySessions runs a session query and attaches the exercises of every row.
func (db *DB) querySessions(ctx context.Context, query string, args ...any) ([]models.WorkoutSession, error) {
	rows, err := db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}

	sessions := []models.WorkoutSession{}
	for rows.Next() {
		var s models.WorkoutSession
		var date int64
		if err := rows.Scan(&s.ID, &s.PlanID, &date, &s.Duration, &s.Notes, &s.Completed); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		s.Date = fromMillis(date)
		s.Exercises = []models.CompletedExercise{}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	rows.Close()

	if len(sessions) == 0 {
		return sessions, nil
	}
	if err := db.attachExercises(ctx, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// sessionBatch bounds the IN list when loading session exercises.
const sessionBatch = 500

func (db *DB) attachExercises(ctx context.Context, sessions []models.WorkoutSession) error {
	index := make(map[string]int, len(sessions))
	for i, s := range sessions {
		index[s.ID] = i
	}

	for start := 0; start < len(sessions); start += sessionBatch {
		end := min(start+sessionBatch, len(sessions))
		ids := make([]any, 0, end-start)
		for _, s := range sessions[start:end] {
			ids = append(ids, s.ID)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

		rows, err := db.sql.QueryContext(ctx, db.rebind(
			`SELECT session_id, exercise_id, name, type, sets, reps, weight, rest_interval, notes,
			 actual_sets, actual_reps, actual_weight, completed
			 FROM session_exercises
			 WHERE session_id IN (`+placeholders+`)
			 ORDER BY session_id, position`), ids...)
		if err != nil {
			return fmt.Errorf("querying session exercises: %w", err)
		}
		for rows.Next() {
			var sid, typ string
			var e models.CompletedExercise
			if err := rows.Scan(&sid, &e.ID, &e.Name, &typ, &e.Sets, &e.Reps, &e.Weight, &e.RestInterval, &e.Notes,
				&e.ActualSets, &e.ActualReps, &e.ActualWeight, &e.Completed); err != nil {
				rows.Close()
				return fmt.Errorf("scanning session exercise: %w", err)
			}
			e.Type = models.Category(typ)
			i := index[sid]
			sessions[i].Exercises = append(sessions[i].Exercises, e)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("iterating session exercises: %w", err)
		}
		rows.Close()
	}
	return nil
}

// CountSessions returns the number of stored sessions.
func (db *DB) CountSessions(ctx context.Context) (int, error) {
	var n int
	if err := db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}
