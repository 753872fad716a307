package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/claude/kettlebell/internal/models"
	"github.com/google/uuid"
)

// CreatePlan stores a new plan. The plan, its exercises and goals get fresh ids.
func (db *DB) CreatePlan(ctx context.Context, in models.PlanInput) (models.WorkoutPlan, error) {
	if err := in.Validate(); err != nil {
		return models.WorkoutPlan{}, err
	}

	now := db.timestamp()
	plan := models.WorkoutPlan{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Description:  in.Description,
		Frequency:    in.Frequency,
		TimesPerWeek: in.TimesPerWeek,
		Exercises:    withExerciseIDs(in.Exercises),
		Goals:        withGoalIDs(in.Goals),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := db.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, db.rebind(
			`INSERT INTO workout_plans (id, name, description, frequency, times_per_week, created_at, updated_at)
			 VALUES (?,?,?,?,?,?,?)`),
			plan.ID, plan.Name, plan.Description, string(plan.Frequency), plan.TimesPerWeek,
			toMillis(plan.CreatedAt), toMillis(plan.UpdatedAt))
		if err != nil {
			return fmt.Errorf("inserting plan: %w", err)
		}
		return db.writePlanChildren(ctx, tx, plan.ID, plan.Exercises, plan.Goals)
	})
	if err != nil {
		return models.WorkoutPlan{}, err
	}
	return plan, nil
}

// ListPlans returns every plan, most recently updated first.
func (db *DB) ListPlans(ctx context.Context) ([]models.WorkoutPlan, error) {
	rows, err := db.sql.QueryContext(ctx,
		`SELECT id, name, description, frequency, times_per_week, created_at, updated_at
		 FROM workout_plans
		 ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}

	plans := []models.WorkoutPlan{}
	index := map[string]int{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[p.ID] = len(plans)
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating plans: %w", err)
	}
	rows.Close()

	exercises, err := db.queryExercises(ctx, db.sql, "")
	if err != nil {
		return nil, err
	}
	for planID, exs := range exercises {
		if i, ok := index[planID]; ok {
			plans[i].Exercises = exs
		}
	}
	goals, err := db.queryGoals(ctx, db.sql, "")
	if err != nil {
		return nil, err
	}
	for planID, gs := range goals {
		if i, ok := index[planID]; ok {
			plans[i].Goals = gs
		}
	}
	return plans, nil
}

// GetPlan returns a single plan with its exercises and goals.
func (db *DB) GetPlan(ctx context.Context, id string) (models.WorkoutPlan, error) {
	return db.getPlan(ctx, db.sql, id)
}

func (db *DB) getPlan(ctx context.Context, q querier, id string) (models.WorkoutPlan, error) {
	row := q.QueryRowContext(ctx, db.rebind(
		`SELECT id, name, description, frequency, times_per_week, created_at, updated_at
		 FROM workout_plans WHERE id = ?`), id)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WorkoutPlan{}, fmt.Errorf("plan %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.WorkoutPlan{}, err
	}

	exercises, err := db.queryExercises(ctx, q, id)
	if err != nil {
		return models.WorkoutPlan{}, err
	}
	goals, err := db.queryGoals(ctx, q, id)
	if err != nil {
		return models.WorkoutPlan{}, err
	}
	if exs, ok := exercises[id]; ok {
		p.Exercises = exs
	}
	if gs, ok := goals[id]; ok {
		p.Goals = gs
	}
	return p, nil
}

// UpdatePlan applies a partial update. Provided exercise or goal lists replace
// the stored ones; updatedAt is always bumped.
func (db *DB) UpdatePlan(ctx context.Context, id string, upd models.PlanUpdate) (models.WorkoutPlan, error) {
	var plan models.WorkoutPlan
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		current, err := db.getPlan(ctx, tx, id)
		if err != nil {
			return err
		}
		if upd.Exercises != nil {
			exs := withExerciseIDs(*upd.Exercises)
			upd.Exercises = &exs
		}
		if upd.Goals != nil {
			gs := withGoalIDs(*upd.Goals)
			upd.Goals = &gs
		}
		plan, err = upd.Apply(current)
		if err != nil {
			return err
		}
		plan.UpdatedAt = db.timestamp()

		_, err = tx.ExecContext(ctx, db.rebind(
			`UPDATE workout_plans
			 SET name = ?, description = ?, frequency = ?, times_per_week = ?, updated_at = ?
			 WHERE id = ?`),
			plan.Name, plan.Description, string(plan.Frequency), plan.TimesPerWeek,
			toMillis(plan.UpdatedAt), id)
		if err != nil {
			return fmt.Errorf("updating plan %s: %w", id, err)
		}

		if upd.Exercises != nil {
			if _, err := tx.ExecContext(ctx, db.rebind(`DELETE FROM exercises WHERE plan_id = ?`), id); err != nil {
				return fmt.Errorf("replacing exercises of plan %s: %w", id, err)
			}
			if err := db.insertExercises(ctx, tx, id, plan.Exercises); err != nil {
				return err
			}
		}
		if upd.Goals != nil {
			if _, err := tx.ExecContext(ctx, db.rebind(`DELETE FROM goals WHERE plan_id = ?`), id); err != nil {
				return fmt.Errorf("replacing goals of plan %s: %w", id, err)
			}
			if err := db.insertGoals(ctx, tx, id, plan.Goals); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.WorkoutPlan{}, err
	}
	return plan, nil
}

// DeletePlan removes a plan together with its exercises, goals and every
// session that was started from it.
func (db *DB) DeletePlan(ctx context.Context, id string) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, db.rebind(`DELETE FROM workout_plans WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("deleting plan %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("plan %s: %w", id, ErrNotFound)
		}
		for _, stmt := range []string{
			`DELETE FROM exercises WHERE plan_id = ?`,
			`DELETE FROM goals WHERE plan_id = ?`,
			`DELETE FROM session_exercises WHERE session_id IN (SELECT id FROM sessions WHERE plan_id = ?)`,
			`DELETE FROM sessions WHERE plan_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, db.rebind(stmt), id); err != nil {
				return fmt.Errorf("deleting plan %s: %w", id, err)
			}
		}
		return nil
	})
}

func (db *DB) writePlanChildren(ctx context.Context, tx *sql.Tx, planID string, exs []models.Exercise, goals []models.Goal) error {
	if err := db.insertExercises(ctx, tx, planID, exs); err != nil {
		return err
	}
	return db.insertGoals(ctx, tx, planID, goals)
}

func (db *DB) insertExercises(ctx context.Context, tx *sql.Tx, planID string, exs []models.Exercise) error {
	query := db.rebind(`INSERT INTO exercises (id, plan_id, position, name, type, sets, reps, weight, rest_interval, notes)
		VALUES (?,?,?,?,?,?,?,?,?,?)`)
	for i, e := range exs {
		_, err := tx.ExecContext(ctx, query,
			e.ID, planID, i, e.Name, string(e.Type), e.Sets, e.Reps, e.Weight, e.RestInterval, e.Notes)
		if err != nil {
			return fmt.Errorf("inserting exercise %q: %w", e.Name, err)
		}
	}
	return nil
}

func (db *DB) insertGoals(ctx context.Context, tx *sql.Tx, planID string, goals []models.Goal) error {
	query := db.rebind(`INSERT INTO goals (id, plan_id, position, target, achieved, type) VALUES (?,?,?,?,?,?)`)
	for i, g := range goals {
		if _, err := tx.ExecContext(ctx, query, g.ID, planID, i, g.Target, g.Achieved, string(g.Type)); err != nil {
			return fmt.Errorf("inserting goal: %w", err)
		}
	}
	return nil
}

// queryExercises returns exercises grouped by plan id. An empty planID loads all.
func (db *DB) queryExercises(ctx context.Context, q querier, planID string) (map[string][]models.Exercise, error) {
	query := `SELECT plan_id, id, name, type, sets, reps, weight, rest_interval, notes FROM exercises`
	var args []any
	if planID != "" {
		query += ` WHERE plan_id = ?`
		args = append(args, planID)
	}
	query += ` ORDER BY plan_id, position`

	rows, err := q.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	result := map[string][]models.Exercise{}
	for rows.Next() {
		var pid, typ string
		var e models.Exercise
		if err := rows.Scan(&pid, &e.ID, &e.Name, &typ, &e.Sets, &e.Reps, &e.Weight, &e.RestInterval, &e.Notes); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		e.Type = models.Category(typ)
		result[pid] = append(result[pid], e)
	}
	return result, rows.Err()
}

// queryGoals returns goals grouped by plan id. An empty planID loads all.
func (db *DB) queryGoals(ctx context.Context, q querier, planID string) (map[string][]models.Goal, error) {
	query := `SELECT plan_id, id, target, achieved, type FROM goals`
	var args []any
	if planID != "" {
		query += ` WHERE plan_id = ?`
		args = append(args, planID)
	}
	query += ` ORDER BY plan_id, position`

	rows, err := q.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying goals: %w", err)
	}
	defer rows.Close()

	result := map[string][]models.Goal{}
	for rows.Next() {
		var pid, typ string
		var g models.Goal
		if err := rows.Scan(&pid, &g.ID, &g.Target, &g.Achieved, &typ); err != nil {
			return nil, fmt.Errorf("scanning goal: %w", err)
		}
		g.Type = models.GoalType(typ)
		result[pid] = append(result[pid], g)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(r rowScanner) (models.WorkoutPlan, error) {
	var p models.WorkoutPlan
	var freq string
	var created, updated int64
	if err := r.Scan(&p.ID, &p.Name, &p.Description, &freq, &p.TimesPerWeek, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scanning plan: %w", err)
	}
	p.Frequency = models.Frequency(freq)
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	p.Exercises = []models.Exercise{}
	p.Goals = []models.Goal{}
	return p, nil
}

func withExerciseIDs(in []models.Exercise) []models.Exercise {
	out := make([]models.Exercise, len(in))
	for i, e := range in {
		e.ID = uuid.NewString()
		out[i] = e
	}
	return out
}

func withGoalIDs(in []models.Goal) []models.Goal {
	out := make([]models.Goal, len(in))
	for i, g := range in {
		g.ID = uuid.NewString()
		out[i] = g
	}
	return out
}
