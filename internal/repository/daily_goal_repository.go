package repository

import (
	"context"
	"time"

	"nutrisync/internal/database"
	"nutrisync/internal/domain/goal"

	"github.com/google/uuid"
)

var _ goal.Store = (*PostgresDailyGoalRepository)(nil)

type PostgresDailyGoalRepository struct {
	db database.DB
}

func NewPostgresDailyGoalRepository(db database.DB) *PostgresDailyGoalRepository {
	return &PostgresDailyGoalRepository{db: db}
}

// Upsert inserts or fully overwrites the goal row for (userID, date) in one
// statement. The daily_goals_user_date_key constraint carries the
// exactly-one-row-per-day invariant; concurrent writers merge at the storage
// engine, never in application code.
func (r *PostgresDailyGoalRepository) Upsert(ctx context.Context, userID uuid.UUID, date time.Time, t goal.Targets) (goal.DailyGoal, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO daily_goals
			(user_id, goal_date, calories, protein_g, carbs_g, fats_g, fiber_g, sodium_mg, sugar_g, water_ml)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT ON CONSTRAINT daily_goals_user_date_key DO UPDATE SET
			calories = EXCLUDED.calories,
			protein_g = EXCLUDED.protein_g,
			carbs_g = EXCLUDED.carbs_g,
			fats_g = EXCLUDED.fats_g,
			fiber_g = EXCLUDED.fiber_g,
			sodium_mg = EXCLUDED.sodium_mg,
			sugar_g = EXCLUDED.sugar_g,
			water_ml = EXCLUDED.water_ml,
			updated_at = now()
		 RETURNING id, user_id, goal_date, calories, protein_g, carbs_g, fats_g, fiber_g, sodium_mg, sugar_g, water_ml, created_at, updated_at`,
		userID, dateOnly(date),
		t.Calories, t.ProteinG, t.CarbsG, t.FatsG, t.FiberG, t.SodiumMg, t.SugarG, t.WaterMl,
	)
	return scanDailyGoal(row)
}

func (r *PostgresDailyGoalRepository) GetByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (goal.DailyGoal, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, user_id, goal_date, calories, protein_g, carbs_g, fats_g, fiber_g, sodium_mg, sugar_g, water_ml, created_at, updated_at
		 FROM daily_goals
		 WHERE user_id = $1 AND goal_date = $2`,
		userID, dateOnly(date),
	)
	g, err := scanDailyGoal(row)
	if err != nil {
		if isNoRows(err) {
			return goal.DailyGoal{}, goal.ErrNotFound
		}
		return goal.DailyGoal{}, err
	}
	return g, nil
}

// ExistingUserIDsForDate returns the set of users that already have a row for
// the given day. The batch orchestrator takes this snapshot once before a run
// to classify created vs updated outcomes.
func (r *PostgresDailyGoalRepository) ExistingUserIDsForDate(ctx context.Context, date time.Time) (map[uuid.UUID]struct{}, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id FROM daily_goals WHERE goal_date = $1`,
		dateOnly(date),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresDailyGoalRepository) CountForDate(ctx context.Context, date time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM daily_goals WHERE goal_date = $1`,
		dateOnly(date),
	).Scan(&n)
	return n, err
}

func scanDailyGoal(row database.Row) (goal.DailyGoal, error) {
	var g goal.DailyGoal
	err := row.Scan(
		&g.ID, &g.UserID, &g.Date,
		&g.Targets.Calories, &g.Targets.ProteinG, &g.Targets.CarbsG, &g.Targets.FatsG,
		&g.Targets.FiberG, &g.Targets.SodiumMg, &g.Targets.SugarG, &g.Targets.WaterMl,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return goal.DailyGoal{}, err
	}
	return g, nil
}

// dateOnly truncates to the calendar day in UTC so every caller keys the
// daily_goals table the same way.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
