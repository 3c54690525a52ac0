package repository

import (
	"context"

	"nutrisync/internal/database"
	"nutrisync/internal/domain/user"

	"github.com/google/uuid"
)

var _ user.ProfileRepository = (*PostgresProfileRepository)(nil)

type PostgresProfileRepository struct {
	db database.DB
}

func NewPostgresProfileRepository(db database.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

// Save appends a new profile snapshot and flips the owner's
// profile_completed flag. Snapshots are immutable; LatestProfile picks the
// newest one.
func (r *PostgresProfileRepository) Save(ctx context.Context, p user.Profile) (user.Profile, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return user.Profile{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	row := tx.QueryRow(ctx,
		`INSERT INTO user_profiles
			(user_id, weight_kg, height_cm, age, sex, activity_level, main_goal, dietary_style)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, user_id, weight_kg, height_cm, age, sex, activity_level, main_goal, dietary_style, created_at, updated_at`,
		p.UserID, p.WeightKg, p.HeightCm, p.Age, p.Sex, p.ActivityLevel, p.MainGoal, p.DietaryStyle,
	)
	saved, err := scanProfile(row)
	if err != nil {
		return user.Profile{}, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET profile_completed = TRUE, updated_at = now() WHERE id = $1`,
		p.UserID,
	); err != nil {
		return user.Profile{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return user.Profile{}, err
	}
	return saved, nil
}

func (r *PostgresProfileRepository) LatestProfile(ctx context.Context, userID uuid.UUID) (user.Profile, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, user_id, weight_kg, height_cm, age, sex, activity_level, main_goal, dietary_style, created_at, updated_at
		 FROM user_profiles
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	)
	p, err := scanProfile(row)
	if err != nil {
		if isNoRows(err) {
			return user.Profile{}, user.ErrProfileNotFound
		}
		return user.Profile{}, err
	}
	return p, nil
}

func scanProfile(row database.Row) (user.Profile, error) {
	var p user.Profile
	err := row.Scan(
		&p.ID, &p.UserID,
		&p.WeightKg, &p.HeightCm, &p.Age, &p.Sex, &p.ActivityLevel, &p.MainGoal, &p.DietaryStyle,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return user.Profile{}, err
	}
	return p, nil
}
