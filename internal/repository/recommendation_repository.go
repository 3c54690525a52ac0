package repository

import (
	"context"
	"time"

	"nutrisync/internal/database"

	"github.com/google/uuid"
)

type Recommendation struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Content   string
	Source    string
	CreatedAt time.Time
}

type RecommendationRepository interface {
	Create(ctx context.Context, userID uuid.UUID, content, source string) (Recommendation, error)
	LatestForUser(ctx context.Context, userID uuid.UUID) (Recommendation, bool, error)
	CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type PostgresRecommendationRepository struct {
	db database.DB
}

func NewPostgresRecommendationRepository(db database.DB) *PostgresRecommendationRepository {
	return &PostgresRecommendationRepository{db: db}
}

func (r *PostgresRecommendationRepository) Create(ctx context.Context, userID uuid.UUID, content, source string) (Recommendation, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO ai_recommendations (user_id, content, source)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, content, source, created_at`,
		userID, content, source,
	)
	var rec Recommendation
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Content, &rec.Source, &rec.CreatedAt); err != nil {
		return Recommendation{}, err
	}
	return rec, nil
}

func (r *PostgresRecommendationRepository) LatestForUser(ctx context.Context, userID uuid.UUID) (Recommendation, bool, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, user_id, content, source, created_at
		 FROM ai_recommendations
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	)
	var rec Recommendation
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Content, &rec.Source, &rec.CreatedAt); err != nil {
		if isNoRows(err) {
			return Recommendation{}, false, nil
		}
		return Recommendation{}, false, err
	}
	return rec, true, nil
}

func (r *PostgresRecommendationRepository) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM ai_recommendations WHERE created_at < $1`,
		cutoff,
	).Scan(&n)
	return n, err
}
