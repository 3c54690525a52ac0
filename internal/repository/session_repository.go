package repository

import (
	"context"
	"time"

	"nutrisync/internal/database"

	"github.com/google/uuid"
)

type SessionRepository interface {
	Create(ctx context.Context, userID uuid.UUID, refreshTokenHash string, expiresAt time.Time) error
	CountExpired(ctx context.Context, now time.Time) (int64, error)
}

type PostgresSessionRepository struct {
	db database.DB
}

func NewPostgresSessionRepository(db database.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

func (r *PostgresSessionRepository) Create(ctx context.Context, userID uuid.UUID, refreshTokenHash string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO user_sessions (user_id, refresh_token_hash, expires_at) VALUES ($1, $2, $3)`,
		userID, refreshTokenHash, expiresAt,
	)
	return err
}

func (r *PostgresSessionRepository) CountExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_sessions WHERE expires_at < $1`,
		now,
	).Scan(&n)
	return n, err
}
