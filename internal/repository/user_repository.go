package repository

import (
	"context"

	"nutrisync/internal/database"
	"nutrisync/internal/domain/user"

	"github.com/google/uuid"
)

var _ user.Repository = (*PostgresUserRepository)(nil)

type PostgresUserRepository struct {
	db database.DB
}

func NewPostgresUserRepository(db database.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u user.User) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, email, password_hash) VALUES ($1, $2, $3)`,
		u.ID, u.Email, u.PasswordHash,
	)
	return err
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, email, password_hash, profile_completed, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	)
	return scanUser(row)
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, email, password_hash, profile_completed, created_at, updated_at
		 FROM users WHERE email = $1`,
		email,
	)
	return scanUser(row)
}

func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists)
	return exists, err
}

// List enumerates the entire user population in registration order. The batch
// orchestrator walks this once per run.
func (r *PostgresUserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, email, password_hash, profile_completed, created_at, updated_at
		 FROM users ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]user.User, 0)
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.ProfileCompleted, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanUser(row database.Row) (user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.ProfileCompleted, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}
