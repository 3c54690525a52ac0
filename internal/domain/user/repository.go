package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("user not found")
	ErrProfileNotFound = errors.New("profile not found")
)

type Repository interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]User, error)
}

// ProfileRepository serves the latest biometric snapshot per user.
// LatestProfile returns ErrProfileNotFound when the user never submitted one;
// callers treat that as "calculate with defaults", not as a failure.
type ProfileRepository interface {
	Save(ctx context.Context, p Profile) (Profile, error)
	LatestProfile(ctx context.Context, userID uuid.UUID) (Profile, error)
}
