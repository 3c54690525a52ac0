package goal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("daily goal not found")

// Store persists one DailyGoal per (user, calendar day).
//
// Upsert is the only sanctioned create-or-replace path: it must be a single
// atomic statement keyed on the (user_id, goal_date) unique constraint, so
// concurrent batch workers cannot race a check-then-insert. Storage errors
// propagate unwrapped; retrying is the next scheduled run's job.
type Store interface {
	Upsert(ctx context.Context, userID uuid.UUID, date time.Time, t Targets) (DailyGoal, error)
	GetByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (DailyGoal, error)
	ExistingUserIDsForDate(ctx context.Context, date time.Time) (map[uuid.UUID]struct{}, error)
	CountForDate(ctx context.Context, date time.Time) (int64, error)
}
