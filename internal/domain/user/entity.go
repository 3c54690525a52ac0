package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID               uuid.UUID
	Email            string
	PasswordHash     string
	ProfileCompleted bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Activity levels accepted on a profile. Unrecognized values fall back to
// ActivityModerate during goal calculation.
const (
	ActivityNone     = "NONE"
	ActivityLight    = "LIGHT"
	ActivityModerate = "MODERATE"
	ActivityHigh     = "HIGH"
)

const (
	GoalMaintenance       = "MAINTENANCE"
	GoalWeightLoss        = "WEIGHT_LOSS"
	GoalWeightGain        = "WEIGHT_GAIN"
	GoalSportsPerformance = "SPORTS_PERFORMANCE"
)

// Profile is the latest biometric snapshot for a user. Numeric fields are
// pointers: a nil field means the user never supplied it and calculation
// defaults apply.
type Profile struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	WeightKg      *float64
	HeightCm      *float64
	Age           *int
	Sex           *string
	ActivityLevel *string
	MainGoal      *string
	DietaryStyle  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
