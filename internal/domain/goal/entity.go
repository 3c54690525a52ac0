package goal

import (
	"time"

	"github.com/google/uuid"
)

// Targets is the calculated daily nutrition target for one user. It carries
// no identity; persistence pairs it with (user_id, goal_date).
type Targets struct {
	Calories int
	ProteinG int
	CarbsG   int
	FatsG    int
	FiberG   int
	SodiumMg int
	SugarG   int
	WaterMl  int
}

// DailyGoal is a materialized target row. Exactly one exists per
// (UserID, Date); the storage layer enforces this with a unique constraint.
type DailyGoal struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Date      time.Time
	Targets   Targets
	CreatedAt time.Time
	UpdatedAt time.Time
}
