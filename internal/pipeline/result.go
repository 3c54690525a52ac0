package pipeline

import (
	"time"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
	OutcomeError   Outcome = "error"
)

// UserResult records how one user fared during a batch run.
type UserResult struct {
	UserID  uuid.UUID `json:"user_id"`
	Outcome Outcome   `json:"outcome"`
	Message string    `json:"message,omitempty"`
}

// RunResult is the aggregate of one batch pass. The counters plus the number
// of error details always add up to Examined.
type RunResult struct {
	Date     time.Time     `json:"date"`
	Examined int           `json:"examined"`
	Created  int           `json:"created"`
	Updated  int           `json:"updated"`
	Skipped  int           `json:"skipped"`
	Errors   int           `json:"errors"`
	Details  []UserResult  `json:"details"`
	Duration time.Duration `json:"duration"`
}

func (r RunResult) HasErrors() bool {
	return r.Errors > 0
}
