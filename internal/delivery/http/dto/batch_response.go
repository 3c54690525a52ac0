package dto

import (
	"nutrisync/internal/pipeline"
)

type BatchRunResponse struct {
	Date       string             `json:"date"`
	Examined   int                `json:"examined"`
	Created    int                `json:"created"`
	Updated    int                `json:"updated"`
	Skipped    int                `json:"skipped"`
	Errors     int                `json:"errors"`
	DurationMs int64              `json:"duration_ms"`
	Failures   []UserBatchOutcome `json:"failures,omitempty"`
}

type UserBatchOutcome struct {
	UserID  string `json:"user_id"`
	Outcome string `json:"outcome"`
	Message string `json:"message,omitempty"`
}

// NewBatchRunResponse keeps only the failed per-user details; the successful
// ones are already summarized by the counters.
func NewBatchRunResponse(r pipeline.RunResult) BatchRunResponse {
	out := BatchRunResponse{
		Date:       r.Date.UTC().Format("2006-01-02"),
		Examined:   r.Examined,
		Created:    r.Created,
		Updated:    r.Updated,
		Skipped:    r.Skipped,
		Errors:     r.Errors,
		DurationMs: r.Duration.Milliseconds(),
	}
	for _, d := range r.Details {
		if d.Outcome != pipeline.OutcomeError {
			continue
		}
		out.Failures = append(out.Failures, UserBatchOutcome{
			UserID:  d.UserID.String(),
			Outcome: string(d.Outcome),
			Message: d.Message,
		})
	}
	return out
}
