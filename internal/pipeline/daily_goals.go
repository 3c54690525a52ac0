package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nutrisync/internal/domain/goal"
	"nutrisync/internal/domain/user"
	"nutrisync/internal/logger"
	"nutrisync/internal/ws"

	"github.com/google/uuid"
)

type PopulationProvider interface {
	List(ctx context.Context) ([]user.User, error)
}

type ProfileProvider interface {
	LatestProfile(ctx context.Context, userID uuid.UUID) (user.Profile, error)
}

// GoalCacheInvalidator drops cached goal views after a write, so readers
// never sit on a stale entry for the rest of the TTL. The redis cache wrapper
// satisfies it.
type GoalCacheInvalidator interface {
	InvalidateUserGoals(ctx context.Context, userID string) error
}

type Options struct {
	// Workers bounds in-flight users; Pacing spaces task starts to cap load
	// on the store.
	Workers      int
	Pacing       time.Duration
	VerifyWrites bool
	// Cache is optional; when set, each created/updated user gets their
	// cached goal views invalidated.
	Cache GoalCacheInvalidator
}

// DailyGoalsPipeline materializes the daily nutrition target for the entire
// user population. Per-user failures are recorded, never propagated; the next
// scheduled run is the retry mechanism.
type DailyGoalsPipeline struct {
	users    PopulationProvider
	profiles ProfileProvider
	store    goal.Store
	log      logger.Logger

	workers      int
	pacing       time.Duration
	verifyWrites bool
	cache        GoalCacheInvalidator
}

type RunParams struct {
	// Date defaults to today (UTC).
	Date time.Time
	// OnlyMissing skips users that already have a goal row for the day.
	// The startup backfill pass sets it; timed and manual runs recompute
	// everyone.
	OnlyMissing bool
}

func NewDailyGoalsPipeline(users PopulationProvider, profiles ProfileProvider, store goal.Store, log logger.Logger, opts Options) *DailyGoalsPipeline {
	if log == nil {
		log = logger.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 8
	}
	return &DailyGoalsPipeline{
		users:        users,
		profiles:     profiles,
		store:        store,
		log:          log,
		workers:      workers,
		pacing:       opts.Pacing,
		verifyWrites: opts.VerifyWrites,
		cache:        opts.Cache,
	}
}

// Run enumerates the population and upserts one goal row per user for the
// given day. Created vs updated is classified against a single pre-run
// snapshot of existing rows, so the result is consistent even though work is
// concurrent.
func (p *DailyGoalsPipeline) Run(ctx context.Context, params RunParams) (RunResult, error) {
	start := time.Now()
	date := params.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	users, err := p.users.List(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("list users: %w", err)
	}

	existing, err := p.store.ExistingUserIDsForDate(ctx, date)
	if err != nil {
		return RunResult{}, fmt.Errorf("snapshot existing goals: %w", err)
	}

	p.log.Info("daily goals run started",
		"date", date.Format("2006-01-02"), "users", len(users), "only_missing", params.OnlyMissing)

	details := make([]UserResult, len(users))

	pool := NewWorkerPool(p.workers, len(users))
	pool.SetPacing(p.pacing)
	results := pool.Run(ctx)

	go func() {
		for i, u := range users {
			i, u := i, u
			pool.Submit(func(ctx context.Context) error {
				details[i] = p.processUser(ctx, u, date, existing, params.OnlyMissing)
				return nil
			})
		}
		pool.Close()
	}()

	for range results {
	}
	if err := ctx.Err(); err != nil {
		return RunResult{}, err
	}

	res := aggregate(date, details)
	res.Duration = time.Since(start)

	p.log.Info("daily goals run finished",
		"date", date.Format("2006-01-02"),
		"examined", res.Examined,
		"created", res.Created,
		"updated", res.Updated,
		"skipped", res.Skipped,
		"errors", res.Errors,
		"duration", res.Duration.String(),
	)

	ws.NotifyGoalsUpdated(date, res.Created, res.Updated)

	return res, nil
}

// RunForUser materializes a single user's goal for the day; used by the
// manual per-user trigger.
func (p *DailyGoalsPipeline) RunForUser(ctx context.Context, u user.User, date time.Time) UserResult {
	if date.IsZero() {
		date = time.Now().UTC()
	}
	existing := map[uuid.UUID]struct{}{}
	if _, err := p.store.GetByUserAndDate(ctx, u.ID, date); err == nil {
		existing[u.ID] = struct{}{}
	}
	return p.processUser(ctx, u, date, existing, false)
}

func (p *DailyGoalsPipeline) processUser(ctx context.Context, u user.User, date time.Time, existing map[uuid.UUID]struct{}, onlyMissing bool) (res UserResult) {
	res = UserResult{UserID: u.ID}
	defer func() {
		if r := recover(); r != nil {
			res.Outcome = OutcomeError
			res.Message = fmt.Sprintf("panic: %v", r)
		}
	}()

	_, had := existing[u.ID]
	if onlyMissing && had {
		res.Outcome = OutcomeSkipped
		return res
	}

	// Absent profile is valid; the calculator falls back to defaults.
	var prof *user.Profile
	latest, err := p.profiles.LatestProfile(ctx, u.ID)
	switch {
	case err == nil:
		prof = &latest
	case errors.Is(err, user.ErrProfileNotFound):
	default:
		res.Outcome = OutcomeError
		res.Message = "load profile: " + err.Error()
		return res
	}

	targets := goal.Compute(prof)

	saved, err := p.store.Upsert(ctx, u.ID, date, targets)
	if err != nil {
		res.Outcome = OutcomeError
		res.Message = "upsert goal: " + err.Error()
		return res
	}

	// The upsert returns the persisted row; a mismatch against what we wrote
	// signals a storage-layer bug, not something to retry silently.
	if p.verifyWrites && saved.Targets != targets {
		res.Outcome = OutcomeError
		res.Message = "write verification mismatch"
		return res
	}

	if p.cache != nil {
		if err := p.cache.InvalidateUserGoals(ctx, u.ID.String()); err != nil {
			p.log.Warn("goal cache invalidation failed", "user_id", u.ID, "error", err)
		}
	}

	if had {
		res.Outcome = OutcomeUpdated
	} else {
		res.Outcome = OutcomeCreated
	}
	return res
}

func aggregate(date time.Time, details []UserResult) RunResult {
	res := RunResult{Date: date, Examined: len(details), Details: details}
	for _, d := range details {
		switch d.Outcome {
		case OutcomeCreated:
			res.Created++
		case OutcomeUpdated:
			res.Updated++
		case OutcomeSkipped:
			res.Skipped++
		default:
			res.Errors++
		}
	}
	return res
}
