package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"nutrisync/internal/domain/goal"
	"nutrisync/internal/domain/user"
	"nutrisync/internal/infrastructure/cache"
	"nutrisync/internal/logger"
	"nutrisync/internal/pipeline"
)

type GoalUsecase interface {
	GetToday(ctx context.Context, userID uuid.UUID) (goal.DailyGoal, error)
	GenerateForUser(ctx context.Context, userID uuid.UUID) (pipeline.UserResult, error)
}

type Goal struct {
	users    user.Repository
	profiles user.ProfileRepository
	store    goal.Store
	pipe     *pipeline.DailyGoalsPipeline
	cache    *cache.Redis
	log      logger.Logger
}

func NewGoalUsecase(users user.Repository, profiles user.ProfileRepository, store goal.Store, pipe *pipeline.DailyGoalsPipeline, c *cache.Redis, log logger.Logger) *Goal {
	if log == nil {
		log = logger.NewNop()
	}
	return &Goal{users: users, profiles: profiles, store: store, pipe: pipe, cache: c, log: log}
}

// GetToday returns the user's goals for the current UTC day, computing and
// persisting them on first access so a fresh signup sees targets immediately
// instead of waiting for the next batch run.
func (g *Goal) GetToday(ctx context.Context, userID uuid.UUID) (goal.DailyGoal, error) {
	today := time.Now().UTC()
	key := cache.GoalKey(userID.String(), today)

	var cached goal.DailyGoal
	if hit, err := g.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	dg, err := g.store.GetByUserAndDate(ctx, userID, today)
	if err != nil {
		if !errors.Is(err, goal.ErrNotFound) {
			return goal.DailyGoal{}, err
		}
		dg, err = g.computeAndStore(ctx, userID, today)
		if err != nil {
			return goal.DailyGoal{}, err
		}
	}

	if err := g.cache.SetJSON(ctx, key, dg, 0); err != nil {
		g.log.Warn("goal cache write failed", "user_id", userID, "error", err)
	}
	return dg, nil
}

// GenerateForUser recomputes one user's goals for today on demand, via the
// same per-user path the batch run uses.
func (g *Goal) GenerateForUser(ctx context.Context, userID uuid.UUID) (pipeline.UserResult, error) {
	u, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return pipeline.UserResult{}, err
	}

	today := time.Now().UTC()
	res := g.pipe.RunForUser(ctx, u, today)

	if err := g.cache.InvalidateUserGoals(ctx, userID.String()); err != nil {
		g.log.Warn("goal cache invalidation failed", "user_id", userID, "error", err)
	}
	return res, nil
}

func (g *Goal) computeAndStore(ctx context.Context, userID uuid.UUID, date time.Time) (goal.DailyGoal, error) {
	profile, err := g.profiles.LatestProfile(ctx, userID)
	targets := goal.Targets{}
	switch {
	case err == nil:
		targets = goal.Compute(&profile)
	case errors.Is(err, user.ErrProfileNotFound):
		targets = goal.Compute(nil)
	default:
		return goal.DailyGoal{}, err
	}
	return g.store.Upsert(ctx, userID, date, targets)
}

var _ GoalUsecase = (*Goal)(nil)
