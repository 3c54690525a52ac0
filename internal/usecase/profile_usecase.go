package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"nutrisync/internal/domain/user"
	"nutrisync/internal/infrastructure/cache"
	"nutrisync/internal/logger"
	"nutrisync/internal/pipeline"
)

var ErrInvalidProfile = errors.New("invalid profile")

type SaveProfileInput struct {
	WeightKg      *float64
	HeightCm      *float64
	Age           *int
	Sex           *string
	ActivityLevel *string
	MainGoal      *string
	DietaryStyle  *string
}

type ProfileUsecase interface {
	Get(ctx context.Context, userID uuid.UUID) (user.Profile, error)
	Save(ctx context.Context, userID uuid.UUID, in SaveProfileInput) (user.Profile, error)
}

type Profile struct {
	users    user.Repository
	profiles user.ProfileRepository
	pipe     *pipeline.DailyGoalsPipeline
	cache    *cache.Redis
	log      logger.Logger
}

func NewProfileUsecase(users user.Repository, profiles user.ProfileRepository, pipe *pipeline.DailyGoalsPipeline, c *cache.Redis, log logger.Logger) *Profile {
	if log == nil {
		log = logger.NewNop()
	}
	return &Profile{users: users, profiles: profiles, pipe: pipe, cache: c, log: log}
}

func (p *Profile) Get(ctx context.Context, userID uuid.UUID) (user.Profile, error) {
	return p.profiles.LatestProfile(ctx, userID)
}

// Save stores a new profile snapshot and immediately recomputes today's
// goals, so the next goal read reflects the new profile.
func (p *Profile) Save(ctx context.Context, userID uuid.UUID, in SaveProfileInput) (user.Profile, error) {
	if err := validateProfileInput(in); err != nil {
		return user.Profile{}, err
	}

	u, err := p.users.GetByID(ctx, userID)
	if err != nil {
		return user.Profile{}, err
	}

	saved, err := p.profiles.Save(ctx, user.Profile{
		UserID:        u.ID,
		WeightKg:      in.WeightKg,
		HeightCm:      in.HeightCm,
		Age:           in.Age,
		Sex:           normalizeEnum(in.Sex),
		ActivityLevel: normalizeEnum(in.ActivityLevel),
		MainGoal:      normalizeEnum(in.MainGoal),
		DietaryStyle:  in.DietaryStyle,
	})
	if err != nil {
		return user.Profile{}, err
	}

	if p.pipe != nil {
		res := p.pipe.RunForUser(ctx, u, time.Now().UTC())
		if res.Outcome == pipeline.OutcomeError {
			p.log.Warn("goal recompute after profile save failed", "user_id", userID, "detail", res.Message)
		}
	}
	if err := p.cache.InvalidateUserGoals(ctx, userID.String()); err != nil {
		p.log.Warn("goal cache invalidation failed", "user_id", userID, "error", err)
	}
	return saved, nil
}

func validateProfileInput(in SaveProfileInput) error {
	if in.WeightKg != nil && (*in.WeightKg < 20 || *in.WeightKg > 400) {
		return ErrInvalidProfile
	}
	if in.HeightCm != nil && (*in.HeightCm < 100 || *in.HeightCm > 250) {
		return ErrInvalidProfile
	}
	if in.Age != nil && (*in.Age < 10 || *in.Age > 120) {
		return ErrInvalidProfile
	}
	if in.ActivityLevel != nil {
		switch strings.ToUpper(strings.TrimSpace(*in.ActivityLevel)) {
		case user.ActivityNone, user.ActivityLight, user.ActivityModerate, user.ActivityHigh:
		default:
			return ErrInvalidProfile
		}
	}
	if in.MainGoal != nil {
		switch strings.ToUpper(strings.TrimSpace(*in.MainGoal)) {
		case user.GoalMaintenance, user.GoalWeightLoss, user.GoalWeightGain, user.GoalSportsPerformance:
		default:
			return ErrInvalidProfile
		}
	}
	return nil
}

func normalizeEnum(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*s))
	return &v
}

var _ ProfileUsecase = (*Profile)(nil)
