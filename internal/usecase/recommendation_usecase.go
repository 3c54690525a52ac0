package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"nutrisync/internal/domain/goal"
	"nutrisync/internal/domain/user"
	"nutrisync/internal/infrastructure/textgen"
	"nutrisync/internal/logger"
	"nutrisync/internal/repository"
)

const (
	recommendationSourceModel    = "model"
	recommendationSourceFallback = "fallback"

	recommendationMaxTokens = 300
)

var ErrNoRecommendation = errors.New("no recommendation available")

// Canned guidance per main goal, used when the text generator is disabled or
// failing.
var fallbackRecommendations = map[string]string{
	user.GoalMaintenance:       "Keep meals consistent across the day and anchor each one with a protein source. Your targets assume maintenance, so large day-to-day swings in intake work against you.",
	user.GoalWeightLoss:        "Prioritize protein and fiber at every meal to stay full within your calorie target. Front-load carbohydrates earlier in the day and keep liquid calories to a minimum.",
	user.GoalWeightGain:        "Add calorie-dense snacks between meals rather than forcing larger portions. Hitting your protein target matters more than the exact carb and fat split.",
	user.GoalSportsPerformance: "Time most of your carbohydrates around training sessions and do not skip the post-workout meal. Hydration interacts with performance before hunger does.",
}

type RecommendationBatchResult struct {
	Examined  int           `json:"examined"`
	Generated int           `json:"generated"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

type RecommendationUsecase interface {
	Latest(ctx context.Context, userID uuid.UUID) (repository.Recommendation, error)
	GenerateForUser(ctx context.Context, userID uuid.UUID) (repository.Recommendation, error)
	GenerateAll(ctx context.Context) (RecommendationBatchResult, error)
}

type Recommendation struct {
	users     user.Repository
	profiles  user.ProfileRepository
	store     goal.Store
	recs      repository.RecommendationRepository
	generator textgen.Generator
	log       logger.Logger
}

func NewRecommendationUsecase(users user.Repository, profiles user.ProfileRepository, store goal.Store, recs repository.RecommendationRepository, gen textgen.Generator, log logger.Logger) *Recommendation {
	if log == nil {
		log = logger.NewNop()
	}
	return &Recommendation{users: users, profiles: profiles, store: store, recs: recs, generator: gen, log: log}
}

func (r *Recommendation) Latest(ctx context.Context, userID uuid.UUID) (repository.Recommendation, error) {
	rec, found, err := r.recs.LatestForUser(ctx, userID)
	if err != nil {
		return repository.Recommendation{}, err
	}
	if !found {
		return repository.Recommendation{}, ErrNoRecommendation
	}
	return rec, nil
}

// GenerateForUser drafts a recommendation from the user's profile and current
// targets. Generator failures degrade to the canned text for the user's goal;
// only persistence errors surface to the caller.
func (r *Recommendation) GenerateForUser(ctx context.Context, userID uuid.UUID) (repository.Recommendation, error) {
	profile, err := r.profiles.LatestProfile(ctx, userID)
	if err != nil && !errors.Is(err, user.ErrProfileNotFound) {
		return repository.Recommendation{}, err
	}

	content, source := r.draft(ctx, userID, &profile)
	return r.recs.Create(ctx, userID, content, source)
}

// GenerateAll refreshes recommendations for every user with a completed
// profile. Runs sequentially; the generator is the bottleneck, not the
// database.
func (r *Recommendation) GenerateAll(ctx context.Context) (RecommendationBatchResult, error) {
	start := time.Now()

	population, err := r.users.List(ctx)
	if err != nil {
		return RecommendationBatchResult{}, fmt.Errorf("list users: %w", err)
	}

	var res RecommendationBatchResult
	for _, u := range population {
		if !u.ProfileCompleted {
			continue
		}
		res.Examined++
		if _, err := r.GenerateForUser(ctx, u.ID); err != nil {
			res.Failed++
			r.log.Warn("recommendation generation failed", "user_id", u.ID, "error", err)
			continue
		}
		res.Generated++
	}

	res.Duration = time.Since(start)
	r.log.Info("recommendation batch finished",
		"examined", res.Examined, "generated", res.Generated, "failed", res.Failed,
		"duration", res.Duration)
	return res, nil
}

func (r *Recommendation) draft(ctx context.Context, userID uuid.UUID, profile *user.Profile) (string, string) {
	mainGoal := user.GoalMaintenance
	if profile != nil && profile.MainGoal != nil && *profile.MainGoal != "" {
		mainGoal = *profile.MainGoal
	}

	if r.generator != nil {
		targets, err := r.store.GetByUserAndDate(ctx, userID, time.Now().UTC())
		if err == nil {
			text, genErr := r.generator.Generate(ctx, buildPrompt(profile, targets.Targets), recommendationMaxTokens)
			if genErr == nil && text != "" {
				return text, recommendationSourceModel
			}
			if genErr != nil {
				r.log.Warn("text generation failed, using fallback", "user_id", userID, "error", genErr)
			}
		}
	}

	text, ok := fallbackRecommendations[mainGoal]
	if !ok {
		text = fallbackRecommendations[user.GoalMaintenance]
	}
	return text, recommendationSourceFallback
}

func buildPrompt(profile *user.Profile, t goal.Targets) string {
	mainGoal := "MAINTENANCE"
	activity := "MODERATE"
	if profile != nil {
		if profile.MainGoal != nil && *profile.MainGoal != "" {
			mainGoal = *profile.MainGoal
		}
		if profile.ActivityLevel != nil && *profile.ActivityLevel != "" {
			activity = *profile.ActivityLevel
		}
	}
	return fmt.Sprintf(
		"Write two short sentences of practical nutrition advice for a person whose main goal is %s with %s activity level. Their daily targets are %d kcal, %dg protein, %dg carbs, %dg fat, %dml water. Plain text, no lists.",
		mainGoal, activity, t.Calories, t.ProteinG, t.CarbsG, t.FatsG, t.WaterMl,
	)
}

var _ RecommendationUsecase = (*Recommendation)(nil)
