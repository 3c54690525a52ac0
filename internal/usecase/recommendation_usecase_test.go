package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrisync/internal/domain/goal"
	"nutrisync/internal/domain/user"
	"nutrisync/internal/logger"
	"nutrisync/internal/repository"
)

type fakeRecRepo struct {
	created   []repository.Recommendation
	createErr error
}

func (r *fakeRecRepo) Create(ctx context.Context, userID uuid.UUID, content, source string) (repository.Recommendation, error) {
	if r.createErr != nil {
		return repository.Recommendation{}, r.createErr
	}
	rec := repository.Recommendation{
		ID: uuid.New(), UserID: userID, Content: content, Source: source, CreatedAt: time.Now(),
	}
	r.created = append(r.created, rec)
	return rec, nil
}

func (r *fakeRecRepo) LatestForUser(ctx context.Context, userID uuid.UUID) (repository.Recommendation, bool, error) {
	for i := len(r.created) - 1; i >= 0; i-- {
		if r.created[i].UserID == userID {
			return r.created[i], true, nil
		}
	}
	return repository.Recommendation{}, false, nil
}

func (r *fakeRecRepo) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeGenerator struct {
	text string
	err  error
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return g.text, g.err
}

func strPtr(s string) *string { return &s }

func TestGenerateForUser_UsesGeneratorOutput(t *testing.T) {
	u := user.User{ID: uuid.New(), Email: "a@example.com"}
	ur := newFakeUserRepo(u)
	pr := newFakeProfileRepo()
	st := newFakeGoalStore()
	recs := &fakeRecRepo{}

	_, err := st.Upsert(context.Background(), u.ID, time.Now().UTC(), goal.Targets{Calories: 2000})
	require.NoError(t, err)

	uc := NewRecommendationUsecase(ur, pr, st, recs, &fakeGenerator{text: "Eat more fiber."}, logger.NewNop())

	rec, err := uc.GenerateForUser(context.Background(), u.ID)
	require.NoError(t, err)

	assert.Equal(t, "Eat more fiber.", rec.Content)
	assert.Equal(t, "model", rec.Source)
}

func TestGenerateForUser_FallsBackWhenGeneratorFails(t *testing.T) {
	u := user.User{ID: uuid.New(), Email: "a@example.com"}
	ur := newFakeUserRepo(u)
	pr := newFakeProfileRepo()
	st := newFakeGoalStore()
	recs := &fakeRecRepo{}

	_, err := pr.Save(context.Background(), user.Profile{UserID: u.ID, MainGoal: strPtr(user.GoalWeightLoss)})
	require.NoError(t, err)

	uc := NewRecommendationUsecase(ur, pr, st, recs, &fakeGenerator{err: errors.New("upstream 503")}, logger.NewNop())

	rec, err := uc.GenerateForUser(context.Background(), u.ID)
	require.NoError(t, err)

	assert.Equal(t, "fallback", rec.Source)
	assert.Equal(t, fallbackRecommendations[user.GoalWeightLoss], rec.Content)
}

func TestGenerateForUser_FallsBackWhenGeneratorDisabled(t *testing.T) {
	u := user.User{ID: uuid.New(), Email: "a@example.com"}
	ur := newFakeUserRepo(u)

	uc := NewRecommendationUsecase(ur, newFakeProfileRepo(), newFakeGoalStore(), &fakeRecRepo{}, nil, logger.NewNop())

	rec, err := uc.GenerateForUser(context.Background(), u.ID)
	require.NoError(t, err)

	assert.Equal(t, "fallback", rec.Source)
	assert.Equal(t, fallbackRecommendations[user.GoalMaintenance], rec.Content)
}

func TestGenerateAll_SkipsIncompleteProfiles(t *testing.T) {
	complete := user.User{ID: uuid.New(), Email: "a@example.com", ProfileCompleted: true}
	incomplete := user.User{ID: uuid.New(), Email: "b@example.com"}
	ur := newFakeUserRepo(complete, incomplete)
	recs := &fakeRecRepo{}

	uc := NewRecommendationUsecase(ur, newFakeProfileRepo(), newFakeGoalStore(), recs, nil, logger.NewNop())

	res, err := uc.GenerateAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Examined)
	assert.Equal(t, 1, res.Generated)
	assert.Zero(t, res.Failed)
	require.Len(t, recs.created, 1)
	assert.Equal(t, complete.ID, recs.created[0].UserID)
}

func TestGenerateAll_CountsFailures(t *testing.T) {
	u := user.User{ID: uuid.New(), Email: "a@example.com", ProfileCompleted: true}
	ur := newFakeUserRepo(u)
	recs := &fakeRecRepo{createErr: errors.New("insert failed")}

	uc := NewRecommendationUsecase(ur, newFakeProfileRepo(), newFakeGoalStore(), recs, nil, logger.NewNop())

	res, err := uc.GenerateAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.Zero(t, res.Generated)
}

func TestLatest_NoneRecorded(t *testing.T) {
	u := user.User{ID: uuid.New(), Email: "a@example.com"}
	uc := NewRecommendationUsecase(newFakeUserRepo(u), newFakeProfileRepo(), newFakeGoalStore(), &fakeRecRepo{}, nil, logger.NewNop())

	_, err := uc.Latest(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrNoRecommendation)
}
