package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrisync/internal/domain/goal"
	"nutrisync/internal/domain/user"
	"nutrisync/internal/logger"
)

type fakePopulation struct {
	users []user.User
	err   error
}

func (f *fakePopulation) List(context.Context) ([]user.User, error) {
	return f.users, f.err
}

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]user.Profile
	failFor  map[uuid.UUID]error
	panicFor map[uuid.UUID]bool
}

func (f *fakeProfiles) LatestProfile(_ context.Context, userID uuid.UUID) (user.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicFor[userID] {
		panic("profile provider exploded")
	}
	if err, ok := f.failFor[userID]; ok {
		return user.Profile{}, err
	}
	p, ok := f.profiles[userID]
	if !ok {
		return user.Profile{}, user.ErrProfileNotFound
	}
	return p, nil
}

type storeKey struct {
	userID uuid.UUID
	date   string
}

type fakeStore struct {
	mu      sync.Mutex
	rows    map[storeKey]goal.DailyGoal
	failFor map[uuid.UUID]error
	upserts int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[storeKey]goal.DailyGoal), failFor: make(map[uuid.UUID]error)}
}

func (f *fakeStore) key(userID uuid.UUID, date time.Time) storeKey {
	return storeKey{userID: userID, date: date.UTC().Format("2006-01-02")}
}

func (f *fakeStore) Upsert(_ context.Context, userID uuid.UUID, date time.Time, t goal.Targets) (goal.DailyGoal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[userID]; ok {
		return goal.DailyGoal{}, err
	}
	f.upserts++
	k := f.key(userID, date)
	now := time.Now()
	row, ok := f.rows[k]
	if !ok {
		row = goal.DailyGoal{ID: uuid.New(), UserID: userID, Date: date, CreatedAt: now}
	}
	row.Targets = t
	row.UpdatedAt = now
	f.rows[k] = row
	return row, nil
}

func (f *fakeStore) GetByUserAndDate(_ context.Context, userID uuid.UUID, date time.Time) (goal.DailyGoal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[f.key(userID, date)]
	if !ok {
		return goal.DailyGoal{}, goal.ErrNotFound
	}
	return row, nil
}

func (f *fakeStore) ExistingUserIDsForDate(_ context.Context, date time.Time) (map[uuid.UUID]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]struct{})
	day := date.UTC().Format("2006-01-02")
	for k := range f.rows {
		if k.date == day {
			out[k.userID] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeStore) CountForDate(_ context.Context, date time.Time) (int64, error) {
	existing, _ := f.ExistingUserIDsForDate(context.Background(), date)
	return int64(len(existing)), nil
}

type fakeInvalidator struct {
	mu      sync.Mutex
	userIDs []string
	err     error
}

func (f *fakeInvalidator) InvalidateUserGoals(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userIDs = append(f.userIDs, userID)
	return f.err
}

func someUsers(n int) []user.User {
	out := make([]user.User, n)
	for i := range out {
		out[i] = user.User{ID: uuid.New()}
	}
	return out
}

func newTestPipeline(users []user.User, profiles *fakeProfiles, store *fakeStore) *DailyGoalsPipeline {
	if profiles == nil {
		profiles = &fakeProfiles{}
	}
	return NewDailyGoalsPipeline(
		&fakePopulation{users: users}, profiles, store,
		logger.NewNop(),
		Options{Workers: 4},
	)
}

func TestRun_FirstPassCreatesAll(t *testing.T) {
	users := someUsers(13)
	store := newFakeStore()
	p := newTestPipeline(users, nil, store)

	res, err := p.Run(context.Background(), RunParams{})
	require.NoError(t, err)

	assert.Equal(t, len(users), res.Examined)
	assert.Equal(t, len(users), res.Created)
	assert.Zero(t, res.Updated)
	assert.Zero(t, res.Skipped)
	assert.Zero(t, res.Errors)
	assert.Len(t, store.rows, len(users))
}

func TestRun_RerunUpdatesAll(t *testing.T) {
	users := someUsers(7)
	store := newFakeStore()
	p := newTestPipeline(users, nil, store)

	_, err := p.Run(context.Background(), RunParams{})
	require.NoError(t, err)
	res, err := p.Run(context.Background(), RunParams{})
	require.NoError(t, err)

	assert.Zero(t, res.Created)
	assert.Equal(t, len(users), res.Updated)
	assert.Zero(t, res.Skipped)
	assert.Zero(t, res.Errors)
	// Idempotent in effect: still exactly one row per user.
	assert.Len(t, store.rows, len(users))
}

func TestRun_OnlyMissingSkipsExisting(t *testing.T) {
	users := someUsers(6)
	store := newFakeStore()
	p := newTestPipeline(users, nil, store)

	// Materialize a subset first, then backfill.
	sub := newTestPipeline(users[:2], nil, store)
	_, err := sub.Run(context.Background(), RunParams{})
	require.NoError(t, err)

	res, err := p.Run(context.Background(), RunParams{OnlyMissing: true})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Created)
	assert.Equal(t, 2, res.Skipped)
	assert.Zero(t, res.Updated)
	assert.Zero(t, res.Errors)
}

func TestRun_PerUserFailuresDoNotAbortBatch(t *testing.T) {
	users := someUsers(10)
	store := newFakeStore()
	store.failFor[users[3].ID] = errors.New("connection reset")

	profiles := &fakeProfiles{
		failFor:  map[uuid.UUID]error{users[5].ID: errors.New("profile query timeout")},
		panicFor: map[uuid.UUID]bool{users[7].ID: true},
	}
	p := newTestPipeline(users, profiles, store)

	res, err := p.Run(context.Background(), RunParams{})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Errors)
	assert.Equal(t, 7, res.Created)

	byUser := make(map[uuid.UUID]UserResult)
	for _, d := range res.Details {
		byUser[d.UserID] = d
	}
	assert.Contains(t, byUser[users[3].ID].Message, "upsert goal")
	assert.Contains(t, byUser[users[5].ID].Message, "load profile")
	assert.Contains(t, byUser[users[7].ID].Message, "panic")
}

func TestRun_ConservationInvariant(t *testing.T) {
	users := someUsers(20)
	store := newFakeStore()
	store.failFor[users[0].ID] = errors.New("boom")
	store.failFor[users[19].ID] = errors.New("boom")
	p := newTestPipeline(users, nil, store)

	res, err := p.Run(context.Background(), RunParams{})
	require.NoError(t, err)

	assert.Equal(t, res.Examined, res.Created+res.Updated+res.Skipped+res.Errors)
	assert.Len(t, res.Details, res.Examined)
}

func TestRun_DetailsKeepPopulationOrder(t *testing.T) {
	users := someUsers(9)
	store := newFakeStore()
	p := newTestPipeline(users, nil, store)

	res, err := p.Run(context.Background(), RunParams{})
	require.NoError(t, err)

	require.Len(t, res.Details, len(users))
	for i, d := range res.Details {
		assert.Equal(t, users[i].ID, d.UserID)
	}
}

func TestRun_ListUsersFailureIsFatal(t *testing.T) {
	p := NewDailyGoalsPipeline(
		&fakePopulation{err: errors.New("db down")},
		&fakeProfiles{}, newFakeStore(),
		logger.NewNop(), Options{},
	)

	_, err := p.Run(context.Background(), RunParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list users")
}

func TestRunForUser_CreatesThenUpdates(t *testing.T) {
	u := user.User{ID: uuid.New()}
	store := newFakeStore()
	p := newTestPipeline([]user.User{u}, nil, store)

	first := p.RunForUser(context.Background(), u, time.Time{})
	assert.Equal(t, OutcomeCreated, first.Outcome)

	second := p.RunForUser(context.Background(), u, time.Time{})
	assert.Equal(t, OutcomeUpdated, second.Outcome)

	assert.Len(t, store.rows, 1)
}

func TestRun_InvalidatesCacheForWrittenUsers(t *testing.T) {
	users := someUsers(5)
	store := newFakeStore()
	inv := &fakeInvalidator{}
	p := NewDailyGoalsPipeline(
		&fakePopulation{users: users}, &fakeProfiles{}, store,
		logger.NewNop(),
		Options{Workers: 4, Cache: inv},
	)

	// Materialize two users up front so the backfill run skips them.
	sub := newTestPipeline(users[:2], nil, store)
	_, err := sub.Run(context.Background(), RunParams{})
	require.NoError(t, err)

	res, err := p.Run(context.Background(), RunParams{OnlyMissing: true})
	require.NoError(t, err)
	require.Equal(t, 3, res.Created)
	require.Equal(t, 2, res.Skipped)

	// Only the written users get invalidated; skipped users keep their entry.
	assert.Len(t, inv.userIDs, 3)
	seen := make(map[string]struct{}, len(inv.userIDs))
	for _, id := range inv.userIDs {
		seen[id] = struct{}{}
	}
	for _, u := range users[2:] {
		assert.Contains(t, seen, u.ID.String())
	}
	for _, u := range users[:2] {
		assert.NotContains(t, seen, u.ID.String())
	}
}

func TestRun_InvalidationErrorDoesNotFailUser(t *testing.T) {
	users := someUsers(3)
	store := newFakeStore()
	inv := &fakeInvalidator{err: errors.New("redis gone")}
	p := NewDailyGoalsPipeline(
		&fakePopulation{users: users}, &fakeProfiles{}, store,
		logger.NewNop(),
		Options{Workers: 2, Cache: inv},
	)

	res, err := p.Run(context.Background(), RunParams{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)
	assert.Zero(t, res.Errors)
}

func TestRun_UsesProfileWhenPresent(t *testing.T) {
	u := user.User{ID: uuid.New()}
	w := 80.0
	profiles := &fakeProfiles{profiles: map[uuid.UUID]user.Profile{
		u.ID: {UserID: u.ID, WeightKg: &w},
	}}
	store := newFakeStore()
	p := newTestPipeline([]user.User{u}, profiles, store)

	_, err := p.Run(context.Background(), RunParams{})
	require.NoError(t, err)

	row, err := store.GetByUserAndDate(context.Background(), u.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 128, row.Targets.ProteinG) // 80 * 1.6
}
