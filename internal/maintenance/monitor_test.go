package maintenance

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrisync/internal/database"
	"nutrisync/internal/logger"
)

type fakeRecCounter struct {
	count int64
	err   error
}

func (f *fakeRecCounter) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.count, f.err
}

type fakeSessionCounter struct {
	count int64
	err   error
}

func (f *fakeSessionCounter) CountExpired(ctx context.Context, now time.Time) (int64, error) {
	return f.count, f.err
}

type fakeRow struct {
	value int64
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if p, ok := dest[0].(*int64); ok {
		*p = r.value
	}
	return nil
}

type fakeTx struct {
	execs      []string
	execCounts map[string]int64
	failOn     string
	blockOn    string
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	t.execs = append(t.execs, query)
	if t.blockOn != "" && strings.Contains(query, t.blockOn) {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if t.failOn != "" && strings.Contains(query, t.failOn) {
		return 0, errors.New("exec failed")
	}
	for frag, n := range t.execCounts {
		if strings.Contains(query, frag) {
			return n, nil
		}
	}
	return 0, nil
}

func (t *fakeTx) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	return nil, errors.New("not implemented")
}

func (t *fakeTx) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return fakeRow{}
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeDB struct {
	tx       *fakeTx
	beginErr error
	pingErr  error
	execErr  error
	execs    []string
	rowValue int64
	rowErr   error
}

func (d *fakeDB) Ping(ctx context.Context) error { return d.pingErr }
func (d *fakeDB) Close() error                   { return nil }

func (d *fakeDB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	d.execs = append(d.execs, query)
	return 0, d.execErr
}

func (d *fakeDB) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	return nil, errors.New("not implemented")
}

func (d *fakeDB) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return fakeRow{value: d.rowValue, err: d.rowErr}
}

func (d *fakeDB) Begin(ctx context.Context) (database.Tx, error) {
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	return d.tx, nil
}

func (d *fakeDB) SQLDB() *sql.DB { return nil }

func newTestMonitor(db *fakeDB, recs *fakeRecCounter, sessions *fakeSessionCounter) *Monitor {
	return NewMonitor(db, recs, sessions, logger.NewNop(), Options{
		WarningThreshold:  100,
		CriticalThreshold: 1000,
	})
}

func TestCheckHealth_Healthy(t *testing.T) {
	m := newTestMonitor(&fakeDB{}, &fakeRecCounter{count: 10}, &fakeSessionCounter{count: 5})

	h, err := m.CheckHealth(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusHealthy, h.Status)
	assert.False(t, h.NeedsCleanup)
	assert.Equal(t, int64(5), h.ExpiredSessions)
	assert.Equal(t, int64(10), h.StaleRecommendations)
}

func TestCheckHealth_WarningAtThreshold(t *testing.T) {
	m := newTestMonitor(&fakeDB{}, &fakeRecCounter{count: 60}, &fakeSessionCounter{count: 40})

	h, err := m.CheckHealth(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusWarning, h.Status)
	assert.True(t, h.NeedsCleanup)
}

func TestCheckHealth_Critical(t *testing.T) {
	m := newTestMonitor(&fakeDB{}, &fakeRecCounter{count: 900}, &fakeSessionCounter{count: 200})

	h, err := m.CheckHealth(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusCritical, h.Status)
	assert.True(t, h.NeedsCleanup)
}

func TestCheckHealth_CountErrorPropagates(t *testing.T) {
	m := newTestMonitor(&fakeDB{}, &fakeRecCounter{}, &fakeSessionCounter{err: errors.New("db down")})

	_, err := m.CheckHealth(context.Background())
	assert.ErrorContains(t, err, "count expired sessions")
}

func TestCleanup_DeletesAllRetentionTargetsInOneTx(t *testing.T) {
	tx := &fakeTx{execCounts: map[string]int64{
		"daily_goals":        12,
		"ai_recommendations": 7,
		"user_sessions":      3,
	}}
	db := &fakeDB{tx: tx}
	m := newTestMonitor(db, &fakeRecCounter{}, &fakeSessionCounter{})

	deleted, err := m.Cleanup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(22), deleted)
	assert.True(t, tx.committed)
	require.Len(t, tx.execs, 3)
	assert.Contains(t, tx.execs[0], "daily_goals")
	assert.Contains(t, tx.execs[1], "ai_recommendations")
	assert.Contains(t, tx.execs[2], "user_sessions")
}

func TestCleanup_RollsBackOnError(t *testing.T) {
	tx := &fakeTx{failOn: "ai_recommendations"}
	db := &fakeDB{tx: tx}
	m := newTestMonitor(db, &fakeRecCounter{}, &fakeSessionCounter{})

	_, err := m.Cleanup(context.Background())
	assert.ErrorContains(t, err, "delete aged recommendations")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestCleanup_AbortsPastTimeout(t *testing.T) {
	tx := &fakeTx{blockOn: "ai_recommendations"}
	db := &fakeDB{tx: tx}
	m := NewMonitor(db, &fakeRecCounter{}, &fakeSessionCounter{}, logger.NewNop(), Options{
		CleanupTimeout: 25 * time.Millisecond,
	})

	start := time.Now()
	_, err := m.Cleanup(context.Background())
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorContains(t, err, "delete aged recommendations")
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
	assert.Less(t, elapsed, 5*time.Second)
}

func TestCleanup_BeginError(t *testing.T) {
	db := &fakeDB{beginErr: errors.New("pool exhausted")}
	m := newTestMonitor(db, &fakeRecCounter{}, &fakeSessionCounter{})

	_, err := m.Cleanup(context.Background())
	assert.ErrorContains(t, err, "begin cleanup tx")
}

func TestEmergencyRecovery_Succeeds(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeDB{tx: tx, rowValue: 42}
	m := newTestMonitor(db, &fakeRecCounter{}, &fakeSessionCounter{})

	ok := m.EmergencyRecovery(context.Background())
	assert.True(t, ok)
	assert.True(t, tx.committed)
	require.NotEmpty(t, db.execs)
	assert.Contains(t, db.execs[0], "ANALYZE")
}

func TestEmergencyRecovery_FailsWhenUnreachable(t *testing.T) {
	db := &fakeDB{pingErr: errors.New("connection refused")}
	m := newTestMonitor(db, &fakeRecCounter{}, &fakeSessionCounter{})

	assert.False(t, m.EmergencyRecovery(context.Background()))
}

func TestEmergencyRecovery_FailsWhenVerificationFails(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeDB{tx: tx, rowErr: errors.New("relation does not exist")}
	m := newTestMonitor(db, &fakeRecCounter{}, &fakeSessionCounter{})

	assert.False(t, m.EmergencyRecovery(context.Background()))
}
