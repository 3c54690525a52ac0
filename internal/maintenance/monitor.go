// Package maintenance watches storage health and runs retention cleanup and
// emergency recovery for the goal materialization tables.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"nutrisync/internal/database"
	"nutrisync/internal/logger"
)

type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Health is the storage health signal consumed by the scheduler.
type Health struct {
	Status               Status `json:"status"`
	ExpiredSessions      int64  `json:"expired_sessions"`
	StaleRecommendations int64  `json:"stale_recommendations"`
	NeedsCleanup         bool   `json:"needs_cleanup"`
}

type RecommendationCounter interface {
	CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type SessionCounter interface {
	CountExpired(ctx context.Context, now time.Time) (int64, error)
}

type Options struct {
	GoalRetention           time.Duration // default 90 days
	RecommendationRetention time.Duration // default 30 days
	CleanupTimeout          time.Duration // default 60s
	WarningThreshold        int64
	CriticalThreshold       int64
}

type Monitor struct {
	db       database.DB
	recs     RecommendationCounter
	sessions SessionCounter
	log      logger.Logger

	goalRetention  time.Duration
	recRetention   time.Duration
	cleanupTimeout time.Duration
	warnThreshold  int64
	critThreshold  int64
}

func NewMonitor(db database.DB, recs RecommendationCounter, sessions SessionCounter, log logger.Logger, opts Options) *Monitor {
	if log == nil {
		log = logger.NewNop()
	}
	m := &Monitor{
		db:             db,
		recs:           recs,
		sessions:       sessions,
		log:            log,
		goalRetention:  opts.GoalRetention,
		recRetention:   opts.RecommendationRetention,
		cleanupTimeout: opts.CleanupTimeout,
		warnThreshold:  opts.WarningThreshold,
		critThreshold:  opts.CriticalThreshold,
	}
	if m.goalRetention <= 0 {
		m.goalRetention = 90 * 24 * time.Hour
	}
	if m.recRetention <= 0 {
		m.recRetention = 30 * 24 * time.Hour
	}
	if m.cleanupTimeout <= 0 {
		m.cleanupTimeout = 60 * time.Second
	}
	if m.warnThreshold <= 0 {
		m.warnThreshold = 100
	}
	if m.critThreshold <= m.warnThreshold {
		m.critThreshold = m.warnThreshold * 10
	}
	return m
}

// CheckHealth derives the health signal from counts of stale auxiliary rows.
// Escalates healthy -> warning -> critical as the combined backlog crosses
// the fixed thresholds.
func (m *Monitor) CheckHealth(ctx context.Context) (Health, error) {
	now := time.Now().UTC()

	expired, err := m.sessions.CountExpired(ctx, now)
	if err != nil {
		return Health{}, fmt.Errorf("count expired sessions: %w", err)
	}
	stale, err := m.recs.CountOlderThan(ctx, now.Add(-m.recRetention))
	if err != nil {
		return Health{}, fmt.Errorf("count stale recommendations: %w", err)
	}

	h := Health{
		Status:               StatusHealthy,
		ExpiredSessions:      expired,
		StaleRecommendations: stale,
	}
	backlog := expired + stale
	switch {
	case backlog >= m.critThreshold:
		h.Status = StatusCritical
	case backlog >= m.warnThreshold:
		h.Status = StatusWarning
	}
	h.NeedsCleanup = backlog >= m.warnThreshold
	return h, nil
}

// Cleanup deletes rows past their retention windows inside one transaction
// bounded by the cleanup timeout. Returns the number of rows removed.
func (m *Monitor) Cleanup(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cleanupTimeout)
	defer cancel()

	now := time.Now().UTC()

	tx, err := m.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin cleanup tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var total int64

	n, err := tx.Exec(ctx, `DELETE FROM daily_goals WHERE goal_date < $1`, now.Add(-m.goalRetention))
	if err != nil {
		return 0, fmt.Errorf("delete aged goals: %w", err)
	}
	total += n

	n, err = tx.Exec(ctx, `DELETE FROM ai_recommendations WHERE created_at < $1`, now.Add(-m.recRetention))
	if err != nil {
		return 0, fmt.Errorf("delete aged recommendations: %w", err)
	}
	total += n

	n, err = tx.Exec(ctx, `DELETE FROM user_sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	total += n

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit cleanup tx: %w", err)
	}

	m.log.Info("maintenance cleanup finished", "deleted_rows", total)
	return total, nil
}

// EmergencyRecovery verifies connectivity, runs cleanup, asks the storage
// engine to refresh planner statistics, and re-verifies that the critical
// tables answer counts. Returns false when any step fails; the scheduler
// escalates on false.
func (m *Monitor) EmergencyRecovery(ctx context.Context) bool {
	if err := m.db.Ping(ctx); err != nil {
		m.log.Error("recovery: storage unreachable", "error", err)
		return false
	}

	if _, err := m.Cleanup(ctx); err != nil {
		m.log.Error("recovery: cleanup failed", "error", err)
		return false
	}

	if _, err := m.db.Exec(ctx, `ANALYZE daily_goals`); err != nil {
		m.log.Error("recovery: analyze failed", "error", err)
		return false
	}

	for _, table := range []string{"users", "daily_goals"} {
		var n int64
		if err := m.db.QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			m.log.Error("recovery: table verification failed", "table", table, "error", err)
			return false
		}
	}

	m.log.Info("emergency recovery completed")
	return true
}
