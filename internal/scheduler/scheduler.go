// Package scheduler fires recurring maintenance jobs on cron triggers and
// guards every trigger source (timers and the manual API) behind per-kind
// single-flight execution with a minimum re-run spacing window.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"nutrisync/internal/logger"
)

type JobKind string

const (
	JobDailyGoals      JobKind = "daily_goals"
	JobRecommendations JobKind = "recommendations"
	JobHealthCheck     JobKind = "health_check"
)

var (
	// ErrJobRunning means an execution of this kind is already in flight.
	// Callers treat it as "nothing needed doing", not as a failure.
	ErrJobRunning = errors.New("job already running")
	// ErrRanRecently means the job completed within its spacing window.
	ErrRanRecently = errors.New("job ran recently")
	ErrUnknownJob  = errors.New("unknown job kind")
)

// JobFunc is a job body. The returned value is surfaced to manual callers
// (e.g. a batch run summary) and ignored on timed runs.
type JobFunc func(ctx context.Context) (any, error)

// Job is one registered recurring job.
type Job struct {
	Kind JobKind
	// Spec is a standard 5-field cron expression.
	Spec string
	Run  JobFunc
	// EagerRun, when set, replaces Run for the one startup pass.
	EagerRun JobFunc
	// MinSpacing overrides the scheduler-wide spacing window when positive.
	MinSpacing time.Duration
}

// JobState is the bookkeeping for one job kind. Mutated only under the
// scheduler mutex.
type JobState struct {
	Kind         JobKind   `json:"kind"`
	Running      bool      `json:"running"`
	LastStarted  time.Time `json:"last_started,omitzero"`
	LastFinished time.Time `json:"last_finished,omitzero"`
	LastError    string    `json:"last_error,omitempty"`
	Runs         int       `json:"runs"`
}

type Options struct {
	// MinSpacing is the default window a completed job blocks re-runs for.
	MinSpacing time.Duration
	// StartupDelay is how long after Start the eager pass fires.
	StartupDelay time.Duration
}

type registered struct {
	job   Job
	state JobState
}

type Scheduler struct {
	log  logger.Logger
	cron *cron.Cron

	minSpacing   time.Duration
	startupDelay time.Duration

	mu   sync.Mutex
	jobs map[JobKind]*registered

	wg         sync.WaitGroup
	eagerTimer *time.Timer
}

func New(log logger.Logger, opts Options) *Scheduler {
	if log == nil {
		log = logger.NewNop()
	}
	minSpacing := opts.MinSpacing
	if minSpacing <= 0 {
		minSpacing = 30 * time.Minute
	}
	startupDelay := opts.StartupDelay
	if startupDelay <= 0 {
		startupDelay = 10 * time.Second
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &Scheduler{
		log:          log,
		cron:         cron.New(cron.WithParser(parser)),
		minSpacing:   minSpacing,
		startupDelay: startupDelay,
		jobs:         make(map[JobKind]*registered),
	}
}

func (s *Scheduler) Register(j Job) error {
	if j.Kind == "" || j.Run == nil {
		return errors.New("job needs a kind and a body")
	}

	s.mu.Lock()
	if _, dup := s.jobs[j.Kind]; dup {
		s.mu.Unlock()
		return fmt.Errorf("job %s already registered", j.Kind)
	}
	s.jobs[j.Kind] = &registered{job: j, state: JobState{Kind: j.Kind}}
	s.mu.Unlock()

	kind := j.Kind
	_, err := s.cron.AddFunc(j.Spec, func() {
		s.runTimed(kind)
	})
	if err != nil {
		s.mu.Lock()
		delete(s.jobs, j.Kind)
		s.mu.Unlock()
		return fmt.Errorf("schedule job %s: %w", j.Kind, err)
	}
	return nil
}

// Start begins firing cron triggers and schedules one eager pass of all jobs
// so a freshly started process backfills without waiting for the next timer.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.eagerTimer = time.AfterFunc(s.startupDelay, s.eagerPass)
	s.log.Info("scheduler started", "jobs", len(s.kinds()), "startup_delay", s.startupDelay.String())
}

// Stop halts triggers and waits for running jobs, up to the context deadline.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.eagerTimer != nil {
		s.eagerTimer.Stop()
	}
	cronCtx := s.cron.Stop()
	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow executes a job synchronously on behalf of a manual trigger, under
// the same single-flight and spacing guards as timed runs.
func (s *Scheduler) RunNow(ctx context.Context, kind JobKind) (any, error) {
	s.mu.Lock()
	r, ok := s.jobs[kind]
	if !ok {
		s.mu.Unlock()
		return nil, ErrUnknownJob
	}
	if err := s.tryStartLocked(r); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	return s.execute(ctx, r, r.job.Run)
}

// Snapshot returns a copy of every job's state, in registration-stable order.
func (s *Scheduler) Snapshot() []JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobState, 0, len(s.jobs))
	for _, kind := range []JobKind{JobDailyGoals, JobRecommendations, JobHealthCheck} {
		if r, ok := s.jobs[kind]; ok {
			out = append(out, r.state)
		}
	}
	for kind, r := range s.jobs {
		switch kind {
		case JobDailyGoals, JobRecommendations, JobHealthCheck:
		default:
			out = append(out, r.state)
		}
	}
	return out
}

func (s *Scheduler) runTimed(kind JobKind) {
	s.mu.Lock()
	r, ok := s.jobs[kind]
	if !ok {
		s.mu.Unlock()
		return
	}
	if err := s.tryStartLocked(r); err != nil {
		s.mu.Unlock()
		s.log.Info("job trigger skipped", "job", kind, "reason", err.Error())
		return
	}
	s.mu.Unlock()

	if _, err := s.execute(context.Background(), r, r.job.Run); err != nil {
		s.log.Error("job failed", "job", kind, "error", err)
	}
}

func (s *Scheduler) eagerPass() {
	s.log.Info("scheduler eager pass")
	for _, kind := range s.kinds() {
		s.mu.Lock()
		r, ok := s.jobs[kind]
		if !ok {
			s.mu.Unlock()
			continue
		}
		fn := r.job.Run
		if r.job.EagerRun != nil {
			fn = r.job.EagerRun
		}
		if err := s.tryStartLocked(r); err != nil {
			s.mu.Unlock()
			s.log.Info("eager pass skipped", "job", kind, "reason", err.Error())
			continue
		}
		s.mu.Unlock()

		if _, err := s.execute(context.Background(), r, fn); err != nil {
			s.log.Error("eager pass job failed", "job", kind, "error", err)
		}
	}
}

// tryStartLocked transitions Idle->Running. Caller holds s.mu; this is the
// single serialization point, so two concurrent triggers can never both
// observe Idle.
func (s *Scheduler) tryStartLocked(r *registered) error {
	if r.state.Running {
		return ErrJobRunning
	}
	spacing := r.job.MinSpacing
	if spacing <= 0 {
		spacing = s.minSpacing
	}
	if !r.state.LastFinished.IsZero() && time.Since(r.state.LastFinished) < spacing {
		return ErrRanRecently
	}
	r.state.Running = true
	r.state.LastStarted = time.Now()
	return nil
}

// execute runs the body after a successful Idle->Running transition and
// always transitions back to Idle, error or not.
func (s *Scheduler) execute(ctx context.Context, r *registered, fn JobFunc) (out any, err error) {
	s.wg.Add(1)
	defer s.wg.Done()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job panic: %v", rec)
		}
		s.mu.Lock()
		r.state.Running = false
		r.state.LastFinished = time.Now()
		r.state.Runs++
		if err != nil {
			r.state.LastError = err.Error()
		} else {
			r.state.LastError = ""
		}
		s.mu.Unlock()
	}()

	start := time.Now()
	out, err = fn(ctx)
	if err == nil {
		s.log.Info("job finished", "job", r.job.Kind, "duration", time.Since(start).String())
	}
	return out, err
}

func (s *Scheduler) kinds() []JobKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobKind, 0, len(s.jobs))
	for kind := range s.jobs {
		out = append(out, kind)
	}
	return out
}
