package app

import (
	"context"
	"fmt"
	"time"

	"nutrisync/internal/config"
	"nutrisync/internal/database"
	"nutrisync/internal/database/migration"
	dbpostgres "nutrisync/internal/database/postgres"
	"nutrisync/internal/infrastructure/cache"
	"nutrisync/internal/infrastructure/textgen"
	"nutrisync/internal/logger"
	"nutrisync/internal/maintenance"
	"nutrisync/internal/pipeline"
	"nutrisync/internal/pkg/jwt"
	"nutrisync/internal/repository"
	"nutrisync/internal/scheduler"
	"nutrisync/internal/usecase"
	"nutrisync/internal/ws"
	"nutrisync/migrations"
)

// Container owns every long-lived dependency. Construction order follows the
// dependency graph: storage, repositories, domain services, scheduler.
type Container struct {
	Config config.Config
	Log    logger.Logger

	DB    database.DB
	Cache *cache.Redis

	Users    *repository.PostgresUserRepository
	Profiles *repository.PostgresProfileRepository
	Goals    *repository.PostgresDailyGoalRepository
	Recs     *repository.PostgresRecommendationRepository
	Sessions *repository.PostgresSessionRepository

	JWT      jwt.Service
	Pipeline *pipeline.DailyGoalsPipeline
	Monitor  *maintenance.Monitor
	Sched    *scheduler.Scheduler
	WSHub    *ws.Hub

	AuthUC    *usecase.Auth
	ProfileUC *usecase.Profile
	GoalUC    *usecase.Goal
	RecUC     *usecase.Recommendation
}

func NewContainer(cfg config.Config, log logger.Logger) (*Container, error) {
	if log == nil {
		log = logger.NewNop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	runner := migration.Runner{FS: migrations.FS}
	if err := runner.Run(ctx, db.SQLDB()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	c := &Container{Config: cfg, Log: log, DB: db}

	c.Cache = cache.NewRedis(cache.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		TTL:      cfg.Redis.TTL,
	}, log)

	c.Users = repository.NewPostgresUserRepository(db)
	c.Profiles = repository.NewPostgresProfileRepository(db)
	c.Goals = repository.NewPostgresDailyGoalRepository(db)
	c.Recs = repository.NewPostgresRecommendationRepository(db)
	c.Sessions = repository.NewPostgresSessionRepository(db)

	c.JWT = jwt.NewHMACService(
		cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiresIn, cfg.JWT.RefreshExpiresIn,
	)

	c.WSHub = ws.NewHub(log)
	ws.SetDefaultHub(c.WSHub)

	c.Pipeline = pipeline.NewDailyGoalsPipeline(c.Users, c.Profiles, c.Goals, log, pipeline.Options{
		Workers:      cfg.Batch.Workers,
		Pacing:       cfg.Batch.Pacing,
		VerifyWrites: cfg.Batch.VerifyWrites,
		Cache:        c.Cache,
	})

	c.Monitor = maintenance.NewMonitor(db, c.Recs, c.Sessions, log, maintenance.Options{
		GoalRetention:           cfg.Maintenance.GoalRetention,
		RecommendationRetention: cfg.Maintenance.RecommendationRetention,
		CleanupTimeout:          cfg.Maintenance.CleanupTimeout,
		WarningThreshold:        cfg.Maintenance.WarningThreshold,
		CriticalThreshold:       cfg.Maintenance.CriticalThreshold,
	})

	gen := textgen.NewHTTPGenerator(cfg.Generator.BaseURL, cfg.Generator.APIKey, cfg.Generator.Model, log)

	c.AuthUC = usecase.NewAuthUsecase(c.Users, c.Sessions, c.JWT, cfg.JWT.RefreshExpiresIn, log)
	c.ProfileUC = usecase.NewProfileUsecase(c.Users, c.Profiles, c.Pipeline, c.Cache, log)
	c.GoalUC = usecase.NewGoalUsecase(c.Users, c.Profiles, c.Goals, c.Pipeline, c.Cache, log)
	c.RecUC = usecase.NewRecommendationUsecase(c.Users, c.Profiles, c.Goals, c.Recs, gen, log)

	c.Sched = scheduler.New(log, scheduler.Options{
		MinSpacing:   cfg.Scheduler.MinSpacing,
		StartupDelay: cfg.Scheduler.StartupDelay,
	})
	if err := c.registerJobs(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register jobs: %w", err)
	}

	return c, nil
}

func (c *Container) registerJobs() error {
	jobs := []scheduler.Job{
		{
			Kind: scheduler.JobDailyGoals,
			Spec: c.Config.Scheduler.DailyGoalsSpec,
			Run: func(ctx context.Context) (any, error) {
				return c.Pipeline.Run(ctx, pipeline.RunParams{})
			},
			// The startup pass only backfills users with no row yet; full
			// recomputation waits for the timed run.
			EagerRun: func(ctx context.Context) (any, error) {
				return c.Pipeline.Run(ctx, pipeline.RunParams{OnlyMissing: true})
			},
		},
		{
			Kind: scheduler.JobRecommendations,
			Spec: c.Config.Scheduler.RecommendationsSpec,
			Run: func(ctx context.Context) (any, error) {
				return c.RecUC.GenerateAll(ctx)
			},
		},
		{
			Kind: scheduler.JobHealthCheck,
			Spec: c.Config.Scheduler.HealthCheckSpec,
			Run: func(ctx context.Context) (any, error) {
				return c.runHealthCheck(ctx)
			},
			MinSpacing: time.Minute,
		},
	}
	for _, j := range jobs {
		if err := c.Sched.Register(j); err != nil {
			return err
		}
	}
	return nil
}

// runHealthCheck escalates through the maintenance ladder: warning triggers
// cleanup, critical triggers emergency recovery.
func (c *Container) runHealthCheck(ctx context.Context) (any, error) {
	health, err := c.Monitor.CheckHealth(ctx)
	if err != nil {
		return nil, err
	}

	switch health.Status {
	case maintenance.StatusCritical:
		if !c.Monitor.EmergencyRecovery(ctx) {
			return health, fmt.Errorf("emergency recovery failed")
		}
	case maintenance.StatusWarning:
		if _, err := c.Monitor.Cleanup(ctx); err != nil {
			return health, err
		}
	}
	return health, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
