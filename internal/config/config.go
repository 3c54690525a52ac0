package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Scheduler   SchedulerConfig
	Batch       BatchConfig
	Generator   GeneratorConfig
	Maintenance MaintenanceConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
	LogLevel    string
	// AdminToken gates the /admin route group on top of user auth.
	AdminToken string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	TTL      time.Duration
}

type JWTConfig struct {
	AccessSecret     string
	RefreshSecret    string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
}

type SchedulerConfig struct {
	// Cron specs use the standard 5-field format.
	DailyGoalsSpec      string
	RecommendationsSpec string
	HealthCheckSpec     string

	MinSpacing   time.Duration
	StartupDelay time.Duration
}

type BatchConfig struct {
	Workers      int
	Pacing       time.Duration
	VerifyWrites bool
}

type GeneratorConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type MaintenanceConfig struct {
	GoalRetention           time.Duration
	RecommendationRetention time.Duration
	CleanupTimeout          time.Duration
	WarningThreshold        int64
	CriticalThreshold       int64
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

func Load() (Config, error) {
	cfg := Config{}

	var missing []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key, fallback string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return fallback
		}
		return v
	}
	optDur := func(key string, fallback time.Duration) time.Duration {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return fallback
		}
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fallback
		}
		return d
	}
	optInt := func(key string, fallback int64) int64 {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return fallback
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return fallback
		}
		return n
	}
	optBool := func(key string, fallback bool) bool {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return fallback
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return b
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: req("APP_ENV"),
		HTTPPort:    req("HTTP_PORT"),
		LogLevel:    opt("LOG_LEVEL", "info"),
		AdminToken:  req("ADMIN_TOKEN"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:     opt("DB_HOST", "localhost"),
		DBPort:     opt("DB_PORT", "5432"),
		DBName:     req("DB_NAME"),
		DBUser:     req("DB_USER"),
		DBPassword: opt("DB_PASSWORD", ""),
		DBSSLMode:  opt("DB_SSL_MODE", "disable"),

		ConnectTimeout:        optDur("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:          int32(optInt("DB_POOL_MAX_CONNS", 10)),
		PoolMinConns:          int32(optInt("DB_POOL_MIN_CONNS", 2)),
		PoolMaxConnLifetime:   optDur("DB_POOL_MAX_CONN_LIFETIME", time.Hour),
		PoolMaxConnIdleTime:   optDur("DB_POOL_MAX_CONN_IDLE_TIME", 30*time.Minute),
		PoolHealthCheckPeriod: optDur("DB_POOL_HEALTH_CHECK_PERIOD", time.Minute),
	}

	cfg.Redis = RedisConfig{
		Host:     opt("REDIS_HOST", "localhost"),
		Port:     opt("REDIS_PORT", "6379"),
		Password: opt("REDIS_PASSWORD", ""),
		TTL:      optDur("REDIS_TTL", 10*time.Minute),
	}

	cfg.JWT = JWTConfig{
		AccessSecret:     req("JWT_ACCESS_SECRET"),
		RefreshSecret:    req("JWT_REFRESH_SECRET"),
		AccessExpiresIn:  optDur("JWT_ACCESS_EXPIRES_IN", 15*time.Minute),
		RefreshExpiresIn: optDur("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),
	}

	cfg.Scheduler = SchedulerConfig{
		DailyGoalsSpec:      opt("SCHED_DAILY_GOALS_SPEC", "0 6 * * *"),
		RecommendationsSpec: opt("SCHED_RECOMMENDATIONS_SPEC", "0 */6 * * *"),
		HealthCheckSpec:     opt("SCHED_HEALTH_CHECK_SPEC", "0 */4 * * *"),
		MinSpacing:          optDur("SCHED_MIN_SPACING", 30*time.Minute),
		StartupDelay:        optDur("SCHED_STARTUP_DELAY", 10*time.Second),
	}

	cfg.Batch = BatchConfig{
		Workers:      int(optInt("BATCH_WORKERS", 8)),
		Pacing:       optDur("BATCH_PACING", 0),
		VerifyWrites: optBool("BATCH_VERIFY_WRITES", false),
	}

	cfg.Generator = GeneratorConfig{
		BaseURL: opt("TEXTGEN_BASE_URL", ""),
		APIKey:  opt("TEXTGEN_API_KEY", ""),
		Model:   opt("TEXTGEN_MODEL", ""),
	}

	cfg.Maintenance = MaintenanceConfig{
		GoalRetention:           optDur("MAINT_GOAL_RETENTION", 90*24*time.Hour),
		RecommendationRetention: optDur("MAINT_REC_RETENTION", 30*24*time.Hour),
		CleanupTimeout:          optDur("MAINT_CLEANUP_TIMEOUT", 60*time.Second),
		WarningThreshold:        optInt("MAINT_WARNING_THRESHOLD", 100),
		CriticalThreshold:       optInt("MAINT_CRITICAL_THRESHOLD", 1000),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	return cfg, nil
}
