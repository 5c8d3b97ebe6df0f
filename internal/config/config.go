package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// пусто: работаем на in-memory хранилище
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Env         string `env:"ENV" envDefault:"dev"` // dev|prod
	SentryDSN   string `env:"SENTRY_DSN"`
	Release     string `env:"RELEASE" envDefault:"dev"`
	TZ          string `env:"TZ" envDefault:"UTC"`
	JWTSecret   string `env:"JWT_SECRET"`

	IdempotencyTTL    time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"10m"`
	StreakBonusEvery  int           `env:"STREAK_BONUS_EVERY" envDefault:"7"`
	StreakBonusPoints int64         `env:"STREAK_BONUS_POINTS" envDefault:"10"`
	TeacherBudget     int64         `env:"TEACHER_BUDGET" envDefault:"1000"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"1h"`
	NotifyChannel     string        `env:"NOTIFY_CHANNEL" envDefault:"amistapp:notifications"`
	BackupURL         string        `env:"BACKUP_URL" envDefault:"http://pgbackup:8081"`

	loc *time.Location
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	// TZ задаёт границу суток для серий, молча подменять её нельзя
	loc, tzErr := time.LoadLocation(cfg.TZ)
	if tzErr != nil {
		tzErr = fmt.Errorf("TZ %q: %w", cfg.TZ, tzErr)
	}
	cfg.loc = loc
	if err := errors.Join(tzErr, cfg.Validate()); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.StreakBonusEvery < 0 {
		errs = append(errs, errors.New("STREAK_BONUS_EVERY must be >= 0"))
	}
	if c.StreakBonusPoints < 0 {
		errs = append(errs, errors.New("STREAK_BONUS_POINTS must be >= 0"))
	}
	if c.TeacherBudget < 0 {
		errs = append(errs, errors.New("TEACHER_BUDGET must be >= 0"))
	}
	if c.IdempotencyTTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}
	if c.Env == "prod" && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in prod"))
	}
	return errors.Join(errs...)
}

func (c *Config) UsePostgres() bool { return c.DatabaseURL != "" }

func (c *Config) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}
