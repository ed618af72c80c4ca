package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingEnvironmentVariables = errors.New("missing required environment variables")
	ErrUnknownDriver               = errors.New("unknown database driver")
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env       string    `mapstructure:"env"`       // current application environment (local, dev, prod etc)
	LogLevel  string    `mapstructure:"log_level"` // zap level name: debug, info, warn, error
	DB        DB        `mapstructure:"database"`  // database configuration section
	HTTP      HTTP      `mapstructure:"http"`
	Telegram  Telegram  `mapstructure:"telegram"`
	Scheduler Scheduler `mapstructure:"scheduler"`
	Reminders Reminders `mapstructure:"reminders"`
}

// DB contains database-related configuration parameters.
type DB struct {
	Driver          string        `mapstructure:"driver"`            // postgres or sqlite
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	SQLitePath      string        `mapstructure:"sqlite_path"`       // database file for the sqlite driver
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// HTTP configures the JSON API server.
type HTTP struct {
	Address        string        `mapstructure:"address"`
	RateLimit      float64       `mapstructure:"rate_limit"` // requests per second per client, 0 disables limiting
	RateBurst      int           `mapstructure:"rate_burst"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Telegram configures the review bot.
type Telegram struct {
	Token      string `mapstructure:"-"`           // Telegram API token loaded from environment
	ReviewSize int    `mapstructure:"review_size"` // questions per /review session
	Debug      bool   `mapstructure:"debug"`
}

// Scheduler tunes the spaced repetition queue.
type Scheduler struct {
	DefaultExpectedSeconds float64 `mapstructure:"default_expected_seconds"`
	DueLimit               int     `mapstructure:"due_limit"`
	MaxDueLimit            int     `mapstructure:"max_due_limit"`
	UnseenLast             bool    `mapstructure:"unseen_last"`
}

// Reminders configures the due digest job.
type Reminders struct {
	Enabled       bool   `mapstructure:"enabled"`
	Cron          string `mapstructure:"cron"`
	MaxConcurrent int    `mapstructure:"max_concurrent"`
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// RequireTelegram checks that the bot token is configured.
func (c *Config) RequireTelegram() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("%w: TELEGRAM_API_TOKEN", ErrMissingEnvironmentVariables)
	}
	return nil
}

// Load reads configuration from the config directory, an optional .env file and
// environment variables. An empty dir means ./config.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = "./config"
	}

	// Load .env files if they exist. Variables already set in the environment win.
	for _, path := range []string{".env", filepath.Join(dir, ".env")} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	setDefaults(v)

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.Telegram.Token = v.GetString("telegram_api_token")
	cfg.DB.URL = v.GetString("database_url")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("log_level", "info")

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.sqlite_path", "jambprep.db")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")

	v.SetDefault("http.address", ":8080")
	v.SetDefault("http.rate_limit", 10)
	v.SetDefault("http.rate_burst", 20)
	v.SetDefault("http.request_timeout", "10s")

	v.SetDefault("telegram.review_size", 10)
	v.SetDefault("telegram.debug", false)

	v.SetDefault("scheduler.default_expected_seconds", 60)
	v.SetDefault("scheduler.due_limit", 20)
	v.SetDefault("scheduler.max_due_limit", 100)
	v.SetDefault("scheduler.unseen_last", false)

	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.cron", "0 7 * * *")
	v.SetDefault("reminders.max_concurrent", 10)
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case DriverPostgres:
		if c.DB.URL == "" {
			return fmt.Errorf("%w: DATABASE_URL", ErrMissingEnvironmentVariables)
		}
	case DriverSQLite:
		if c.DB.SQLitePath == "" {
			return fmt.Errorf("database.sqlite_path must be set for the sqlite driver")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.DB.Driver)
	}

	if c.Scheduler.DefaultExpectedSeconds <= 0 {
		return fmt.Errorf("scheduler.default_expected_seconds must be positive, got %v", c.Scheduler.DefaultExpectedSeconds)
	}
	if c.Scheduler.MaxDueLimit <= 0 || c.Scheduler.DueLimit <= 0 || c.Scheduler.DueLimit > c.Scheduler.MaxDueLimit {
		return fmt.Errorf("scheduler limits must satisfy 0 < due_limit <= max_due_limit, got %d and %d",
			c.Scheduler.DueLimit, c.Scheduler.MaxDueLimit)
	}
	return nil
}
