package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Workout   WorkoutConfig   `yaml:"workout"`
	LogLevel  string          `yaml:"log_level"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig selects the store. SQLite only needs Path; the remaining
// fields describe a PostgreSQL server.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// AuthConfig guards import and delete-all. An empty key leaves them open.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type WorkoutConfig struct {
	// Timezone is an IANA name used to bucket workouts by weekday and month.
	Timezone string `yaml:"timezone"`
}

// DSN returns the connection string for database/sql.
func (d DatabaseConfig) DSN() string {
	if d.Driver == DriverPostgres {
		sslmode := d.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			url.PathEscape(d.User), url.PathEscape(d.Password), d.Host, d.Port, d.Name, sslmode)
	}
	return "file:" + d.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// MigrateURL returns the database URL golang-migrate expects.
func (d DatabaseConfig) MigrateURL() string {
	if d.Driver == DriverPostgres {
		return d.DSN()
	}
	return "sqlite://" + d.Path
}

// Location resolves the workout timezone, defaulting to the host's local zone.
func (w WorkoutConfig) Location() (*time.Location, error) {
	if w.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", w.Timezone, err)
	}
	return loc, nil
}

// SlogLevel maps log_level onto a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix KETTLEBELL_ and underscore-separated paths:
//
//	KETTLEBELL_SERVER_HOST, KETTLEBELL_SERVER_PORT,
//	KETTLEBELL_DB_DRIVER, KETTLEBELL_DB_PATH,
//	KETTLEBELL_DB_HOST, KETTLEBELL_DB_PORT, KETTLEBELL_DB_NAME,
//	KETTLEBELL_DB_USER, KETTLEBELL_DB_PASSWORD, KETTLEBELL_DB_SSLMODE,
//	KETTLEBELL_AUTH_API_KEY, KETTLEBELL_TAILSCALE_ENABLED,
//	KETTLEBELL_TIMEZONE, KETTLEBELL_LOG_LEVEL
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KETTLEBELL_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("KETTLEBELL_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("KETTLEBELL_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("KETTLEBELL_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("KETTLEBELL_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("KETTLEBELL_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("KETTLEBELL_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("KETTLEBELL_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("KETTLEBELL_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("KETTLEBELL_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("KETTLEBELL_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("KETTLEBELL_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	if v := os.Getenv("KETTLEBELL_TIMEZONE"); v != "" {
		cfg.Workout.Timezone = v
	}
	if v := os.Getenv("KETTLEBELL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	if cfg.Database.Driver == DriverSQLite && cfg.Database.Path == "" {
		cfg.Database.Path = "kettlebell.db"
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "kettlebell"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}
	if _, err := c.Workout.Location(); err != nil {
		return err
	}
	return nil
}
