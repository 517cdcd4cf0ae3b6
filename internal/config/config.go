package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

const defaultConfigPath = "config.yaml"

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      string `yaml:"port"`
	ServerURL string `yaml:"server_url"`
}

// DatabaseConfig selects the store and sizes its connection pool
type DatabaseConfig struct {
	Driver         string        `yaml:"driver"`
	Path           string        `yaml:"path"`
	DSN            string        `yaml:"dsn"`
	MaxOpenConns   int           `yaml:"max_open_conns"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Verbose bool   `yaml:"verbose"`
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      "3000",
			ServerURL: "http://localhost:3000",
		},
		Database: DatabaseConfig{
			Driver:         DriverSQLite,
			Path:           "urls.db",
			MaxOpenConns:   10,
			AcquireTimeout: 5 * time.Second,
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, a .env
// file and the environment, in increasing order of precedence. An explicit
// path must exist; otherwise CONFIG_PATH or ./config.yaml is used if present.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	required := path != ""
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		required = path != ""
	}
	if path == "" {
		path = defaultConfigPath
	}

	if err := cfg.loadFile(path, required); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// applyEnv overrides values with any environment variables that are set
func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setString("HOST", &c.Server.Host)
	setString("PORT", &c.Server.Port)
	setString("SERVER_URL", &c.Server.ServerURL)
	setString("DATABASE_DRIVER", &c.Database.Driver)
	setString("DATABASE_PATH", &c.Database.Path)
	setString("REDIS_ADDR", &c.Redis.Address)
	setString("REDIS_PASSWORD", &c.Redis.Password)
	setString("LOG_LEVEL", &c.Logging.Level)
	setString("LOG_FORMAT", &c.Logging.Format)

	// A connection string alone selects postgres
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Database.DSN = dsn
		if os.Getenv("DATABASE_DRIVER") == "" {
			c.Database.Driver = DriverPostgres
		}
	}

	if v := os.Getenv("DATABASE_MAX_CONNECTIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DATABASE_MAX_CONNECTIONS %q: %w", v, err)
		}
		c.Database.MaxOpenConns = n
	}

	return nil
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	if _, err := strconv.ParseUint(c.Server.Port, 10, 16); err != nil {
		return fmt.Errorf("server port must be a number between 0 and 65535, got: %q", c.Server.Port)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path cannot be empty for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database dsn cannot be empty for the postgres driver")
		}
	case DriverRedis:
		if c.Redis.Address == "" {
			return fmt.Errorf("redis address cannot be empty for the redis driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database max open connections must be positive, got: %d", c.Database.MaxOpenConns)
	}

	if c.Database.AcquireTimeout <= 0 {
		return fmt.Errorf("database acquire timeout must be positive, got: %v", c.Database.AcquireTimeout)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with '/', got: %q", c.Metrics.Path)
	}

	return nil
}
