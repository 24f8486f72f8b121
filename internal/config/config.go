// Package config loads the application configuration from an optional YAML
// file, a .env file, and TODO_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// DefaultMaxBytes mirrors the usual 5 MiB browser localStorage quota
const DefaultMaxBytes = 5 << 20

// Config is the root of config.yaml
type Config struct {
	Storage Storage `yaml:"storage"`
	Redis   Redis   `yaml:"redis"`
	Log     Log     `yaml:"log"`
}

// Storage selects where the task list is persisted
type Storage struct {
	Driver   string `yaml:"driver"`    // sqlite, memory or redis
	Path     string `yaml:"path"`      // sqlite database file
	MaxBytes int    `yaml:"max_bytes"` // per-value write limit, <= 0 disables
}

// Redis is only used when storage.driver is redis
type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"` // Supports ${VAR}
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Log controls the zap logger
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // empty means stderr
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Storage: Storage{
			Driver:   DriverSQLite,
			MaxBytes: DefaultMaxBytes,
		},
		Redis: Redis{
			Prefix:  "todo:",
			Timeout: 2 * time.Second,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/todo/config.yaml
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "todo", "config.yaml")
}

// DefaultLogFile returns $XDG_STATE_HOME/todo/todo.log
func DefaultLogFile() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "todo.log"
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "todo", "todo.log")
}

// Load reads the YAML file at path on top of the defaults. A missing file is
// not an error. Environment variables are expanded inside the file and
// TODO_* variables override it.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("TODO_STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := os.LookupEnv("TODO_DB_PATH"); ok {
		c.Storage.Path = v
	}
	if v, ok := os.LookupEnv("TODO_REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := os.LookupEnv("TODO_LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv("TODO_LOG_FILE"); ok {
		c.Log.File = v
	}
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverMemory:
	case DriverRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when storage.driver is redis")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
