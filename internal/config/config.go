// Package config loads cadence configuration from defaults, an optional YAML
// file, an optional .env file and CADENCE_* environment variables, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/cadence/internal/calendar"
)

// Config defines cadence configuration.
type Config struct {
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Engine    EngineConfig    `yaml:"engine"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	HTTP      HTTPConfig      `yaml:"http"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type EngineConfig struct {
	Timezone   string         `yaml:"timezone"`
	Workers    int            `yaml:"workers"`
	RunTimeout time.Duration  `yaml:"run_timeout"`
	Backfill   BackfillConfig `yaml:"backfill"`
}

// BackfillConfig toggles the back-fill pass. Until, when set, is the last
// day (YYYY-MM-DD) on which back-fill runs.
type BackfillConfig struct {
	Enabled bool   `yaml:"enabled"`
	Until   string `yaml:"until"`
}

type SchedulerConfig struct {
	RunAt   string        `yaml:"run_at"`
	LockTTL time.Duration `yaml:"lock_ttl"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DB:  DBConfig{Path: "cadence.db"},
		Log: LogConfig{Level: "info", Format: "console"},
		Engine: EngineConfig{
			Timezone:   "UTC",
			Workers:    1,
			RunTimeout: 10 * time.Minute,
			Backfill:   BackfillConfig{Enabled: true},
		},
		Scheduler: SchedulerConfig{RunAt: "02:00", LockTTL: 30 * time.Minute},
		HTTP:      HTTPConfig{Addr: ":8080"},
	}
}

// Load reads configuration. path names a YAML file; when empty,
// CADENCE_CONFIG is consulted. envFiles are dotenv files loaded into the
// process environment without overriding variables already set; missing
// files are skipped. The result is validated.
func Load(path string, envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("CADENCE_CONFIG")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"CADENCE_DB_PATH":        &cfg.DB.Path,
		"CADENCE_LOG_LEVEL":      &cfg.Log.Level,
		"CADENCE_LOG_FORMAT":     &cfg.Log.Format,
		"CADENCE_TIMEZONE":       &cfg.Engine.Timezone,
		"CADENCE_BACKFILL_UNTIL": &cfg.Engine.Backfill.Until,
		"CADENCE_RUN_AT":         &cfg.Scheduler.RunAt,
		"CADENCE_HTTP_ADDR":      &cfg.HTTP.Addr,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v := os.Getenv("CADENCE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CADENCE_WORKERS: %w", err)
		}
		cfg.Engine.Workers = n
	}
	if v := os.Getenv("CADENCE_RUN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CADENCE_RUN_TIMEOUT: %w", err)
		}
		cfg.Engine.RunTimeout = d
	}
	if v := os.Getenv("CADENCE_BACKFILL_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CADENCE_BACKFILL_ENABLED: %w", err)
		}
		cfg.Engine.Backfill.Enabled = b
	}
	return nil
}

// Validate checks values that cannot be caught by YAML decoding.
func (c Config) Validate() error {
	if c.DB.Path == "" {
		return errors.New("db.path is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers must be at least 1, got %d", c.Engine.Workers)
	}
	if c.Engine.RunTimeout < 0 {
		return fmt.Errorf("engine.run_timeout must not be negative, got %s", c.Engine.RunTimeout)
	}
	if _, err := c.BackfillUntil(); err != nil {
		return err
	}
	if _, _, err := c.RunAt(); err != nil {
		return err
	}
	if c.Scheduler.LockTTL <= 0 {
		return fmt.Errorf("scheduler.lock_ttl must be positive, got %s", c.Scheduler.LockTTL)
	}
	return nil
}

// Location resolves engine.timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Engine.Timezone)
	if err != nil {
		return nil, fmt.Errorf("engine.timezone: %w", err)
	}
	return loc, nil
}

// BackfillUntil parses engine.backfill.until in the reference zone. The zero
// time means no cutoff.
func (c Config) BackfillUntil() (time.Time, error) {
	if c.Engine.Backfill.Until == "" {
		return time.Time{}, nil
	}
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	t, err := calendar.ParseDay(c.Engine.Backfill.Until, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("engine.backfill.until: %w", err)
	}
	return t, nil
}

// RunAt parses scheduler.run_at as HH:MM.
func (c Config) RunAt() (hour, minute int, err error) {
	t, err := time.Parse("15:04", c.Scheduler.RunAt)
	if err != nil {
		return 0, 0, fmt.Errorf("scheduler.run_at %q: want HH:MM", c.Scheduler.RunAt)
	}
	return t.Hour(), t.Minute(), nil
}
