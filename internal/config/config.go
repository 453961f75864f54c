package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	EnvPrefix     = "VIBE"
	ConfigName    = ".vibe"
	ConfigPathEnv = "VIBE_CONFIG_PATH"
)

type Config struct {
	DatabaseDriver       string
	DatabaseDSN          string
	SessionDir           string
	LogFile              string
	JWTSecret            string
	TokenTTL             time.Duration
	CodeTTL              time.Duration
	Origin               string
	Development          bool
	FocusMinutes         int
	SwipeThreshold       float64
	SerializedWrites     bool
	ReconcileDelay       time.Duration
	DesktopNotifications bool
	SchedulerBuffer      int
}

func Default() Config {
	return Config{
		DatabaseDriver:       "sqlite3",
		DatabaseDSN:          "~/.vibe/vibe.db",
		SessionDir:           "~/.vibe/session",
		LogFile:              "~/.vibe/vibe.log",
		JWTSecret:            "vibe-local-secret",
		TokenTTL:             24 * time.Hour,
		CodeTTL:              10 * time.Minute,
		Origin:               "http://localhost:3000",
		Development:          false,
		FocusMinutes:         25,
		SwipeThreshold:       100,
		SerializedWrites:     false,
		ReconcileDelay:       2 * time.Second,
		DesktopNotifications: false,
		SchedulerBuffer:      64,
	}
}

// Load reads defaults, then .vibe.{yaml,json,toml} from $VIBE_CONFIG_PATH or
// the working directory, then VIBE_* environment variables.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetConfigName(ConfigName)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if override := os.Getenv(ConfigPathEnv); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		DatabaseDriver:       v.GetString("database_driver"),
		DatabaseDSN:          v.GetString("database_dsn"),
		SessionDir:           v.GetString("session_dir"),
		LogFile:              v.GetString("log_file"),
		JWTSecret:            v.GetString("jwt_secret"),
		TokenTTL:             v.GetDuration("token_ttl"),
		CodeTTL:              v.GetDuration("code_ttl"),
		Origin:               v.GetString("origin"),
		Development:          v.GetBool("development"),
		FocusMinutes:         v.GetInt("focus_minutes"),
		SwipeThreshold:       v.GetFloat64("swipe_threshold"),
		SerializedWrites:     v.GetBool("serialized_writes"),
		ReconcileDelay:       v.GetDuration("reconcile_delay"),
		DesktopNotifications: v.GetBool("desktop_notifications"),
		SchedulerBuffer:      v.GetInt("scheduler_buffer"),
	}
	if err := cfg.expandPaths(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("database_driver", d.DatabaseDriver)
	v.SetDefault("database_dsn", d.DatabaseDSN)
	v.SetDefault("session_dir", d.SessionDir)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("jwt_secret", d.JWTSecret)
	v.SetDefault("token_ttl", d.TokenTTL)
	v.SetDefault("code_ttl", d.CodeTTL)
	v.SetDefault("origin", d.Origin)
	v.SetDefault("development", d.Development)
	v.SetDefault("focus_minutes", d.FocusMinutes)
	v.SetDefault("swipe_threshold", d.SwipeThreshold)
	v.SetDefault("serialized_writes", d.SerializedWrites)
	v.SetDefault("reconcile_delay", d.ReconcileDelay)
	v.SetDefault("desktop_notifications", d.DesktopNotifications)
	v.SetDefault("scheduler_buffer", d.SchedulerBuffer)
}

func (c *Config) expandPaths() error {
	var err error
	if c.DatabaseDriver == "sqlite3" {
		if c.DatabaseDSN, err = homedir.Expand(c.DatabaseDSN); err != nil {
			return fmt.Errorf("expand database_dsn: %w", err)
		}
	}
	if c.SessionDir, err = homedir.Expand(c.SessionDir); err != nil {
		return fmt.Errorf("expand session_dir: %w", err)
	}
	if c.LogFile, err = homedir.Expand(c.LogFile); err != nil {
		return fmt.Errorf("expand log_file: %w", err)
	}
	return nil
}

func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("config: unsupported database_driver %q", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return errors.New("config: database_dsn is required")
	}
	if c.JWTSecret == "" {
		return errors.New("config: jwt_secret is required")
	}
	if c.FocusMinutes < 1 || c.FocusMinutes > 60 {
		return fmt.Errorf("config: focus_minutes must be within 1..60, got %d", c.FocusMinutes)
	}
	if c.SwipeThreshold <= 0 {
		return fmt.Errorf("config: swipe_threshold must be positive, got %v", c.SwipeThreshold)
	}
	if c.SchedulerBuffer <= 0 {
		return fmt.Errorf("config: scheduler_buffer must be positive, got %d", c.SchedulerBuffer)
	}
	if c.TokenTTL <= 0 || c.CodeTTL <= 0 {
		return errors.New("config: token_ttl and code_ttl must be positive")
	}
	return nil
}
