package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/artpar/shopdesk/internal/core/auth"
	"github.com/artpar/shopdesk/internal/core/rules"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Seed     SeedConfig     `mapstructure:"seed"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Rules    RulesConfig    `mapstructure:"rules"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database configuration.
// ":memory:" runs against a throwaway in-memory database.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// SeedConfig controls demo fixtures.
type SeedConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// File is a YAML fixtures file. Empty uses the built-in fixtures.
	File string `mapstructure:"file"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// Mode is "dev" (X-Actor-* headers are trusted) or "token" (bearer
	// tokens only).
	Mode string `mapstructure:"mode"`

	// TokenSecret signs bearer tokens. Required in token mode.
	TokenSecret string `mapstructure:"token_secret"`

	// TokenTTL is the lifetime of tokens issued at login.
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// RulesConfig holds the record rule switches.
type RulesConfig struct {
	PromotionBelowBaseIsBlocking bool `mapstructure:"promotion_below_base_is_blocking"`
}

// Policy converts the config into a rules.Policy.
func (c RulesConfig) Policy() rules.Policy {
	return rules.Policy{PromotionBelowBaseIsBlocking: c.PromotionBelowBaseIsBlocking}
}

// SessionsConfig holds form session configuration.
type SessionsConfig struct {
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// CacheConfig holds the optional redis product cache configuration.
type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from defaults, an optional file and the
// environment. Variables from envFiles (default ".env") are loaded into the
// environment first; variables already set win.
func LoadConfig(configPath string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("database.dsn", ":memory:")
	v.SetDefault("seed.enabled", true)
	v.SetDefault("seed.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("auth.mode", auth.ModeDev)
	v.SetDefault("auth.token_secret", "")
	v.SetDefault("auth.token_ttl", "12h")
	v.SetDefault("rules.promotion_below_base_is_blocking", rules.DefaultPolicy().PromotionBelowBaseIsBlocking)
	v.SetDefault("sessions.idle_timeout", "30m")
	v.SetDefault("sessions.sweep_interval", "1m")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", "5m")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// A missing file falls back to defaults
			var parseErr viper.ConfigParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("SHOPDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case auth.ModeDev:
	case auth.ModeToken:
		if c.Auth.TokenSecret == "" {
			return errors.New("auth.token_secret is required in token mode")
		}
	default:
		return fmt.Errorf("auth.mode must be %q or %q, got %q", auth.ModeDev, auth.ModeToken, c.Auth.Mode)
	}
	if c.Sessions.IdleTimeout <= 0 {
		return errors.New("sessions.idle_timeout must be positive")
	}
	return nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
