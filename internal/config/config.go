// Package config loads the IronLog server configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Logging   LoggingConfig   `yaml:"logging"`
	Session   SessionConfig   `yaml:"session"`
	Local     LocalConfig     `yaml:"local"`
	Cache     CacheConfig     `yaml:"cache"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

// AuthConfig holds the key required on mutating API requests. Empty disables it.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`
	Stdout bool   `yaml:"stdout"`
}

type SessionConfig struct {
	SaveTimeout time.Duration `yaml:"save_timeout"`
}

// LocalConfig locates the device-local store (active workouts, history
// mirror, dashboard graphs).
type LocalConfig struct {
	StateDir string `yaml:"state_dir"`
}

type CacheConfig struct {
	SizeMB int           `yaml:"size_mb"`
	TTL    time.Duration `yaml:"ttl"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslmode),
	}
	return u.String()
}

func defaults() *Config {
	return &Config{
		Server:    ServerConfig{Host: "0.0.0.0", Port: 8080},
		Tailscale: TailscaleConfig{Hostname: "ironlog", StateDir: "./tsnet-state"},
		Logging:   LoggingConfig{Level: "info", Format: "text", Stdout: true},
		Session:   SessionConfig{SaveTimeout: 10 * time.Second},
		Local:     LocalConfig{StateDir: "./state"},
		Cache:     CacheConfig{SizeMB: 16, TTL: 5 * time.Minute},
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix IRONLOG_ and underscore-separated paths:
//
//	IRONLOG_SERVER_HOST, IRONLOG_SERVER_PORT,
//	IRONLOG_DB_HOST, IRONLOG_DB_PORT, IRONLOG_DB_NAME,
//	IRONLOG_DB_USER, IRONLOG_DB_PASSWORD, IRONLOG_DB_SSLMODE,
//	IRONLOG_AUTH_API_KEY, IRONLOG_TAILSCALE_ENABLED,
//	IRONLOG_LOG_LEVEL, IRONLOG_SESSION_SAVE_TIMEOUT, IRONLOG_LOCAL_STATE_DIR
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"IRONLOG_SERVER_HOST":     &cfg.Server.Host,
		"IRONLOG_DB_HOST":         &cfg.Database.Host,
		"IRONLOG_DB_NAME":         &cfg.Database.Name,
		"IRONLOG_DB_USER":         &cfg.Database.User,
		"IRONLOG_DB_PASSWORD":     &cfg.Database.Password,
		"IRONLOG_DB_SSLMODE":      &cfg.Database.SSLMode,
		"IRONLOG_AUTH_API_KEY":    &cfg.Auth.APIKey,
		"IRONLOG_TS_HOSTNAME":     &cfg.Tailscale.Hostname,
		"IRONLOG_LOG_LEVEL":       &cfg.Logging.Level,
		"IRONLOG_LOG_FILE":        &cfg.Logging.File,
		"IRONLOG_LOCAL_STATE_DIR": &cfg.Local.StateDir,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"IRONLOG_SERVER_PORT": &cfg.Server.Port,
		"IRONLOG_DB_PORT":     &cfg.Database.Port,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("IRONLOG_TAILSCALE_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("IRONLOG_TAILSCALE_ENABLED: %w", err)
		}
		cfg.Tailscale.Enabled = b
	}
	if v := os.Getenv("IRONLOG_SESSION_SAVE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("IRONLOG_SESSION_SAVE_TIMEOUT: %w", err)
		}
		cfg.Session.SaveTimeout = d
	}
	return nil
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
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
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	if c.Session.SaveTimeout <= 0 {
		return fmt.Errorf("session.save_timeout must be positive")
	}
	if c.Local.StateDir == "" {
		return fmt.Errorf("local.state_dir is required")
	}
	if c.Cache.SizeMB < 0 {
		return fmt.Errorf("cache.size_mb must not be negative")
	}
	return nil
}
