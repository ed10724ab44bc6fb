// Package config provides YAML-based configuration loading for jobyard.
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
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config is the top-level jobyard configuration, loaded from jobyard.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Sweep    SweepConfig    `yaml:"sweep"`
	Geocode  GeocodeConfig  `yaml:"geocode"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// DatabaseConfig selects the storage backend and its connection settings.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"` // sqlite only
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"` // postgres only
}

// LogConfig controls the zap logger.
type LogConfig struct {
	JSON  bool `yaml:"json"`
	Debug bool `yaml:"debug"`
}

// ServerConfig holds the recruiter API listener settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"` // empty disables CORS headers
}

// SweepConfig schedules the pipeline backfill sweep run by `jy serve`.
type SweepConfig struct {
	Schedule          string `yaml:"schedule"` // 5-field cron; empty disables
	SeedDefaultStages bool   `yaml:"seed_default_stages"`
}

// GeocodeConfig configures the city geocoder used on profile save.
type GeocodeConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// NotifyConfig lists optional new-match notification sinks. Matches are
// always logged; these are in addition.
type NotifyConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Redis   RedisConfig   `yaml:"redis"`
}

// SlackConfig posts new-match notices to a channel.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// DiscordConfig posts new-match notices to a channel.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// RedisConfig publishes new-match events on a pub/sub channel.
type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

// Load reads a YAML config file from path and returns a validated Config.
// A .env file next to the config, if present, is loaded first so that
// ${VAR} references in the YAML can be expanded from it.
func Load(path string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load %s: %w", envPath, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config. Environment
// variable references are expanded before parsing.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			c.Database.Path = "jobyard.db"
		}
	case DriverMySQL:
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
	case DriverPostgres:
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.User == "" {
			c.Database.User = "postgres"
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	}
	if c.Database.Name == "" && c.Database.Driver != DriverSQLite {
		c.Database.Name = "jobyard"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Geocode.BaseURL == "" {
		c.Geocode.BaseURL = "https://geocoding-api.open-meteo.com/v1/search"
	}
	if c.Geocode.Timeout == 0 {
		c.Geocode.Timeout = 10 * time.Second
	}
	if c.Notify.Redis.Addr != "" && c.Notify.Redis.Channel == "" {
		c.Notify.Redis.Channel = "jobyard.matches"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not one of sqlite, mysql, postgres", c.Database.Driver))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Sweep.Schedule != "" && len(strings.Fields(c.Sweep.Schedule)) != 5 {
		errs = append(errs, "sweep.schedule must be a 5-field cron expression")
	}
	if (c.Notify.Slack.BotToken == "") != (c.Notify.Slack.ChannelID == "") {
		errs = append(errs, "notify.slack requires both bot_token and channel_id")
	}
	if (c.Notify.Discord.BotToken == "") != (c.Notify.Discord.ChannelID == "") {
		errs = append(errs, "notify.discord requires both bot_token and channel_id")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
