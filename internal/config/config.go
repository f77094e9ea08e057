package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Analytics AnalyticsConfig `yaml:"analytics"`
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
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// TailscaleConfig controls serving over a tsnet node instead of a plain listener.
type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// AnalyticsConfig tunes how much history the performance service reads.
type AnalyticsConfig struct {
	DeloadWindowDays int `yaml:"deload_window_days"`
	HistorySets      int `yaml:"history_sets"`
	ProgressSets     int `yaml:"progress_sets"`
	WeeklyGoal       int `yaml:"weekly_goal"`
}

// DefaultAnalytics returns the analytics settings used when the config file omits them.
func DefaultAnalytics() AnalyticsConfig {
	return AnalyticsConfig{
		DeloadWindowDays: 14,
		HistorySets:      30,
		ProgressSets:     20,
		WeeklyGoal:       4,
	}
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, fills defaults, then applies environment
// variable overrides. Env vars use the prefix FREELIFT_:
//
//	FREELIFT_SERVER_HOST, FREELIFT_SERVER_PORT,
//	FREELIFT_DB_HOST, FREELIFT_DB_PORT, FREELIFT_DB_NAME,
//	FREELIFT_DB_USER, FREELIFT_DB_PASSWORD, FREELIFT_DB_SSLMODE,
//	FREELIFT_AUTH_API_KEY,
//	FREELIFT_TAILSCALE_ENABLED, FREELIFT_TAILSCALE_HOSTNAME, FREELIFT_TAILSCALE_STATE_DIR,
//	FREELIFT_ANALYTICS_DELOAD_WINDOW_DAYS, FREELIFT_ANALYTICS_HISTORY_SETS,
//	FREELIFT_ANALYTICS_PROGRESS_SETS, FREELIFT_ANALYTICS_WEEKLY_GOAL
func Load(path string) (*Config, error) {
	cfg := &Config{Analytics: DefaultAnalytics()}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if cfg.Tailscale.Enabled && cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "freelift"
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	envString("FREELIFT_SERVER_HOST", &cfg.Server.Host)
	envInt("FREELIFT_SERVER_PORT", &cfg.Server.Port)

	envString("FREELIFT_DB_HOST", &cfg.Database.Host)
	envInt("FREELIFT_DB_PORT", &cfg.Database.Port)
	envString("FREELIFT_DB_NAME", &cfg.Database.Name)
	envString("FREELIFT_DB_USER", &cfg.Database.User)
	envString("FREELIFT_DB_PASSWORD", &cfg.Database.Password)
	envString("FREELIFT_DB_SSLMODE", &cfg.Database.SSLMode)

	envString("FREELIFT_AUTH_API_KEY", &cfg.Auth.APIKey)

	envBool("FREELIFT_TAILSCALE_ENABLED", &cfg.Tailscale.Enabled)
	envString("FREELIFT_TAILSCALE_HOSTNAME", &cfg.Tailscale.Hostname)
	envString("FREELIFT_TAILSCALE_STATE_DIR", &cfg.Tailscale.StateDir)

	envInt("FREELIFT_ANALYTICS_DELOAD_WINDOW_DAYS", &cfg.Analytics.DeloadWindowDays)
	envInt("FREELIFT_ANALYTICS_HISTORY_SETS", &cfg.Analytics.HistorySets)
	envInt("FREELIFT_ANALYTICS_PROGRESS_SETS", &cfg.Analytics.ProgressSets)
	envInt("FREELIFT_ANALYTICS_WEEKLY_GOAL", &cfg.Analytics.WeeklyGoal)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// envInt ignores values that do not parse, keeping the file setting.
func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
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
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Analytics.DeloadWindowDays < 1 {
		return fmt.Errorf("analytics.deload_window_days must be positive")
	}
	if c.Analytics.HistorySets < 3 {
		return fmt.Errorf("analytics.history_sets must be at least 3")
	}
	if c.Analytics.ProgressSets < 2 {
		return fmt.Errorf("analytics.progress_sets must be at least 2")
	}
	if c.Analytics.WeeklyGoal < 1 {
		return fmt.Errorf("analytics.weekly_goal must be positive")
	}
	return nil
}
