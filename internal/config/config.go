// Package config provides configuration management for the deal desk mock API.
//
// Configuration is loaded from:
// 1. config.yaml file (optional)
// 2. Environment variables (standard names like SERVER_PORT, SIM_LATENCY_PROFILE)
// 3. Default values
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Auth   AuthConfig   `mapstructure:"auth"`
	CORS   CORSConfig   `mapstructure:"cors"`
	Sim    SimConfig    `mapstructure:"sim"`
	Worker WorkerConfig `mapstructure:"worker"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// AuthConfig contains the static bearer token expected on API requests.
type AuthConfig struct {
	APIToken string `mapstructure:"api_token"`
}

// CORSConfig contains allowed origins; empty means allow all.
type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

// SimConfig contains the simulation defaults the chaos pipeline starts from.
type SimConfig struct {
	// LatencyProfile is one of fast|normal|slow|chaos.
	LatencyProfile string `mapstructure:"latency_profile"`

	// ErrorRate is the default random failure probability in [0,1].
	ErrorRate float64 `mapstructure:"error_rate"`

	// SeedPath optionally points at a JSON seed file overriding the
	// generated default dataset.
	SeedPath string `mapstructure:"seed_path"`
}

// WorkerConfig contains worker pool settings.
type WorkerConfig struct {
	PoolSize int `mapstructure:"pool_size"`
}

// Load reads configuration from file and environment variables.
// No env prefix: maps nested config, e.g. sim.latency_profile → SIM_LATENCY_PROFILE.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/dealdesk")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file is optional, use defaults and env vars.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks for critical configuration errors.
func (c *Config) Validate() error {
	if c.Sim.ErrorRate < 0 || c.Sim.ErrorRate > 1 {
		return fmt.Errorf("sim.error_rate must be in [0,1], got %v", c.Sim.ErrorRate)
	}
	if c.Auth.APIToken == "" {
		return fmt.Errorf("auth.api_token must not be empty")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 4343)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "0s") // SSE streams must not be cut off
	v.SetDefault("server.shutdown_timeout", "30s")

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Auth
	v.SetDefault("auth.api_token", "demo")

	// Simulation
	v.SetDefault("sim.latency_profile", "normal")
	v.SetDefault("sim.error_rate", 0.0)
	v.SetDefault("sim.seed_path", "")

	// Worker pool
	v.SetDefault("worker.pool_size", 100)
}
