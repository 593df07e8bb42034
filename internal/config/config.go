// Package config loads and finalizes the Verdant service configuration.
package config

import (
	"fmt"
	"os"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/verdant/pkg/auth"
	"github.com/JaimeStill/verdant/pkg/database"
	"github.com/JaimeStill/verdant/pkg/guard"
	"github.com/JaimeStill/verdant/pkg/storage"
	"github.com/JaimeStill/verdant/pkg/telemetry"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvVerdantEnv             = "VERDANT_ENV"
	EnvVerdantShutdownTimeout = "VERDANT_SHUTDOWN_TIMEOUT"
	EnvVerdantVersion         = "VERDANT_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "VERDANT_DB_HOST",
	Port:            "VERDANT_DB_PORT",
	Name:            "VERDANT_DB_NAME",
	User:            "VERDANT_DB_USER",
	Password:        "VERDANT_DB_PASSWORD",
	SSLMode:         "VERDANT_DB_SSL_MODE",
	ApplicationName: "VERDANT_DB_APPLICATION_NAME",
	MaxOpenConns:    "VERDANT_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "VERDANT_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "VERDANT_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "VERDANT_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "VERDANT_STORAGE_CONTAINER_NAME",
	ConnectionString: "VERDANT_STORAGE_CONNECTION_STRING",
	ServiceURL:       "VERDANT_STORAGE_SERVICE_URL",
}

var authEnv = &auth.Env{
	Issuer:     "VERDANT_AUTH_ISSUER",
	Audience:   "VERDANT_AUTH_AUDIENCE",
	JWKSURL:    "VERDANT_AUTH_JWKS_URL",
	Algorithms: "VERDANT_AUTH_ALGORITHMS",
	SkipExpiry: "VERDANT_AUTH_SKIP_EXPIRY",
}

var guardEnv = &guard.Env{
	RetryAttempts:      "VERDANT_GUARD_RETRY_ATTEMPTS",
	RetryBackoff:       "VERDANT_GUARD_RETRY_BACKOFF",
	RetryTimeout:       "VERDANT_GUARD_RETRY_TIMEOUT",
	LocalTimeout:       "VERDANT_GUARD_LOCAL_TIMEOUT",
	LocalMaxConcurrent: "VERDANT_GUARD_LOCAL_MAX_CONCURRENT",
	MaxBodySize:        "VERDANT_GUARD_MAX_BODY_SIZE",
}

var telemetryEnv = &telemetry.Env{
	Enabled:     "VERDANT_TELEMETRY_ENABLED",
	ServiceName: "VERDANT_TELEMETRY_SERVICE_NAME",
	PrettyPrint: "VERDANT_TELEMETRY_PRETTY_PRINT",
}

// Config is the root configuration for the Verdant service.
type Config struct {
	Server          ServerConfig         `toml:"server"`
	Database        database.Config      `toml:"database"`
	Storage         storage.Config       `toml:"storage"`
	API             APIConfig            `toml:"api"`
	Agent           gaconfig.AgentConfig `toml:"agent"`
	Auth            auth.Config          `toml:"auth"`
	Guard           guard.Config         `toml:"guard"`
	Source          SourceConfig         `toml:"source"`
	Captioner       CaptionerConfig      `toml:"captioner"`
	Telemetry       telemetry.Config     `toml:"telemetry"`
	ShutdownTimeout string               `toml:"shutdown_timeout"`
	Version         string               `toml:"version"`
}

// Env returns the VERDANT_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvVerdantEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Agent.Merge(&overlay.Agent)
	c.Auth.Merge(&overlay.Auth)
	c.Guard.Merge(&overlay.Guard)
	c.Source.Merge(&overlay.Source)
	c.Captioner.Merge(&overlay.Captioner)
	c.Telemetry.Merge(&overlay.Telemetry)
}

// Finalize applies defaults, environment overrides, and validation to the
// root config and every section. Storage is finalized only for the blob source.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := FinalizeAgent(&c.Agent); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Guard.Finalize(guardEnv); err != nil {
		return fmt.Errorf("guard: %w", err)
	}
	if err := c.Source.Finalize(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if c.Source.Kind == SourceBlob {
		if err := c.Storage.Finalize(storageEnv); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
	}
	if err := c.Captioner.Finalize(); err != nil {
		return fmt.Errorf("captioner: %w", err)
	}
	if err := c.Telemetry.Finalize(telemetryEnv); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvVerdantShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvVerdantVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvVerdantEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
