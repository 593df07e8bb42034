package guard

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/JaimeStill/verdant/pkg/formatting"
)

// Config holds the guard policies in their TOML form.
type Config struct {
	Retry       RetryConfig `toml:"retry"`
	Local       LocalConfig `toml:"local"`
	MaxBodySize string      `toml:"max_body_size"`
}

// RetryConfig is the TOML form of RetryPolicy.
type RetryConfig struct {
	Attempts int    `toml:"attempts"`
	Backoff  string `toml:"backoff"`
	Timeout  string `toml:"timeout"`
}

// LocalConfig is the TOML form of TimeoutPolicy.
type LocalConfig struct {
	Timeout       string `toml:"timeout"`
	MaxConcurrent int    `toml:"max_concurrent"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	RetryAttempts      string
	RetryBackoff       string
	RetryTimeout       string
	LocalTimeout       string
	LocalMaxConcurrent string
	MaxBodySize        string
}

// RetryPolicy converts the finalized config into a RetryPolicy.
func (c *Config) RetryPolicy() RetryPolicy {
	backoff, _ := time.ParseDuration(c.Retry.Backoff)
	timeout, _ := time.ParseDuration(c.Retry.Timeout)
	return RetryPolicy{
		Attempts: c.Retry.Attempts,
		Backoff:  backoff,
		Timeout:  timeout,
	}
}

// TimeoutPolicy converts the finalized config into a TimeoutPolicy.
func (c *Config) TimeoutPolicy() TimeoutPolicy {
	ceiling, _ := time.ParseDuration(c.Local.Timeout)
	return TimeoutPolicy{
		Ceiling:       ceiling,
		MaxConcurrent: int64(c.Local.MaxConcurrent),
	}
}

// MaxBodyBytes returns MaxBodySize in bytes.
func (c *Config) MaxBodyBytes() int64 {
	n, err := formatting.ParseBytes(c.MaxBodySize)
	if err != nil {
		return defaultMaxBodyBytes
	}
	return n
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Retry.Attempts != 0 {
		c.Retry.Attempts = overlay.Retry.Attempts
	}
	if overlay.Retry.Backoff != "" {
		c.Retry.Backoff = overlay.Retry.Backoff
	}
	if overlay.Retry.Timeout != "" {
		c.Retry.Timeout = overlay.Retry.Timeout
	}
	if overlay.Local.Timeout != "" {
		c.Local.Timeout = overlay.Local.Timeout
	}
	if overlay.Local.MaxConcurrent != 0 {
		c.Local.MaxConcurrent = overlay.Local.MaxConcurrent
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}
}

func (c *Config) loadDefaults() {
	if c.Retry.Attempts == 0 {
		c.Retry.Attempts = 3
	}
	if c.Retry.Backoff == "" {
		c.Retry.Backoff = "1s"
	}
	if c.Retry.Timeout == "" {
		c.Retry.Timeout = "15s"
	}
	if c.Local.Timeout == "" {
		c.Local.Timeout = "5m"
	}
	if c.Local.MaxConcurrent == 0 {
		c.Local.MaxConcurrent = 2
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "20MB"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.RetryAttempts != "" {
		if v := os.Getenv(env.RetryAttempts); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Retry.Attempts = n
			}
		}
	}
	if env.RetryBackoff != "" {
		if v := os.Getenv(env.RetryBackoff); v != "" {
			c.Retry.Backoff = v
		}
	}
	if env.RetryTimeout != "" {
		if v := os.Getenv(env.RetryTimeout); v != "" {
			c.Retry.Timeout = v
		}
	}
	if env.LocalTimeout != "" {
		if v := os.Getenv(env.LocalTimeout); v != "" {
			c.Local.Timeout = v
		}
	}
	if env.LocalMaxConcurrent != "" {
		if v := os.Getenv(env.LocalMaxConcurrent); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Local.MaxConcurrent = n
			}
		}
	}
	if env.MaxBodySize != "" {
		if v := os.Getenv(env.MaxBodySize); v != "" {
			c.MaxBodySize = v
		}
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.Retry.Backoff); err != nil {
		return fmt.Errorf("invalid retry.backoff: %w", err)
	}
	if _, err := time.ParseDuration(c.Retry.Timeout); err != nil {
		return fmt.Errorf("invalid retry.timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Local.Timeout); err != nil {
		return fmt.Errorf("invalid local.timeout: %w", err)
	}
	if _, err := formatting.ParseBytes(c.MaxBodySize); err != nil {
		return fmt.Errorf("invalid max_body_size: %w", err)
	}
	if err := c.RetryPolicy().Validate(); err != nil {
		return err
	}
	return c.TimeoutPolicy().Validate()
}
