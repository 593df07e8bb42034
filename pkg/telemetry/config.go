package telemetry

import (
	"fmt"
	"os"
	"strconv"
)

// Config controls trace export. When Enabled is false spans are recorded
// by the global no-op provider and discarded.
type Config struct {
	Enabled     bool   `toml:"enabled"`
	ServiceName string `toml:"service_name"`
	PrettyPrint bool   `toml:"pretty_print"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled     string
	ServiceName string
	PrettyPrint string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites fields from overlay. Booleans always apply.
func (c *Config) Merge(overlay *Config) {
	c.Enabled = overlay.Enabled
	c.PrettyPrint = overlay.PrettyPrint
	if overlay.ServiceName != "" {
		c.ServiceName = overlay.ServiceName
	}
}

func (c *Config) loadDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "verdant"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Enabled = b
			}
		}
	}
	if env.ServiceName != "" {
		if v := os.Getenv(env.ServiceName); v != "" {
			c.ServiceName = v
		}
	}
	if env.PrettyPrint != "" {
		if v := os.Getenv(env.PrettyPrint); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.PrettyPrint = b
			}
		}
	}
}

func (c *Config) validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name required")
	}
	return nil
}
