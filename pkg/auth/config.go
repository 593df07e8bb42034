package auth

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds OIDC token verification settings.
type Config struct {
	Issuer   string `toml:"issuer"`
	Audience string `toml:"audience"`
	// JWKSURL overrides the key endpoint. Empty means the jwks_uri from the
	// issuer's discovery document.
	JWKSURL string `toml:"jwks_url"`
	// Algorithms restricts accepted signing algorithms. Empty means RS256.
	Algorithms []string `toml:"algorithms"`
	SkipExpiry bool     `toml:"skip_expiry"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Issuer     string
	Audience   string
	JWKSURL    string
	Algorithms string
	SkipExpiry string
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
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.Audience != "" {
		c.Audience = overlay.Audience
	}
	if overlay.JWKSURL != "" {
		c.JWKSURL = overlay.JWKSURL
	}
	if overlay.Algorithms != nil {
		c.Algorithms = overlay.Algorithms
	}
	if overlay.SkipExpiry {
		c.SkipExpiry = true
	}
}

func (c *Config) loadDefaults() {
	if len(c.Algorithms) == 0 {
		c.Algorithms = []string{"RS256"}
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Issuer != "" {
		if v := os.Getenv(env.Issuer); v != "" {
			c.Issuer = v
		}
	}
	if env.Audience != "" {
		if v := os.Getenv(env.Audience); v != "" {
			c.Audience = v
		}
	}
	if env.JWKSURL != "" {
		if v := os.Getenv(env.JWKSURL); v != "" {
			c.JWKSURL = v
		}
	}
	if env.Algorithms != "" {
		if v := os.Getenv(env.Algorithms); v != "" {
			algs := strings.Split(v, ",")
			c.Algorithms = make([]string, 0, len(algs))
			for _, alg := range algs {
				if trimmed := strings.TrimSpace(alg); trimmed != "" {
					c.Algorithms = append(c.Algorithms, trimmed)
				}
			}
		}
	}
	if env.SkipExpiry != "" {
		if v := os.Getenv(env.SkipExpiry); v != "" {
			if skip, err := strconv.ParseBool(v); err == nil {
				c.SkipExpiry = skip
			}
		}
	}
}

func (c *Config) validate() error {
	if c.Issuer == "" {
		return fmt.Errorf("issuer required")
	}
	return nil
}
