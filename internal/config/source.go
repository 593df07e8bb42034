package config

import (
	"fmt"
	"os"
	"strings"
)

// Image source kinds.
const (
	SourceHTTP = "http"
	SourceBlob = "blob"
)

const (
	EnvSourceKind       = "VERDANT_SOURCE_KIND"
	EnvSourceURLPattern = "VERDANT_SOURCE_URL_PATTERN"
	EnvSourceKeyPattern = "VERDANT_SOURCE_KEY_PATTERN"

	idPlaceholder = "{id}"
)

// SourceConfig selects where images are fetched from. URLPattern and
// KeyPattern contain an {id} placeholder for the image identifier.
type SourceConfig struct {
	Kind       string `toml:"kind"`
	URLPattern string `toml:"url_pattern"`
	KeyPattern string `toml:"key_pattern"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *SourceConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *SourceConfig) Merge(overlay *SourceConfig) {
	if overlay.Kind != "" {
		c.Kind = overlay.Kind
	}
	if overlay.URLPattern != "" {
		c.URLPattern = overlay.URLPattern
	}
	if overlay.KeyPattern != "" {
		c.KeyPattern = overlay.KeyPattern
	}
}

func (c *SourceConfig) loadDefaults() {
	if c.Kind == "" {
		c.Kind = SourceHTTP
	}
	if c.URLPattern == "" {
		c.URLPattern = "http://image-service:8000/images/{id}/download"
	}
	if c.KeyPattern == "" {
		c.KeyPattern = "images/{id}"
	}
}

func (c *SourceConfig) loadEnv() {
	if v := os.Getenv(EnvSourceKind); v != "" {
		c.Kind = strings.ToLower(v)
	}
	if v := os.Getenv(EnvSourceURLPattern); v != "" {
		c.URLPattern = v
	}
	if v := os.Getenv(EnvSourceKeyPattern); v != "" {
		c.KeyPattern = v
	}
}

func (c *SourceConfig) validate() error {
	switch c.Kind {
	case SourceHTTP:
		if !strings.Contains(c.URLPattern, idPlaceholder) {
			return fmt.Errorf("url_pattern must contain %s", idPlaceholder)
		}
	case SourceBlob:
		if !strings.Contains(c.KeyPattern, idPlaceholder) {
			return fmt.Errorf("key_pattern must contain %s", idPlaceholder)
		}
	default:
		return fmt.Errorf("unknown kind %q (want %s or %s)", c.Kind, SourceHTTP, SourceBlob)
	}
	return nil
}
