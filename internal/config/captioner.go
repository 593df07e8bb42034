package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	EnvCaptionerCommand  = "VERDANT_CAPTIONER_COMMAND"
	EnvCaptionerArgs     = "VERDANT_CAPTIONER_ARGS"
	EnvCaptionerFallback = "VERDANT_CAPTIONER_FALLBACK"
)

// CaptionerConfig names the local captioning program. It receives image
// bytes on stdin and writes a caption to stdout.
type CaptionerConfig struct {
	Command  string   `toml:"command"`
	Args     []string `toml:"args"`
	Fallback string   `toml:"fallback"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *CaptionerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *CaptionerConfig) Merge(overlay *CaptionerConfig) {
	if overlay.Command != "" {
		c.Command = overlay.Command
	}
	if overlay.Args != nil {
		c.Args = overlay.Args
	}
	if overlay.Fallback != "" {
		c.Fallback = overlay.Fallback
	}
}

func (c *CaptionerConfig) loadDefaults() {
	if c.Command == "" {
		c.Command = "verdant-caption"
	}
	if c.Fallback == "" {
		c.Fallback = "description temporarily unavailable"
	}
}

func (c *CaptionerConfig) loadEnv() {
	if v := os.Getenv(EnvCaptionerCommand); v != "" {
		c.Command = v
	}
	if v := os.Getenv(EnvCaptionerArgs); v != "" {
		c.Args = strings.Fields(v)
	}
	if v := os.Getenv(EnvCaptionerFallback); v != "" {
		c.Fallback = v
	}
}

func (c *CaptionerConfig) validate() error {
	if strings.TrimSpace(c.Command) == "" {
		return fmt.Errorf("command required")
	}
	return nil
}
