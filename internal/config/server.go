package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost              = "VERDANT_SERVER_HOST"
	EnvServerPort              = "VERDANT_SERVER_PORT"
	EnvServerReadTimeout       = "VERDANT_SERVER_READ_TIMEOUT"
	EnvServerReadHeaderTimeout = "VERDANT_SERVER_READ_HEADER_TIMEOUT"
	EnvServerWriteTimeout      = "VERDANT_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout       = "VERDANT_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout   = "VERDANT_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds HTTP server parameters. WriteTimeout bounds a whole
// diagnosis request, so it must outlast a slow fetch plus two model calls.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadTimeout       string `toml:"read_timeout"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	IdleTimeout       string `toml:"idle_timeout"`
	ShutdownTimeout   string `toml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	return mustDuration(c.ReadTimeout)
}

func (c *ServerConfig) ReadHeaderTimeoutDuration() time.Duration {
	return mustDuration(c.ReadHeaderTimeout)
}

func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	return mustDuration(c.WriteTimeout)
}

func (c *ServerConfig) IdleTimeoutDuration() time.Duration {
	return mustDuration(c.IdleTimeout)
}

func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return mustDuration(c.ShutdownTimeout)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	for _, d := range c.durations(overlay) {
		if *d.from != "" {
			*d.to = *d.from
		}
	}
}

// serverDuration pairs a duration field with its toml key, its env var,
// and its default.
type serverDuration struct {
	key  string
	env  string
	def  string
	to   *string
	from *string
}

// durations lists the duration fields of c. When src is non-nil, from
// points at the matching field of src.
func (c *ServerConfig) durations(src *ServerConfig) []serverDuration {
	if src == nil {
		src = c
	}
	return []serverDuration{
		{"read_timeout", EnvServerReadTimeout, "1m", &c.ReadTimeout, &src.ReadTimeout},
		{"read_header_timeout", EnvServerReadHeaderTimeout, "10s", &c.ReadHeaderTimeout, &src.ReadHeaderTimeout},
		{"write_timeout", EnvServerWriteTimeout, "5m", &c.WriteTimeout, &src.WriteTimeout},
		{"idle_timeout", EnvServerIdleTimeout, "2m", &c.IdleTimeout, &src.IdleTimeout},
		{"shutdown_timeout", EnvServerShutdownTimeout, "30s", &c.ShutdownTimeout, &src.ShutdownTimeout},
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	for _, d := range c.durations(nil) {
		if *d.to == "" {
			*d.to = d.def
		}
	}
}

func (c *ServerConfig) loadEnv() {
	if v := os.Getenv(EnvServerHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvServerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	for _, d := range c.durations(nil) {
		if v := os.Getenv(d.env); v != "" {
			*d.to = v
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for _, d := range c.durations(nil) {
		v, err := time.ParseDuration(*d.to)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		if v <= 0 {
			return fmt.Errorf("%s must be positive", d.key)
		}
	}
	if c.ReadHeaderTimeoutDuration() > c.ReadTimeoutDuration() {
		return fmt.Errorf("read_header_timeout cannot exceed read_timeout")
	}
	return nil
}

// mustDuration parses a duration that validate has already checked.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
