// Package config loads the server and view configuration from a TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Simp1er/voltron/pkg/transport/socket"
)

const (
	// DefaultTCPAddress is the default tcp listen address.
	DefaultTCPAddress = "127.0.0.1:22222"

	// default blocking deadline in seconds
	defaultBlockTimeout = 10
	// default request queue capacity
	defaultQueueCapacity = 1024
)

// ListenConfig names the endpoints the server binds.
type ListenConfig struct {
	// TCP is the tcp listen address, "host:port". Empty disables it.
	TCP string `toml:"tcp"`
	// Domain is the Unix domain socket path, "~" expands to the home
	// directory. Empty disables it; it is skipped on Windows.
	Domain string `toml:"domain"`
}

// ServerConfig configures the broker server.
type ServerConfig struct {
	Listen ListenConfig `toml:"listen"`
	// BlockTimeout is the deadline for blocking requests, in seconds
	BlockTimeout uint `toml:"blockTimeout"`
	// QueueCapacity bounds the request queue
	QueueCapacity int `toml:"queueCapacity"`
}

// ViewConfig configures clients.
type ViewConfig struct {
	// APIURL overrides the target clients connect to, e.g.
	// "tcp://10.0.0.5:22222" or "unix:///tmp/voltron.sock"
	APIURL string `toml:"apiUrl"`
	// Backoff is the retry pause after connection loss, in seconds.
	// Zero means 1 second.
	Backoff uint `toml:"backoff"`
}

// LoggingConfig defines basic logging knobs.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Config aggregates the whole configuration file.
type Config struct {
	Server    ServerConfig  `toml:"server"`
	View      ViewConfig    `toml:"view"`
	Logging   LoggingConfig `toml:"logging"`
	Transport socket.Config `toml:"transport"`
}

// Default returns the configuration used when no file is supplied: a tcp
// listener on localhost and no domain socket.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates a TOML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Listen.TCP == "" && c.Server.Listen.Domain == "" {
		c.Server.Listen.TCP = DefaultTCPAddress
	}
	if c.Server.BlockTimeout == 0 {
		c.Server.BlockTimeout = defaultBlockTimeout
	}
	if c.Server.QueueCapacity == 0 {
		c.Server.QueueCapacity = defaultQueueCapacity
	}
	c.Server.Listen.Domain = ExpandUser(c.Server.Listen.Domain)
	c.View.APIURL = ExpandUser(c.View.APIURL)
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Server.QueueCapacity < 0 {
		return fmt.Errorf("server.queueCapacity must not be negative")
	}
	if c.Server.Listen.TCP != "" && !strings.Contains(c.Server.Listen.TCP, ":") {
		return fmt.Errorf("server.listen.tcp %q is not a host:port address", c.Server.Listen.TCP)
	}
	return c.Transport.Validate()
}

// ClientTarget resolves the target a client should connect to: the explicit
// view.apiUrl when set, otherwise the tcp listen address, otherwise the
// domain socket.
func (c *Config) ClientTarget() string {
	if c.View.APIURL != "" {
		return c.View.APIURL
	}
	if c.Server.Listen.TCP != "" {
		return socket.TCPTarget(c.Server.Listen.TCP)
	}
	if c.Server.Listen.Domain != "" {
		return socket.UnixTarget(c.Server.Listen.Domain)
	}
	return socket.TCPTarget(DefaultTCPAddress)
}

// ExpandUser replaces a leading "~" with the current user's home directory.
// It also expands the path part of a "unix://~/..." target.
func ExpandUser(path string) string {
	const unixScheme = "unix://"
	if strings.HasPrefix(path, unixScheme) {
		return unixScheme + ExpandUser(strings.TrimPrefix(path, unixScheme))
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
