package socket

import (
	"errors"
	"time"
)

const (
	// initial capacity of a connection pool
	poolInitCap = 0
	// maximum number of idle connections in a pool
	poolMaxIdle = 5
	// maximum time a connection can be idle before being closed, in seconds
	poolMaxIdleTime = 15
	// maximum number of connections in a pool
	poolMaxCap = 20

	// default dial timeout in seconds
	defaultConnectTimeout = 5
)

// Config carries the transport settings shared by listeners and dialers.
// TLS applies to tcp endpoints only; unix sockets are always cleartext.
type Config struct {
	// ServerCAs defines the set of root certificate authorities
	// that the server uses to verify client certificates.
	ServerCAs        []string `json:"server_cas" toml:"server_cas"`
	ServerKey        string   `json:"server_key" toml:"server_key"`
	ServerCert       string   `json:"server_cert" toml:"server_cert"`
	ServerSkipVerify bool     `json:"server_skip_verify" toml:"server_skip_verify"`

	// ClientCAs defines the set of root certificate authorities
	// that clients use when verifying server certificates.
	// If ClientCAs is nil, TLS uses the host's root CA set.
	ClientCAs        []string `json:"client_cas" toml:"client_cas"`
	ClientCert       string   `json:"client_cert" toml:"client_cert"`
	ClientKey        string   `json:"client_key" toml:"client_key"`
	ClientSkipVerify bool     `json:"client_skip_verify" toml:"client_skip_verify"`

	// ConnectTimeout is the maximum amount of time a dial will wait for
	// a connection to complete, in seconds.
	ConnectTimeout uint `json:"connect_timeout" toml:"connect_timeout"`

	// MaxFrameSize bounds a single request or response payload, in bytes.
	// Zero means the built-in 64 MiB limit.
	MaxFrameSize uint32 `json:"max_frame_size" toml:"max_frame_size"`

	// MaxIdleConns is the per-target idle connection cap for dialer pools.
	// Zero means the built-in default.
	MaxIdleConns int `json:"max_idle_conns" toml:"max_idle_conns"`
	// MaxConns is the per-target total connection cap for dialer pools.
	// Zero means the built-in default.
	MaxConns int `json:"max_conns" toml:"max_conns"`
}

func (c *Config) Validate() error {
	cfgCount := 0
	if c.ServerKey != "" {
		cfgCount++
	}
	if c.ServerCert != "" {
		cfgCount++
	}

	if cfgCount == 1 {
		return errors.New("incomplete server certificate configuration")
	}

	// if the server uses TLS, and not skip verification, we need to have server CAs
	if cfgCount == 2 && !c.ServerSkipVerify {
		if len(c.ServerCAs) == 0 {
			return errors.New("no server CAs configured")
		}
	}

	cfgCount = 0
	if c.ClientKey != "" {
		cfgCount++
	}
	if c.ClientCert != "" {
		cfgCount++
	}

	if cfgCount == 1 {
		return errors.New("incomplete client certificate configuration")
	}

	// if the client uses TLS, and not skip verification, we need to have client CAs
	if cfgCount == 2 && !c.ClientSkipVerify {
		if len(c.ClientCAs) == 0 {
			return errors.New("no client CAs configured")
		}
	}

	if c.MaxConns < 0 || c.MaxIdleConns < 0 {
		return errors.New("negative connection pool capacity")
	}
	if c.MaxConns > 0 && c.MaxIdleConns > c.MaxConns {
		return errors.New("idle connection cap exceeds total connection cap")
	}

	return nil
}

func (c *Config) frameLimit() uint32 {
	if c.MaxFrameSize > 0 {
		return c.MaxFrameSize
	}
	return maxFrameSize
}

func (c *Config) connectTimeout() time.Duration {
	if c.ConnectTimeout > 0 {
		return time.Duration(c.ConnectTimeout) * time.Second
	}
	return defaultConnectTimeout * time.Second
}

func (c *Config) maxIdle() int {
	if c.MaxIdleConns > 0 {
		return c.MaxIdleConns
	}
	return poolMaxIdle
}

func (c *Config) maxCap() int {
	if c.MaxConns > 0 {
		return c.MaxConns
	}
	return poolMaxCap
}
