package socket

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/silenceper/pool"

	"github.com/Simp1er/voltron/pkg/model"
)

// NewDialer creates a dialer that keeps a connection pool per target.
func NewDialer(cfg *Config, logger *slog.Logger) (*Dialer, error) {
	if logger == nil {
		return nil, fmt.Errorf("new dialer, logger is nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Dialer{
		cfg:    cfg,
		logger: logger.With("component", "socket dialer"),
	}, nil
}

// Dialer issues framed requests over pooled persistent connections. Each Send
// checks out its own connection, so concurrent sends to one target ride
// independent connections. It implements model.Sender.
type Dialer struct {
	// target -> pool.Pool
	pools sync.Map

	cfg    *Config
	logger *slog.Logger
}

// Send writes one request frame to the target and reads one response frame.
// Every failure is reported as a *model.TransportError.
func (d *Dialer) Send(target string, payload []byte) ([]byte, error) {
	p, err := d.getPool(target)
	if err != nil {
		return nil, &model.TransportError{Op: "dial", Target: target, Err: err}
	}

	connInf, err := p.Get()
	if err != nil {
		return nil, &model.TransportError{Op: "dial", Target: target, Err: err}
	}
	conn := connInf.(net.Conn)

	limit := d.cfg.frameLimit()
	if err := writeFrame(conn, payload, limit); err != nil {
		_ = p.Close(connInf)
		return nil, &model.TransportError{Op: "write", Target: target, Err: err}
	}
	response, err := readFrame(conn, limit)
	if err != nil {
		_ = p.Close(connInf)
		return nil, &model.TransportError{Op: "read", Target: target, Err: err}
	}

	// put back to pool for keep-alive reuse
	if err := p.Put(connInf); err != nil {
		d.logger.Error("failed to put connection back to pool", "target", target, "error", err.Error())
	}

	d.logger.Debug("request sent", "target", target, "request_bytes", len(payload), "response_bytes", len(response))
	return response, nil
}

// Close releases every pooled connection.
func (d *Dialer) Close() error {
	d.pools.Range(func(key, value any) bool {
		value.(pool.Pool).Release()
		d.pools.Delete(key)
		return true
	})
	return nil
}

func (d *Dialer) getPool(target string) (pool.Pool, error) {
	if poolInf, ok := d.pools.Load(target); ok {
		return poolInf.(pool.Pool), nil
	}

	p, err := d.createPool(target)
	if err != nil {
		return nil, err
	}
	actual, loaded := d.pools.LoadOrStore(target, p)
	if loaded {
		// another goroutine won the race, discard ours
		p.Release()
	}
	return actual.(pool.Pool), nil
}

func (d *Dialer) createPool(target string) (pool.Pool, error) {
	network, addr, err := splitAddress(target)
	if err != nil {
		return nil, err
	}

	poolConfig := &pool.Config{
		InitialCap:  poolInitCap,
		MaxIdle:     d.cfg.maxIdle(),
		MaxCap:      d.cfg.maxCap(),
		IdleTimeout: poolMaxIdleTime * time.Second,
		Factory: func() (interface{}, error) {
			return d.dial(network, addr)
		},
		Close: func(v interface{}) error { return v.(net.Conn).Close() },
	}
	return pool.NewChannelPool(poolConfig)
}

func (d *Dialer) dial(network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{
		Timeout: d.cfg.connectTimeout(),
	}
	if network == "tcp" {
		tlsConfig, err := loadClientTLSConfig(d.cfg)
		if err != nil {
			return nil, err
		}
		if tlsConfig != nil {
			return tls.DialWithDialer(dialer, network, addr, tlsConfig)
		}
	}
	return dialer.Dial(network, addr)
}

// ErrNotPointer is returned by Decode for a non-pointer or nil receiver.
var ErrNotPointer = errors.New("wrong receiver for decode")
