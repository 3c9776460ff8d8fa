// Package socket is the framed-JSON stream transport: one length-prefixed
// request frame in, one response frame out, over TCP (optionally TLS) or a
// Unix domain socket. Connections are persistent; a client may send any
// number of request frames before closing.
package socket

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/Simp1er/voltron/pkg/model"
)

// NewListener creates a listener that serves one endpoint.
func NewListener(logger *slog.Logger) (*Listener, error) {
	if logger == nil {
		return nil, fmt.Errorf("new listener, logger is nil")
	}
	return &Listener{
		logger: logger.With("component", "socket listener"),
	}, nil
}

// Listener accepts connections on one endpoint and feeds every request frame
// to the handler. It implements model.Listener.
type Listener struct {
	ln      net.Listener
	handler model.RequestHandler
	limit   uint32

	// conns tracks accepted connections so Stop can sever in-flight reads
	// net.Conn -> struct{}
	conns sync.Map
	wg    sync.WaitGroup

	closed atomic.Bool
	logger *slog.Logger
}

// Start binds the address and begins serving in the background.
func (l *Listener) Start(address string, handler model.RequestHandler, listenerConfig model.TransportConfig) error {
	cfg, ok := listenerConfig.(*Config)
	if !ok {
		return errors.New("not a valid socket listener config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if handler == nil {
		return errors.New("listener handler is nil")
	}

	network, addr, err := splitAddress(address)
	if err != nil {
		return err
	}

	tlsConfig, err := loadServerTLSConfig(cfg)
	if err != nil {
		return err
	}

	var ln net.Listener
	if tlsConfig != nil && network == "tcp" {
		ln, err = tls.Listen(network, addr, tlsConfig)
	} else {
		ln, err = net.Listen(network, addr)
	}
	if err != nil {
		return err
	}

	l.ln = ln
	l.handler = handler
	l.limit = cfg.frameLimit()

	l.wg.Add(1)
	go l.acceptLoop()

	l.logger.Info("listener started", "address", ln.Addr().String(), "network", network)
	return nil
}

// Addr returns the bound address, useful when listening on port 0.
func (l *Listener) Addr() net.Addr {
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Stop closes the endpoint and every accepted connection, then waits for the
// serving goroutines to finish. Safe to call more than once.
func (l *Listener) Stop() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	var err error
	if l.ln != nil {
		err = l.ln.Close()
	}
	l.conns.Range(func(key, _ any) bool {
		// force-close so a blocked read returns immediately
		_ = key.(net.Conn).Close()
		return true
	})
	l.wg.Wait()
	l.logger.Info("listener stopped")
	return err
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if l.closed.Load() {
				return
			}
			l.logger.Error("failed to accept connection", "error", err.Error())
			continue
		}
		l.conns.Store(conn, struct{}{})
		l.wg.Add(1)
		go l.serveConn(conn)
	}
}

func (l *Listener) serveConn(conn net.Conn) {
	defer l.wg.Done()
	defer l.conns.Delete(conn)
	defer conn.Close()

	for {
		payload, err := readFrame(conn, l.limit)
		if err != nil {
			// disconnects are routine; only log while still serving
			if !l.closed.Load() {
				l.logger.Debug("connection closed", "remote", conn.RemoteAddr(), "reason", err.Error())
			}
			return
		}

		response := l.handler(payload)
		if err := writeFrame(conn, response, l.limit); err != nil {
			l.logger.Error("failed to write response", "remote", conn.RemoteAddr(), "error", err.Error())
			return
		}
	}
}
