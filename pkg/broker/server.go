// Package broker is the request-broker core of the debugger-control server.
// Requests arrive concurrently on listener goroutines; blocking ones are
// parked in a queue until the debugger host's own loop drains it via
// Attachment.DispatchQueue. The host is never touched from a worker
// goroutine except for requests explicitly marked non-blocking.
package broker

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Simp1er/voltron/pkg/common"
	"github.com/Simp1er/voltron/pkg/model"
	"github.com/Simp1er/voltron/pkg/plugin"
	"github.com/Simp1er/voltron/pkg/transport/socket"
)

const (
	// default deadline for blocking requests
	defaultBlockTimeout = 10 * time.Second

	// default capacity of the request queue
	defaultQueueCapacity = 1024
)

// Config is the server configuration.
type Config struct {
	// ListenTCP is the tcp endpoint, e.g. "127.0.0.1:22222". Empty disables it.
	ListenTCP string
	// ListenUnix is the domain socket path. Empty disables it.
	// Ignored on Windows.
	ListenUnix string
	// BlockTimeout is the default deadline for blocking requests.
	// A request envelope may override it.
	BlockTimeout time.Duration
	// QueueCapacity bounds the number of requests waiting for dispatch.
	QueueCapacity int
	// Transport is handed to every listener.
	Transport model.TransportConfig
}

// ListenerFactory produces one listener per configured endpoint.
type ListenerFactory func() (model.Listener, error)

// DecodeFunc decodes generic envelope data into a typed request.
type DecodeFunc func(raw any, target any) error

// NewServer creates a server. It does not bind anything until Start.
func NewServer(cfg *Config, registry *plugin.Registry, newListener ListenerFactory, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("new server, config is nil")
	}
	if registry == nil {
		return nil, errors.New("new server, plugin registry is nil")
	}
	if newListener == nil {
		return nil, errors.New("new server, listener factory is nil")
	}
	if logger == nil {
		return nil, errors.New("new server, logger is nil")
	}

	blockTimeout := cfg.BlockTimeout
	if blockTimeout == 0 {
		blockTimeout = defaultBlockTimeout
	}
	queueCapacity := cfg.QueueCapacity
	if queueCapacity <= 0 {
		queueCapacity = defaultQueueCapacity
	}

	return &Server{
		cfg:           cfg,
		blockTimeout:  blockTimeout,
		queueCapacity: queueCapacity,
		registry:      registry,
		newListener:   newListener,
		decode:        socket.Decode,
		logger:        logger.With("component", "broker"),
	}, nil
}

// Server owns the request queue and the set of listeners.
type Server struct {
	cfg           *Config
	blockTimeout  time.Duration
	queueCapacity int

	registry    *plugin.Registry
	newListener ListenerFactory
	decode      DecodeFunc
	logger      *slog.Logger

	// mu serializes lifecycle transitions, fences the queue against enqueues
	// racing shutdown, and guards the queue slice itself
	mu        sync.Mutex
	queue     []*pending
	listeners []model.Listener
	running   atomic.Bool

	attachment atomic.Pointer[Attachment]
}

// Running reports whether the server is accepting requests.
func (s *Server) Running() bool {
	return s.running.Load()
}

// Pending returns the number of requests currently parked in the queue.
// Timed-out requests remove themselves, so they are not counted.
func (s *Server) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Addrs returns the bound addresses of listeners that expose them. Handy
// when listening on port 0.
func (s *Server) Addrs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var addrs []string
	for _, l := range s.listeners {
		if al, ok := l.(interface{ Addr() net.Addr }); ok {
			if a := al.Addr(); a != nil {
				addrs = append(addrs, a.String())
			}
		}
	}
	return addrs
}

// Start binds every configured endpoint and begins serving. The server is
// reported as running only once all listeners are up; a partial failure
// tears down the listeners that did start.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return errors.New("server is already running")
	}

	endpoints := s.endpoints()
	if len(endpoints) == 0 {
		return errors.New("no listen endpoints configured")
	}

	var started []model.Listener
	for _, endpoint := range endpoints {
		l, err := s.startListener(endpoint)
		if err != nil {
			for _, sl := range started {
				_ = sl.Stop()
			}
			return fmt.Errorf("start listener on %s: %w", endpoint, err)
		}
		started = append(started, l)
	}

	s.listeners = started
	s.queue = make([]*pending, 0, s.queueCapacity)
	s.running.Store(true)

	s.logger.Info("server started", "endpoints", endpoints)
	return nil
}

// Stop closes every listener, cancels all queued requests with a
// server_not_running error, and waits for the listener goroutines to finish.
// Calling Stop on a stopped or never-started server is a no-op. The server
// can be started again afterwards.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running.Load() {
		s.mu.Unlock()
		return
	}
	// fence first: no new request can be enqueued past this point
	s.running.Store(false)
	listeners := s.listeners
	queue := s.queue
	s.listeners = nil
	s.queue = nil
	s.mu.Unlock()

	// release every parked worker before joining the listeners, otherwise a
	// worker still waiting on its request would hold its listener goroutine
	// and the join would never return
	s.cancelQueue(queue)

	for _, l := range listeners {
		if err := l.Stop(); err != nil {
			s.logger.Error("failed to stop listener", "error", err.Error())
		}
	}

	s.logger.Info("server stopped")
}

// endpoints maps the config onto listener targets, skipping domain sockets
// on Windows.
func (s *Server) endpoints() []string {
	var endpoints []string
	if s.cfg.ListenTCP != "" {
		endpoints = append(endpoints, socket.TCPTarget(s.cfg.ListenTCP))
	}
	if s.cfg.ListenUnix != "" && runtime.GOOS != "windows" {
		endpoints = append(endpoints, socket.UnixTarget(s.cfg.ListenUnix))
	}
	return endpoints
}

func (s *Server) startListener(endpoint string) (model.Listener, error) {
	if s.cfg.ListenUnix != "" && endpoint == socket.UnixTarget(s.cfg.ListenUnix) {
		// a previous run may have left the socket file behind
		if err := os.Remove(s.cfg.ListenUnix); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("remove stale socket file: %w", err)
		}
	}

	l, err := s.newListener()
	if err != nil {
		return nil, err
	}
	if err := l.Start(endpoint, s.HandleRequest, s.cfg.Transport); err != nil {
		return nil, err
	}
	return l, nil
}

// enqueue parks a blocking request. It returns a non-nil error response when
// the request cannot be queued.
func (s *Server) enqueue(p *pending) *model.ResponseEnvelope {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() || s.queue == nil {
		return model.ServerNotRunningResponse()
	}
	if len(s.queue) >= s.queueCapacity {
		s.logger.Warn("request queue is full", "id", p.id, "request", p.env.Request)
		return model.ErrorResponse(common.ErrGeneric, common.MsgQueueFull.String())
	}
	s.queue = append(s.queue, p)
	return nil
}

// drain atomically takes every queued request, leaving the queue open for
// new arrivals while the batch is processed.
func (s *Server) drain() []*pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil
	}
	batch := s.queue
	s.queue = make([]*pending, 0, s.queueCapacity)
	return batch
}

// removePending deletes one request from the queue, preserving order. Called
// by a timed-out waiter so its husk does not consume queue capacity. A miss
// is fine: a dispatcher or shutdown drained the entry first.
func (s *Server) removePending(p *pending) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, queued := range s.queue {
		if queued == p {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

// cancelQueue assigns every queued request a server_not_running error and
// releases its waiting worker. Used only during shutdown.
func (s *Server) cancelQueue(batch []*pending) {
	if len(batch) == 0 {
		return
	}
	s.logger.Debug("cancelling queued requests", "count", len(batch))

	var cancelled []*pending
	for _, p := range batch {
		if !p.claim() {
			// already timed out, nobody is waiting
			continue
		}
		p.res = model.ServerNotRunningResponse()
		cancelled = append(cancelled, p)
	}
	for _, p := range cancelled {
		close(p.done)
	}
}
