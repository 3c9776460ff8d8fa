// Package client implements the view side of the debugger-control protocol:
// a polling loop that negotiates blocking or async mode from the server's
// capabilities, fans update batches out over concurrent connections, and
// recovers from connection loss with backoff.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/looplab/fsm"

	"github.com/Simp1er/voltron/pkg/common"
	"github.com/Simp1er/voltron/pkg/model"
	"github.com/Simp1er/voltron/pkg/plugin"
)

// default backoff between retries after a connection failure
const defaultBackoff = time.Second

// ErrBlockingNotSupported is returned by Run when the server offers no async
// capability and this client's transport cannot tolerate a blocking call.
var ErrBlockingNotSupported = errors.New(common.MsgBlockingNotSupported.String())

// BuildRequests produces the batch of requests for one update iteration.
type BuildRequests func() []*model.RequestEnvelope

// Callback receives the results of an update iteration, or the error that
// aborted it. Exactly one of the two is set.
type Callback func(results []*Result, err error)

// Config is the client configuration.
type Config struct {
	// Target is the server target, e.g. "tcp://127.0.0.1:22222" or
	// "unix:///path/to/sock"
	Target string
	// BuildRequests builds the update batch each iteration
	BuildRequests BuildRequests
	// Callback receives results and errors
	Callback Callback
	// DisableBlocking marks the embedding transport as unable to tolerate
	// blocking calls, e.g. a debugger that cannot run code on its own
	// request thread
	DisableBlocking bool
	// Backoff is the pause after a connection failure. Zero means 1s.
	Backoff time.Duration
}

// New creates a client.
func New(cfg *Config, sender model.Sender, registry *plugin.Registry, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("new client, config is nil")
	}
	if cfg.Target == "" {
		return nil, errors.New("new client, target is empty")
	}
	if sender == nil {
		return nil, errors.New("new client, sender is nil")
	}
	if registry == nil {
		return nil, errors.New("new client, plugin registry is nil")
	}
	if logger == nil {
		return nil, errors.New("new client, logger is nil")
	}

	backoff := cfg.Backoff
	if backoff == 0 {
		backoff = defaultBackoff
	}

	c := &Client{
		target:           cfg.Target,
		supportsBlocking: !cfg.DisableBlocking,
		backoff:          backoff,
		buildRequests:    cfg.BuildRequests,
		callback:         cfg.Callback,
		sender:           sender,
		registry:         registry,
		errChan:          make(chan error, 1),
		logger:           logger.With("component", "client"),
	}
	c.fsm = newLoopFSM(c)
	return c, nil
}

// Client communicates with a debugger-control server on behalf of a view.
type Client struct {
	target           string
	supportsBlocking bool
	backoff          time.Duration

	buildRequests BuildRequests
	callback      Callback

	sender   model.Sender
	registry *plugin.Registry

	// fsm is the polling loop state machine, driven only by the loop goroutine
	fsm *fsm.FSM

	mu            sync.RWMutex
	serverVersion *plugin.VersionResponse
	block         bool

	done    atomic.Bool
	errChan chan error

	logger *slog.Logger
}

// ServerVersion returns the last version response received from the server,
// or nil when none is cached.
func (c *Client) ServerVersion() *plugin.VersionResponse {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverVersion
}

// Blocking reports whether the client is in blocking mode.
func (c *Client) Blocking() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.block
}

// State returns the current loop state.
func (c *Client) State() string {
	return c.fsm.Current()
}

// Visualize returns the loop state machine in Graphviz format.
func (c *Client) Visualize() string {
	return fsm.Visualize(c.fsm)
}

// Run executes the polling loop until Stop is called. Non-nil arguments
// override the configured request builder and callback. The only error Run
// itself returns is ErrBlockingNotSupported; connection failures are
// reported through the callback and retried.
func (c *Client) Run(buildRequests BuildRequests, callback Callback) error {
	if buildRequests != nil {
		c.buildRequests = buildRequests
	}
	if callback != nil {
		c.callback = callback
	}
	if c.buildRequests == nil || c.callback == nil {
		return errors.New("client run, request builder or callback is missing")
	}

	ctx := context.Background()
	for !c.done.Load() {
		err := c.step(ctx)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrBlockingNotSupported) {
			c.report(nil, err)
			return err
		}

		c.logger.Warn("connection failure, backing off", "target", c.target, "error", err.Error())
		c.report(nil, err)
		c.lostConnection(ctx)
		time.Sleep(c.backoff)
	}
	return nil
}

// Start runs the polling loop in a background goroutine. The loop's
// terminal error, if any, is delivered on Errors.
func (c *Client) Start(buildRequests BuildRequests, callback Callback) {
	go func() {
		if err := c.Run(buildRequests, callback); err != nil {
			select {
			case c.errChan <- err:
			default:
			}
		}
	}()
}

// Errors returns the channel carrying the loop's terminal error.
func (c *Client) Errors() <-chan error {
	return c.errChan
}

// Stop asks the loop to exit. The flag is checked once per iteration; an
// in-flight request is allowed to finish.
func (c *Client) Stop() {
	c.done.Store(true)
}

// Close releases the client's pooled connections.
func (c *Client) Close() error {
	return c.sender.Close()
}

// step performs one loop iteration for the current state.
func (c *Client) step(ctx context.Context) error {
	switch c.fsm.Current() {
	case stateUnversioned:
		return c.negotiate(ctx)
	case stateBlocking:
		return c.update()
	case stateAsyncWaiting:
		return c.pollHostStopped(ctx)
	case stateUpdating:
		if err := c.update(); err != nil {
			return err
		}
		return c.fsm.Event(ctx, eventUpdateDone)
	default:
		return fmt.Errorf("client loop in unknown state %s", c.fsm.Current())
	}
}

// negotiate fetches the server version and picks the polling mode.
func (c *Client) negotiate(ctx context.Context) error {
	result, err := c.PerformRequest("version", nil)
	if err != nil {
		return err
	}
	if result.Envelope.IsError() {
		return fmt.Errorf("version request failed: %s", result.Envelope.Error.Message)
	}
	version, ok := result.Typed.(*plugin.VersionResponse)
	if !ok {
		return fmt.Errorf("version request returned no version payload")
	}
	c.setServerVersion(version)
	c.logger.Info("negotiated server version", "api_version", version.APIVersion,
		"host_version", version.HostVersion, "capabilities", version.Capabilities)

	switch {
	case version.SupportsAsync():
		// async mode; some views only work asynchronously, prefer it
		c.setBlock(false)
		return c.fsm.Event(ctx, eventVersionAsync)
	case c.supportsBlocking:
		c.setBlock(true)
		return c.fsm.Event(ctx, eventVersionSync)
	default:
		return ErrBlockingNotSupported
	}
}

// pollHostStopped long-polls a null request, the one request an async client
// allows to block. It returns when the debugger next stops or the server's
// blocking deadline expires.
func (c *Client) pollHostStopped(ctx context.Context) error {
	env, err := c.CreateRequest("null", nil, true)
	if err != nil {
		return err
	}
	result, err := c.SendRequest(env)
	if err != nil {
		return err
	}
	if !result.Envelope.IsSuccess() {
		// a timed_out response just means the host did not stop within the
		// server's deadline; poll again right away. Any other rejection is
		// answered immediately server-side, so pause before retrying.
		if result.Envelope.ErrorKind() != common.ErrTimedOut {
			c.logger.Debug("null poll rejected", "code", result.Envelope.ErrorKind().String())
			time.Sleep(c.backoff)
		}
		return nil
	}

	// the null payload mirrors the version response; re-validate the cache
	if version, ok := result.Typed.(*plugin.VersionResponse); ok {
		c.setServerVersion(version)
	}
	return c.fsm.Event(ctx, eventHostStopped)
}

// update builds one batch of requests, sends them concurrently and hands the
// results to the callback.
func (c *Client) update() error {
	reqs := c.buildRequests()
	block := c.Blocking()
	for _, r := range reqs {
		r.Block = block
	}

	results, err := c.SendRequests(reqs)
	if err != nil {
		return err
	}
	c.report(results, nil)
	return nil
}

func (c *Client) lostConnection(ctx context.Context) {
	c.setServerVersion(nil)
	if c.fsm.Current() == stateUnversioned {
		return
	}
	if err := c.fsm.Event(ctx, eventConnectionLost); err != nil {
		c.logger.Error("failed to reset loop state", "error", err.Error())
	}
}

func (c *Client) report(results []*Result, err error) {
	if c.callback != nil {
		c.callback(results, err)
	}
}

func (c *Client) setServerVersion(v *plugin.VersionResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serverVersion = v
}

func (c *Client) setBlock(block bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block = block
}
