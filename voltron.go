// Package voltron wires the debugger-control server and its view clients
// together from configuration: the socket transport, the plugin registry and
// the request broker on one side, the polling client on the other.
//
// A debugger host embeds the server side:
//
//	srv, _ := voltron.NewServer(cfg, nil, logger)
//	_ = srv.Start()
//	att, _ := srv.Attach(host)
//	// from the host's own loop, whenever the debugged process stops:
//	att.DispatchQueue()
//
// A view embeds the client side:
//
//	cl, _ := voltron.NewClient(cfg, &voltron.ClientConfig{
//		BuildRequests: buildRequests,
//		Callback:      render,
//	}, nil, logger)
//	cl.Start(nil, nil)
package voltron

import (
	"errors"
	"log/slog"
	"time"

	"github.com/Simp1er/voltron/pkg/broker"
	"github.com/Simp1er/voltron/pkg/client"
	"github.com/Simp1er/voltron/pkg/config"
	"github.com/Simp1er/voltron/pkg/model"
	"github.com/Simp1er/voltron/pkg/plugin"
	"github.com/Simp1er/voltron/pkg/transport/socket"
)

// NewServer builds a broker server from the configuration. A nil cfg uses
// the defaults; a nil registry uses the built-in plugins.
func NewServer(cfg *config.Config, registry *plugin.Registry, logger *slog.Logger) (*broker.Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if registry == nil {
		registry = plugin.Builtin()
	}
	if logger == nil {
		return nil, errors.New("new server, logger is nil")
	}

	transportCfg := &cfg.Transport
	newListener := func() (model.Listener, error) {
		return socket.NewListener(logger)
	}

	return broker.NewServer(&broker.Config{
		ListenTCP:     cfg.Server.Listen.TCP,
		ListenUnix:    cfg.Server.Listen.Domain,
		BlockTimeout:  time.Duration(cfg.Server.BlockTimeout) * time.Second,
		QueueCapacity: cfg.Server.QueueCapacity,
		Transport:     transportCfg,
	}, registry, newListener, logger)
}

// ClientConfig carries the per-view client settings.
type ClientConfig struct {
	// Target overrides the configured target. When empty the client uses
	// view.apiUrl from the configuration, falling back to the configured
	// listen address.
	Target string
	// BuildRequests builds the update batch each iteration
	BuildRequests client.BuildRequests
	// Callback receives results and errors
	Callback client.Callback
	// DisableBlocking marks the embedding transport as unable to tolerate
	// blocking calls
	DisableBlocking bool
}

// NewClient builds a polling client from the configuration. A nil cfg uses
// the defaults; a nil registry uses the built-in plugins.
func NewClient(cfg *config.Config, clientCfg *ClientConfig, registry *plugin.Registry, logger *slog.Logger) (*client.Client, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if clientCfg == nil {
		clientCfg = &ClientConfig{}
	}
	if registry == nil {
		registry = plugin.Builtin()
	}
	if logger == nil {
		return nil, errors.New("new client, logger is nil")
	}

	target := clientCfg.Target
	if target == "" {
		target = cfg.ClientTarget()
	}

	dialer, err := socket.NewDialer(&cfg.Transport, logger)
	if err != nil {
		return nil, err
	}

	return client.New(&client.Config{
		Target:          target,
		BuildRequests:   clientCfg.BuildRequests,
		Callback:        clientCfg.Callback,
		DisableBlocking: clientCfg.DisableBlocking,
		Backoff:         time.Duration(cfg.View.Backoff) * time.Second,
	}, dialer, registry, logger)
}
