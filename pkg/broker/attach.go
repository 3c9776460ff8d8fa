package broker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Simp1er/voltron/pkg/common"
	"github.com/Simp1er/voltron/pkg/model"
)

// Attach binds a debugger host to the server and returns the attachment that
// the host loop uses to drain the queue. Queue dispatch exists only on the
// attachment, so nothing but the holder of this token can reach the host.
// Only one host can be attached at a time.
func (s *Server) Attach(host model.Host) (*Attachment, error) {
	if host == nil {
		return nil, errors.New("attach, host is nil")
	}

	att := &Attachment{
		srv:    s,
		host:   host,
		logger: s.logger.With("component", "dispatcher"),
	}
	if !s.attachment.CompareAndSwap(nil, att) {
		return nil, errors.New("attach, a host is already attached")
	}

	s.logger.Info("host attached", "host_version", host.Version(), "capabilities", host.Capabilities())
	return att, nil
}

// Attachment is the capability token held by the debugger host loop. Its
// methods are meant to be called from that loop only.
type Attachment struct {
	srv  *Server
	host model.Host

	detached    atomic.Bool
	dispatching atomic.Bool

	logger *slog.Logger
}

// Host returns the attached host.
func (a *Attachment) Host() model.Host {
	return a.host
}

// Detach releases the attachment. Requests arriving afterwards fail with
// debugger_not_present. Safe to call more than once.
func (a *Attachment) Detach() {
	if !a.detached.CompareAndSwap(false, true) {
		return
	}
	a.srv.attachment.CompareAndSwap(a, nil)
	a.logger.Info("host detached")
}

// DispatchQueue drains the queue and executes every request in arrival
// order, then releases all their waiting callers in one pass. The host loop
// calls this when the debugged process stops; it never blocks on the queue
// and must not be re-entered.
func (a *Attachment) DispatchQueue() {
	if a.detached.Load() {
		a.logger.Error("dispatch on a detached host, ignored")
		return
	}
	if !a.dispatching.CompareAndSwap(false, true) {
		a.logger.Error("re-entrant queue dispatch, ignored")
		return
	}
	defer a.dispatching.Store(false)

	batch := a.srv.drain()
	if len(batch) == 0 {
		return
	}

	var completed []*pending
	for _, p := range batch {
		if !p.claim() {
			// timed out while queued, its caller is long gone
			a.logger.Debug("skipping abandoned request", "id", p.id, "request", p.env.Request)
			continue
		}
		a.logger.Debug("dispatching request", "id", p.id, "request", p.env.Request)
		p.res = a.dispatchRequest(p)
		completed = append(completed, p)
	}

	// signal only after the whole batch has its results written
	for _, p := range completed {
		close(p.done)
	}
	a.logger.Debug("queue dispatched", "batch", len(batch), "completed", len(completed))
}

// dispatchRequest validates and executes one request, converting every
// failure into a typed error response. Nothing may escape to the host loop:
// a panicking request handler must not take the debugger down with it.
func (a *Attachment) dispatchRequest(p *pending) (res *model.ResponseEnvelope) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("panic while dispatching request", "id", p.id, "request", p.env.Request, "panic", fmt.Sprint(r))
			res = model.ErrorResponse(common.ErrGeneric, fmt.Sprintf("panic while dispatching request: %v", r))
		}
	}()

	if err := p.req.Validate(); err != nil {
		var missing *model.MissingFieldError
		if errors.As(err, &missing) {
			return model.ErrorResponse(common.ErrMissingField, missing.Error())
		}
		return model.ErrorResponse(common.ErrGeneric, err.Error())
	}

	data, err := p.req.Execute(a.host)
	if err != nil {
		a.logger.Error("request failed", "id", p.id, "request", p.env.Request, "error", err.Error())
		return model.ErrorResponse(common.ErrGeneric, err.Error())
	}
	return model.SuccessResponse(data)
}
