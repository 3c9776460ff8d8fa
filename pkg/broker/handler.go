package broker

import (
	"time"

	"github.com/Simp1er/voltron/pkg/common"
	"github.com/Simp1er/voltron/pkg/model"
)

// HandleRequest handles one raw request payload and returns the raw response
// payload. It is invoked concurrently from listener goroutines, one call per
// inbound request frame, and never fails: every failure mode is encoded as a
// typed error response.
func (s *Server) HandleRequest(payload []byte) []byte {
	return s.marshalResponse(s.handle(payload))
}

func (s *Server) handle(payload []byte) *model.ResponseEnvelope {
	if !s.running.Load() {
		return model.ServerNotRunningResponse()
	}

	// make sure we have a debugger, or we're gonna have a bad time
	att := s.attachment.Load()
	if att == nil || att.detached.Load() {
		return model.DebuggerNotPresentResponse()
	}

	env, err := model.DecodeRequestEnvelope(payload)
	if err != nil {
		s.logger.Error("failed to parse request", "error", err.Error())
		return model.InvalidRequestResponse()
	}

	req, ok := s.registry.NewRequest(env.Request)
	if !ok {
		s.logger.Error("no plugin for request", "request", env.Request)
		return model.PluginNotFoundResponse()
	}
	if len(env.Data) > 0 {
		if err := s.decode(env.Data, req); err != nil {
			s.logger.Error("failed to decode request data", "request", env.Request, "error", err.Error())
			return model.InvalidRequestResponse()
		}
	}

	p := newPending(env, req)

	if !env.Block {
		// non-blocking, dispatch straight away on this goroutine
		s.logger.Debug("dispatching request inline", "id", p.id, "request", env.Request)
		return att.dispatchRequest(p)
	}

	if res := s.enqueue(p); res != nil {
		return res
	}
	s.logger.Debug("request queued", "id", p.id, "request", env.Request)

	// when this returns, the request has been processed by DispatchQueue on
	// the host loop, cancelled at shutdown, or timed out
	return s.wait(p)
}

// wait blocks the calling goroutine until the request is completed or its
// deadline passes. A timed-out waiter removes its own request from the queue
// so the husk does not occupy capacity while the host never stops.
func (s *Server) wait(p *pending) *model.ResponseEnvelope {
	timeout := s.blockTimeout
	if p.env.Timeout > 0 {
		timeout = time.Duration(p.env.Timeout) * time.Second
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
		return p.res
	case <-timer.C:
		if p.abandon() {
			s.removePending(p)
			s.logger.Debug("request timed out", "id", p.id, "request", p.env.Request, "timeout", timeout)
			return model.TimedOutResponse()
		}
		// a dispatcher claimed the request first; its result is imminent
		<-p.done
		return p.res
	}
}

func (s *Server) marshalResponse(res *model.ResponseEnvelope) []byte {
	out, err := model.EncodeEnvelope(res)
	if err == nil {
		return out
	}
	s.logger.Error("failed to encode response", "error", err.Error())

	out, err = model.EncodeEnvelope(model.ErrorResponse(common.ErrGeneric, "unencodable response payload"))
	if err == nil {
		return out
	}
	return []byte(`{"type":"response","status":"error","error":{"code":"generic_error"}}`)
}
