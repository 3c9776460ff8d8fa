package client

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Simp1er/voltron/pkg/model"
)

// Result pairs a request with its decoded response.
type Result struct {
	// Request is the request-type name this result answers
	Request string
	// Envelope is the generic response envelope
	Envelope *model.ResponseEnvelope
	// Typed is the plugin's typed response when one is registered and the
	// response was a success; nil otherwise
	Typed any
}

// CreateRequest builds a request envelope for a registered request type.
func (c *Client) CreateRequest(name string, data map[string]any, block bool) (*model.RequestEnvelope, error) {
	if _, ok := c.registry.Resolve(name); !ok {
		return nil, fmt.Errorf("no plugin registered for request %s", name)
	}
	env := model.NewRequest(name, data)
	env.Block = block
	return env, nil
}

// PerformRequest creates and sends a single non-blocking request.
func (c *Client) PerformRequest(name string, data map[string]any) (*Result, error) {
	env, err := c.CreateRequest(name, data, false)
	if err != nil {
		return nil, err
	}
	return c.SendRequest(env)
}

// SendRequest sends one request to the server and decodes the response. A
// transport failure is returned as an error; an error response from the
// server is a valid Result.
func (c *Client) SendRequest(env *model.RequestEnvelope) (*Result, error) {
	payload, err := model.EncodeEnvelope(env)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("sending request", "request", env.Request, "block", env.Block)
	raw, err := c.sender.Send(c.target, payload)
	if err != nil {
		return nil, err
	}

	result := &Result{Request: env.Request}
	if len(raw) == 0 {
		result.Envelope = model.EmptyResponseResponse()
		return result, nil
	}

	responseEnv, err := model.DecodeResponseEnvelope(raw)
	if err != nil {
		c.logger.Error("invalid response from server", "request", env.Request, "error", err.Error())
		result.Envelope = model.EmptyResponseResponse()
		return result, nil
	}
	result.Envelope = responseEnv
	if responseEnv.IsError() {
		return result, nil
	}

	// success; decode into the plugin's response type if it has one
	typed, ok := c.registry.NewResponse(env.Request)
	if !ok {
		return result, nil
	}
	if err := c.sender.Decode(responseEnv.Data, typed); err != nil {
		c.logger.Error("failed to decode typed response", "request", env.Request, "error", err.Error())
		return result, nil
	}
	result.Typed = typed
	return result, nil
}

// SendRequests sends every request concurrently, each on its own pooled
// connection, and returns the responses in the same order as the input.
// If any send fails, the first failure is returned.
func (c *Client) SendRequests(reqs []*model.RequestEnvelope) ([]*Result, error) {
	results := make([]*Result, len(reqs))
	g := errgroup.Group{}
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			result, err := c.SendRequest(req)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
