// Package plugin maps request-type names to the factories that produce their
// typed request and response objects. Registration is validated eagerly so a
// bad plugin fails at startup, not when its first request arrives.
package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Simp1er/voltron/pkg/model"
)

// Plugin describes one registered request type.
type Plugin struct {
	// Name is the request-type name carried in the envelope
	Name string
	// NewRequest produces an empty typed request ready to be decoded into
	NewRequest func() model.APIRequest
	// NewResponse produces an empty typed response for the client side.
	// It may be nil; the client then falls back to the generic envelope.
	NewResponse func() any
}

// Registry holds the set of registered plugins.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
	}
}

// Register validates and installs a plugin.
func (r *Registry) Register(p Plugin) error {
	if p.Name == "" {
		return fmt.Errorf("register plugin: name is empty")
	}
	if p.NewRequest == nil {
		return fmt.Errorf("register plugin %s: request factory is nil", p.Name)
	}
	if p.NewRequest() == nil {
		return fmt.Errorf("register plugin %s: request factory returns nil", p.Name)
	}
	if p.NewResponse != nil && p.NewResponse() == nil {
		return fmt.Errorf("register plugin %s: response factory returns nil", p.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plugins[p.Name]; ok {
		return fmt.Errorf("register plugin %s: already registered", p.Name)
	}
	r.plugins[p.Name] = p
	return nil
}

// Resolve returns the plugin registered for the request name.
func (r *Registry) Resolve(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// NewRequest builds an empty typed request for the named plugin.
func (r *Registry) NewRequest(name string) (model.APIRequest, bool) {
	p, ok := r.Resolve(name)
	if !ok {
		return nil, false
	}
	return p.NewRequest(), true
}

// NewResponse builds an empty typed response for the named plugin.
// The second return is false when the plugin is unknown or has no
// response type of its own.
func (r *Registry) NewResponse(name string) (any, bool) {
	p, ok := r.Resolve(name)
	if !ok || p.NewResponse == nil {
		return nil, false
	}
	return p.NewResponse(), true
}

// Names returns the sorted names of all registered plugins.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
