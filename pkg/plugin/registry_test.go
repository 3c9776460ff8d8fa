package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simp1er/voltron/pkg/model"
)

type dummyRequest struct{}

func (r *dummyRequest) Validate() error                 { return nil }
func (r *dummyRequest) Execute(model.Host) (any, error) { return nil, nil }

func TestRegistry_Register(t *testing.T) {
	goodRequest := func() model.APIRequest { return &dummyRequest{} }

	tests := []struct {
		name    string
		plugin  Plugin
		wantErr string
	}{
		{
			name:    "valid",
			plugin:  Plugin{Name: "registers", NewRequest: goodRequest},
			wantErr: "",
		},
		{
			name:    "valid_with_response",
			plugin:  Plugin{Name: "memory", NewRequest: goodRequest, NewResponse: func() any { return &struct{}{} }},
			wantErr: "",
		},
		{
			name:    "empty_name",
			plugin:  Plugin{NewRequest: goodRequest},
			wantErr: "name is empty",
		},
		{
			name:    "nil_request_factory",
			plugin:  Plugin{Name: "broken"},
			wantErr: "request factory is nil",
		},
		{
			name:    "request_factory_returns_nil",
			plugin:  Plugin{Name: "broken", NewRequest: func() model.APIRequest { return nil }},
			wantErr: "request factory returns nil",
		},
		{
			name:    "response_factory_returns_nil",
			plugin:  Plugin{Name: "broken", NewRequest: goodRequest, NewResponse: func() any { return nil }},
			wantErr: "response factory returns nil",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register(tt.plugin)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	p := Plugin{Name: "registers", NewRequest: func() model.APIRequest { return &dummyRequest{} }}

	require.NoError(t, r.Register(p))
	assert.ErrorContains(t, r.Register(p), "already registered")
}

func TestRegistry_Resolve(t *testing.T) {
	r := Builtin()

	_, ok := r.Resolve("version")
	assert.True(t, ok)
	_, ok = r.Resolve("null")
	assert.True(t, ok)
	_, ok = r.Resolve("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"null", "version"}, r.Names())
}

func TestRegistry_NewResponse(t *testing.T) {
	r := Builtin()
	require.NoError(t, r.Register(Plugin{
		Name:       "bare",
		NewRequest: func() model.APIRequest { return &dummyRequest{} },
	}))

	typed, ok := r.NewResponse("version")
	assert.True(t, ok)
	assert.IsType(t, &VersionResponse{}, typed)

	// a plugin without a response type falls back to the generic envelope
	_, ok = r.NewResponse("bare")
	assert.False(t, ok)
}

type staticHost struct {
	capabilities []string
}

func (h *staticHost) Version() string        { return "host-2.3" }
func (h *staticHost) Capabilities() []string { return h.capabilities }

func TestVersionRequest_Execute(t *testing.T) {
	host := &staticHost{capabilities: []string{"async"}}

	payload, err := (&VersionRequest{}).Execute(host)
	require.NoError(t, err)

	version, ok := payload.(*VersionResponse)
	require.True(t, ok)
	assert.Equal(t, "host-2.3", version.HostVersion)
	assert.True(t, version.SupportsAsync())

	// the null payload mirrors the version payload
	nullPayload, err := (&NullRequest{}).Execute(host)
	require.NoError(t, err)
	assert.Equal(t, payload, nullPayload)
}

func TestVersionResponse_SupportsAsync(t *testing.T) {
	assert.False(t, (&VersionResponse{}).SupportsAsync())
	assert.False(t, (&VersionResponse{Capabilities: []string{"sync"}}).SupportsAsync())
	assert.True(t, (&VersionResponse{Capabilities: []string{"sync", "async"}}).SupportsAsync())
}
