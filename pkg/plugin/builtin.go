package plugin

import (
	"github.com/Simp1er/voltron/pkg/common"
	"github.com/Simp1er/voltron/pkg/model"
)

// Builtin returns a registry preloaded with the plugins every server carries:
// version negotiation and the null request the async polling loop blocks on.
func Builtin() *Registry {
	r := NewRegistry()
	// registration of the built-ins cannot fail, the factories are static
	_ = r.Register(Plugin{
		Name:        "version",
		NewRequest:  func() model.APIRequest { return &VersionRequest{} },
		NewResponse: func() any { return &VersionResponse{} },
	})
	_ = r.Register(Plugin{
		Name:        "null",
		NewRequest:  func() model.APIRequest { return &NullRequest{} },
		NewResponse: func() any { return &VersionResponse{} },
	})
	return r
}

// VersionRequest asks the server for its API version and capability set.
type VersionRequest struct{}

func (r *VersionRequest) Validate() error {
	return nil
}

func (r *VersionRequest) Execute(host model.Host) (any, error) {
	return versionPayload(host), nil
}

// VersionResponse reports the API version and the capabilities of the
// attached host. Clients use it to pick between blocking and async mode.
type VersionResponse struct {
	APIVersion   string   `json:"api_version"`
	HostVersion  string   `json:"host_version"`
	Capabilities []string `json:"capabilities"`
}

// SupportsAsync reports whether the server advertised async capability.
func (v *VersionResponse) SupportsAsync() bool {
	for _, c := range v.Capabilities {
		if c == common.CapabilityAsync {
			return true
		}
	}
	return false
}

// NullRequest does nothing. Clients in async mode send it with block=true as
// a long-poll that returns when the debugger next stops; its payload mirrors
// the version response so the client can re-validate its cached version.
type NullRequest struct{}

func (r *NullRequest) Validate() error {
	return nil
}

func (r *NullRequest) Execute(host model.Host) (any, error) {
	return versionPayload(host), nil
}

func versionPayload(host model.Host) *VersionResponse {
	return &VersionResponse{
		APIVersion:   common.APIVersion,
		HostVersion:  host.Version(),
		Capabilities: host.Capabilities(),
	}
}
