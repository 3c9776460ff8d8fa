package common

// APIVersion is the version of the request/response API spoken by this server.
const APIVersion = "1.1"

// CapabilityAsync is advertised in version responses when the server can
// execute non-blocking requests immediately on the receiving thread.
const CapabilityAsync = "async"

// ErrorKind identifies a class of API error as it appears on the wire.
type ErrorKind string

const (
	// ErrServerNotRunning the server has not been started, or has been stopped
	ErrServerNotRunning ErrorKind = "server_not_running"
	// ErrDebuggerNotPresent no debugger host has attached yet
	ErrDebuggerNotPresent ErrorKind = "debugger_not_present"
	// ErrInvalidRequest the payload could not be parsed as a request envelope
	ErrInvalidRequest ErrorKind = "invalid_request"
	// ErrPluginNotFound no plugin is registered for the named request type
	ErrPluginNotFound ErrorKind = "plugin_not_found"
	// ErrMissingField the request failed validation of its required fields
	ErrMissingField ErrorKind = "missing_field"
	// ErrGeneric any other failure raised while dispatching a request
	ErrGeneric ErrorKind = "generic_error"
	// ErrTimedOut the blocking wait exceeded its deadline
	ErrTimedOut ErrorKind = "timed_out"
	// ErrEmptyResponse the client received a zero-length body
	ErrEmptyResponse ErrorKind = "empty_response"
	// ErrBlockingNotSupported the client transport cannot tolerate blocking calls
	ErrBlockingNotSupported ErrorKind = "blocking_not_supported"
)

func (e ErrorKind) String() string {
	return string(e)
}

// ErrorMessage is the canned human-readable message paired with an error kind.
type ErrorMessage string

const (
	// MsgServerNotRunning the server is not in the running state
	MsgServerNotRunning ErrorMessage = `server is not running`
	// MsgDebuggerNotPresent no debugger host is attached
	MsgDebuggerNotPresent ErrorMessage = `no debugger present`
	// MsgInvalidRequest the request payload failed to parse
	MsgInvalidRequest ErrorMessage = `invalid API request`
	// MsgPluginNotFound no handler is registered for the request type
	MsgPluginNotFound ErrorMessage = `no plugin found for request`
	// MsgTimedOut the blocking request was not dispatched in time
	MsgTimedOut ErrorMessage = `request timed out`
	// MsgEmptyResponse the server returned a zero-length body
	MsgEmptyResponse ErrorMessage = `empty response from server`
	// MsgBlockingNotSupported the debugger requires blocking mode
	MsgBlockingNotSupported ErrorMessage = `debugger requires blocking mode`
	// MsgQueueFull the request queue is at capacity
	MsgQueueFull ErrorMessage = `request queue is full`
)

func (m ErrorMessage) String() string {
	return string(m)
}
