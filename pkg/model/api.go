package model

// Host is the narrow view of the attached debugger the broker needs. The
// concrete host object is owned by the host loop's thread; request handlers
// only ever see it through this interface, from code the host loop invokes.
type Host interface {
	// Version returns the debugger host version string
	Version() string
	// Capabilities returns the capability names the host supports
	Capabilities() []string
}

// APIRequest is implemented by every registered request type.
type APIRequest interface {
	// Validate checks that all required fields are present.
	// A missing field is reported as a *MissingFieldError.
	Validate() error
	// Execute runs the request against the host and returns the response
	// payload. It is called on the host thread for blocking requests and on
	// the receiving worker goroutine for non-blocking ones.
	Execute(host Host) (any, error)
}

// RequestHandler handles one raw request payload and returns the raw response
// payload. It never fails; every failure is encoded as an error response.
type RequestHandler func(payload []byte) []byte

// TransportConfig is the contract for a transport configuration object
// that can be validated.
type TransportConfig interface {
	Validate() error
}

// Listener accepts connections on one endpoint and feeds request payloads to
// a handler, one handler call per request frame.
type Listener interface {
	// Start binds the address and begins serving in the background.
	Start(address string, handler RequestHandler, config TransportConfig) error
	// Stop closes the endpoint and every accepted connection, interrupting
	// in-flight reads, and waits for the serving goroutines to finish.
	Stop() error
}

// Sender issues request payloads to a server target and decodes the loosely
// typed parts of the envelopes it gets back.
type Sender interface {
	// Send writes one request payload and reads one response payload.
	Send(target string, payload []byte) ([]byte, error)

	// Decode decodes the raw data into the target object.
	// Envelope payloads travel as generic maps, we need to decode them.
	Decode(raw any, target any) error

	// Close releases every pooled connection.
	Close() error
}
