package model

import (
	"fmt"
)

// MissingFieldError is returned by APIRequest.Validate when a required field
// is absent. The dispatcher maps it to a missing_field error response that
// carries the field name.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// TransportError is the normalized form of any client-side connection
// failure. The polling loop only ever inspects this type, never the
// underlying dial/read errors.
type TransportError struct {
	// Op is the operation that failed, e.g. "dial" or "read"
	Op string
	// Target is the server target the operation was aimed at
	Target string
	// Err is the underlying error
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Target, e.Err.Error())
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
