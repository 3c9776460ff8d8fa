package model

import (
	"github.com/Simp1er/voltron/pkg/common"
)

const (
	// KindRequest marks an envelope carrying a request
	KindRequest = "request"
	// KindResponse marks an envelope carrying a response
	KindResponse = "response"

	// StatusSuccess marks a successful response
	StatusSuccess = "success"
	// StatusError marks an error response
	StatusError = "error"
)

// RequestEnvelope is the generic wire form of one API call. The broker only
// interprets the request name and the blocking flags; Data is decoded into the
// typed request produced by the plugin registry.
type RequestEnvelope struct {
	// Kind is always "request"
	Kind string `json:"type"`
	// Request is the request-type name used to resolve a plugin
	Request string `json:"request"`
	// Block requests synchronous semantics; the call is queued until the
	// debugger host stops and drains the queue
	Block bool `json:"block"`
	// Timeout overrides the server's blocking deadline, in seconds.
	// Zero means the server default.
	Timeout uint `json:"timeout,omitempty"`
	// Data is the request payload, owned by the plugin's request type
	Data map[string]any `json:"data,omitempty"`
}

// NewRequest builds a request envelope for the named request type.
func NewRequest(name string, data map[string]any) *RequestEnvelope {
	return &RequestEnvelope{
		Kind:    KindRequest,
		Request: name,
		Data:    data,
	}
}

// ResponseEnvelope is the generic wire form of one API response.
type ResponseEnvelope struct {
	// Kind is always "response"
	Kind string `json:"type"`
	// Status is "success" or "error"
	Status string `json:"status"`
	// Data is the response payload on success
	Data any `json:"data,omitempty"`
	// Error carries the error code and message on failure
	Error *ErrorBody `json:"error,omitempty"`
}

// ErrorBody is the error part of a response envelope.
type ErrorBody struct {
	Code    common.ErrorKind `json:"code"`
	Message string           `json:"message,omitempty"`
}

// IsSuccess reports whether the response carries a success status.
func (r *ResponseEnvelope) IsSuccess() bool {
	return r != nil && r.Status == StatusSuccess
}

// IsError reports whether the response carries an error status.
func (r *ResponseEnvelope) IsError() bool {
	return r != nil && r.Status == StatusError
}

// ErrorKind returns the error code of the response, or the empty kind for a
// success response.
func (r *ResponseEnvelope) ErrorKind() common.ErrorKind {
	if r == nil || r.Error == nil {
		return ""
	}
	return r.Error.Code
}

// SuccessResponse wraps a payload in a success envelope.
func SuccessResponse(data any) *ResponseEnvelope {
	return &ResponseEnvelope{
		Kind:   KindResponse,
		Status: StatusSuccess,
		Data:   data,
	}
}

// ErrorResponse builds an error envelope with the given kind and message.
func ErrorResponse(kind common.ErrorKind, message string) *ResponseEnvelope {
	return &ResponseEnvelope{
		Kind:   KindResponse,
		Status: StatusError,
		Error: &ErrorBody{
			Code:    kind,
			Message: message,
		},
	}
}

// ServerNotRunningResponse is the canned response assigned to requests that
// arrive before start or are cancelled at shutdown.
func ServerNotRunningResponse() *ResponseEnvelope {
	return ErrorResponse(common.ErrServerNotRunning, common.MsgServerNotRunning.String())
}

// DebuggerNotPresentResponse is returned while no host is attached.
func DebuggerNotPresentResponse() *ResponseEnvelope {
	return ErrorResponse(common.ErrDebuggerNotPresent, common.MsgDebuggerNotPresent.String())
}

// InvalidRequestResponse is returned when the payload fails to parse.
func InvalidRequestResponse() *ResponseEnvelope {
	return ErrorResponse(common.ErrInvalidRequest, common.MsgInvalidRequest.String())
}

// PluginNotFoundResponse is returned when no plugin matches the request name.
func PluginNotFoundResponse() *ResponseEnvelope {
	return ErrorResponse(common.ErrPluginNotFound, common.MsgPluginNotFound.String())
}

// TimedOutResponse is returned when a blocking wait exceeds its deadline.
func TimedOutResponse() *ResponseEnvelope {
	return ErrorResponse(common.ErrTimedOut, common.MsgTimedOut.String())
}

// EmptyResponseResponse is produced client-side for a zero-length body.
func EmptyResponseResponse() *ResponseEnvelope {
	return ErrorResponse(common.ErrEmptyResponse, common.MsgEmptyResponse.String())
}
