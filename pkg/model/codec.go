package model

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/ugorji/go/codec"
)

var jsonHandle = newJSONHandle()

func newJSONHandle() *codec.JsonHandle {
	h := &codec.JsonHandle{}
	// generic envelope data must decode as map[string]any so plugins can
	// re-decode it into their typed requests
	h.MapType = reflect.TypeOf(map[string]any(nil))
	return h
}

// EncodeEnvelope serializes a request or response envelope to JSON.
func EncodeEnvelope(v any) ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, jsonHandle).Encode(v); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return out, nil
}

// DecodeRequestEnvelope parses raw bytes into a request envelope. The request
// name is the only mandatory field; anything unparsable or unnamed is an
// invalid request.
func DecodeRequestEnvelope(raw []byte) (*RequestEnvelope, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty request payload")
	}
	env := &RequestEnvelope{}
	if err := codec.NewDecoderBytes(raw, jsonHandle).Decode(env); err != nil {
		return nil, fmt.Errorf("decode request envelope: %w", err)
	}
	if env.Request == "" {
		return nil, errors.New("request envelope has no request name")
	}
	return env, nil
}

// DecodeResponseEnvelope parses raw bytes into a response envelope.
func DecodeResponseEnvelope(raw []byte) (*ResponseEnvelope, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty response payload")
	}
	env := &ResponseEnvelope{}
	if err := codec.NewDecoderBytes(raw, jsonHandle).Decode(env); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	if env.Status != StatusSuccess && env.Status != StatusError {
		return nil, fmt.Errorf("response envelope has unknown status %q", env.Status)
	}
	return env, nil
}
