package socket

import (
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Decode decodes raw envelope data (a generic map) into the target object.
// Field names follow the json tags of the target.
func Decode(raw any, target any) error {
	decodeHook := func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t.Kind() == reflect.String && f.Kind() == reflect.Slice {
			if bytes, ok := data.([]uint8); ok {
				return string(bytes), nil
			}
		}
		return data, nil
	}

	paramCheck := func(a any) bool {
		t := reflect.TypeOf(a)
		if t != nil && t.Kind() == reflect.Ptr {
			return !reflect.ValueOf(a).IsNil()
		}
		return false
	}

	if !paramCheck(target) {
		return ErrNotPointer
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: decodeHook,
		TagName:    "json",
		Result:     target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// Decode implements model.Sender for Dialer.
func (d *Dialer) Decode(raw any, target any) error {
	return Decode(raw, target)
}
