package decode

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Options controls decode behavior.
type Options struct {
	// WeaklyTypedInput enables loose coercion (default true):
	// e.g. 5 -> "5", "123" -> int64. Client payloads carry identities as
	// either numbers or strings, both must resolve to the same value.
	WeaklyTypedInput bool
}

func DefaultOptions() Options {
	return Options{WeaklyTypedInput: true}
}

// Map decodes an event payload (map[string]any straight out of
// encoding/json) into a typed struct T. Struct fields are matched by
// their `json` tag.
func Map[T any](m map[string]any, opts ...Options) (*T, error) {
	if m == nil {
		return nil, fmt.Errorf("payload is nil")
	}

	cfg := DefaultOptions()
	if len(opts) > 0 {
		cfg = opts[0]
	}

	var out T
	decCfg := &mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: cfg.WeaklyTypedInput,
		DecodeHook:       floatToIntHook(),
	}
	dec, err := mapstructure.NewDecoder(decCfg)
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &out, nil
}

// floatToIntHook converts JSON numbers (always float64) into integer
// targets when the value is integral.
func floatToIntHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.Float64 {
			return data, nil
		}
		f := data.(float64)
		switch to.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if f == float64(int64(f)) {
				return int64(f), nil
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if f >= 0 && f == float64(uint64(f)) {
				return uint64(f), nil
			}
		default:
		}
		return data, nil
	}
}
