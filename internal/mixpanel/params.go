// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

package mixpanel

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"

	"github.com/goccy/go-json"
)

// Reserved parameter names managed by the client.
const (
	KeyAPIKey    = "api_key"
	KeyExpire    = "expire"
	KeyFormat    = "format"
	KeySignature = "sig"
)

// Params holds request parameters keyed by name.
//
// Values may be strings, integers, floats, booleans, or slices. Slices are
// sent as JSON text, e.g. []string{"Home", "About"} becomes ["Home", "About"].
type Params map[string]any

// canonicalize converts every value to its wire text, returning a new map.
// A value that is already text is passed through unchanged, so applying the
// conversion to its own output is a no-op.
func canonicalize(p Params) (map[string]string, error) {
	out := make(map[string]string, len(p))
	for key, value := range p {
		text, err := wireValue(value)
		if err != nil {
			return nil, &ParamError{Key: key, Reason: "unsupported value", Err: err}
		}
		out[key] = text
	}
	return out, nil
}

// wireValue formats a single parameter value as it appears in the query string
// and in the signature base string.
func wireValue(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case nil:
		return "", fmt.Errorf("nil values are not supported")
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Slice, reflect.Array:
		b, err := encodeSequence(rv)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// encodeSequence renders a slice as JSON text with ", " between elements and
// no HTML escaping, matching the layout Mixpanel's reference clients send.
// Nested slices use the same layout; a nil slice at any depth is [].
func encodeSequence(rv reflect.Value) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			buf.WriteString(", ")
		}

		elem := rv.Index(i)
		for elem.Kind() == reflect.Interface && !elem.IsNil() {
			elem = elem.Elem()
		}

		if elem.Kind() == reflect.Slice || elem.Kind() == reflect.Array {
			nested, err := encodeSequence(elem)
			if err != nil {
				return nil, err
			}
			buf.Write(nested)
			continue
		}

		b, err := encodeElement(elem.Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// encodeElement marshals a single sequence element without HTML escaping.
func encodeElement(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
