// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

package mixpanel

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification with errors.Is.
var (
	ErrConfig    = errors.New("mixpanel: configuration error")
	ErrParam     = errors.New("mixpanel: invalid request")
	ErrTransport = errors.New("mixpanel: transport error")
	ErrDecode    = errors.New("mixpanel: decode error")
	ErrAPI       = errors.New("mixpanel: api error")
)

// ConfigError reports missing or invalid client configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("mixpanel: invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// ParamError reports a method path or parameter that cannot be sent.
// Err, when set, is the underlying cause and is reachable with errors.As.
type ParamError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ParamError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	if e.Key == "" {
		return "mixpanel: invalid request: " + msg
	}
	return fmt.Sprintf("mixpanel: invalid parameter %q: %s", e.Key, msg)
}

func (e *ParamError) Unwrap() error { return e.Err }

func (e *ParamError) Is(target error) bool { return target == ErrParam }

// TransportError wraps a failure to complete the HTTP round trip: DNS,
// connection, timeout, cancellation, or a body that could not be read.
// Transport errors are never retried by the client.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mixpanel: %s request failed: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// DecodeError reports a response body that is not valid JSON.
type DecodeError struct {
	Method     string
	StatusCode int
	Body       string // Truncated excerpt for diagnostics
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("mixpanel: failed to decode %s response (status %d): %v: %s", e.Method, e.StatusCode, e.Err, e.Body)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// APIError is a logical failure reported by Mixpanel inside a well-formed JSON body.
type APIError struct {
	Method     string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mixpanel: %s request failed with status %d: %s", e.Method, e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool { return target == ErrAPI }
