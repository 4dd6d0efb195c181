// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

package mixpanel

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// maxErrorBodySize limits how much of a body is kept for error reporting
const maxErrorBodySize = 4 * 1024

// Response is a parsed Mixpanel API response.
//
// Data is the untyped JSON tree: map[string]any, []any, string, json.Number,
// bool, or nil. No schema validation is performed.
type Response struct {
	Method     string
	StatusCode int
	Body       []byte
	Data       any
}

// parseResponse parses body as a single JSON document.
func parseResponse(method string, status int, body []byte) (*Response, error) {
	if !json.Valid(body) {
		return nil, &DecodeError{
			Method:     method,
			StatusCode: status,
			Body:       excerpt(body),
			Err:        fmt.Errorf("body is not a valid JSON document"),
		}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, &DecodeError{Method: method, StatusCode: status, Body: excerpt(body), Err: err}
	}

	return &Response{Method: method, StatusCode: status, Body: body, Data: data}, nil
}

// Decode unmarshals the raw body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &DecodeError{Method: r.Method, StatusCode: r.StatusCode, Body: excerpt(r.Body), Err: err}
	}
	return nil
}

// Err reports an application error carried by the response: a top-level
// "error" field, or an HTTP error status. It returns nil for a usable response.
// Issue never calls Err itself; checking is the caller's choice.
func (r *Response) Err() error {
	if obj, ok := r.Data.(map[string]any); ok {
		if msg, present := obj["error"]; present {
			return &APIError{Method: r.Method, StatusCode: r.StatusCode, Message: fmt.Sprint(msg)}
		}
	}
	if r.StatusCode >= http.StatusBadRequest {
		return &APIError{Method: r.Method, StatusCode: r.StatusCode, Message: http.StatusText(r.StatusCode)}
	}
	return nil
}

// CheckAPIError returns resp.Err(), treating a nil response as no error.
func CheckAPIError(resp *Response) error {
	if resp == nil {
		return nil
	}
	return resp.Err()
}

// excerpt returns at most maxErrorBodySize bytes of body for diagnostics.
func excerpt(body []byte) string {
	if len(body) <= maxErrorBodySize {
		return string(body)
	}
	return string(body[:maxErrorBodySize]) + "... (truncated)"
}
