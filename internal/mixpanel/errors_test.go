// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

package mixpanel

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestErrors_Classification(t *testing.T) {
	t.Parallel()

	sentinels := []error{ErrConfig, ErrParam, ErrTransport, ErrDecode, ErrAPI}

	tests := []struct {
		name string
		err  error
		want error
		text string
	}{
		{"config", &ConfigError{Field: "api_secret", Reason: "is required"}, ErrConfig, "api_secret is required"},
		{"param with key", &ParamError{Key: "event", Reason: "bad"}, ErrParam, `"event": bad`},
		{"param without key", &ParamError{Reason: "empty method"}, ErrParam, "invalid request: empty method"},
		{"transport", &TransportError{Method: "events", Err: io.ErrUnexpectedEOF}, ErrTransport, "events request failed"},
		{"decode", &DecodeError{Method: "events", StatusCode: 200, Body: "<html>", Err: errors.New("invalid")}, ErrDecode, "<html>"},
		{"api", &APIError{Method: "events", StatusCode: 400, Message: "Invalid API key"}, ErrAPI, "Invalid API key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wrapped := fmt.Errorf("report: %w", tt.err)
			for _, s := range sentinels {
				if got := errors.Is(wrapped, s); got != (s == tt.want) {
					t.Errorf("errors.Is(%v, %v) = %v", tt.err, s, got)
				}
			}
			if !strings.Contains(tt.err.Error(), tt.text) {
				t.Errorf("Error() = %q, want it to contain %q", tt.err.Error(), tt.text)
			}
		})
	}
}

func TestErrors_Unwrap(t *testing.T) {
	t.Parallel()

	te := &TransportError{Method: "events", Err: io.ErrUnexpectedEOF}
	if !errors.Is(te, io.ErrUnexpectedEOF) {
		t.Error("TransportError should unwrap to its cause")
	}

	de := &DecodeError{Method: "events", Err: io.EOF}
	if !errors.Is(de, io.EOF) {
		t.Error("DecodeError should unwrap to its cause")
	}

	pe := &ParamError{Key: "event", Reason: "unsupported value", Err: io.ErrUnexpectedEOF}
	if !errors.Is(pe, io.ErrUnexpectedEOF) || !errors.Is(pe, ErrParam) {
		t.Error("ParamError should unwrap to its cause and still match ErrParam")
	}
	if !strings.Contains(pe.Error(), io.ErrUnexpectedEOF.Error()) {
		t.Errorf("Error() = %q, want it to include the cause", pe.Error())
	}
}
