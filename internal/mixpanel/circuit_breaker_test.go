// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

package mixpanel

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/mpexport/internal/metrics"
)

// stubRequester returns a fixed result and counts calls.
type stubRequester struct {
	resp  *Response
	err   error
	calls atomic.Int32
}

func (s *stubRequester) Issue(ctx context.Context, method []string, params Params, format string) (*Response, error) {
	s.calls.Add(1)
	return s.resp, s.err
}

func testBreakerSettings(name string) BreakerSettings {
	return BreakerSettings{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Hour,
		MinRequests:  2,
		FailureRatio: 0.5,
	}
}

func TestCircuitBreaker_OpensOnTransportErrors(t *testing.T) {
	t.Parallel()

	name := "test-transport-trip"
	stub := &stubRequester{err: &TransportError{Method: "events", Err: io.ErrUnexpectedEOF}}
	cbc := NewCircuitBreakerClientWithSettings(stub, testBreakerSettings(name))

	for i := 0; i < 2; i++ {
		if _, err := cbc.Issue(context.Background(), MethodEvents, Params{}, ""); !errors.Is(err, ErrTransport) {
			t.Fatalf("Issue() #%d error = %v, want ErrTransport", i, err)
		}
	}

	if cbc.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", cbc.State())
	}

	_, err := cbc.Issue(context.Background(), MethodEvents, Params{}, "")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Issue() on open circuit error = %v, want gobreaker.ErrOpenState", err)
	}
	if !errors.Is(err, ErrTransport) {
		t.Errorf("Issue() on open circuit error = %v, want ErrTransport", err)
	}
	if n := stub.calls.Load(); n != 2 {
		t.Errorf("wrapped requester called %d times, want 2", n)
	}

	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues(name)); got != 2 {
		t.Errorf("CircuitBreakerState = %v, want 2 (open)", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues(name, "rejected")); got != 1 {
		t.Errorf("rejected requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerTransitions.WithLabelValues(name, "closed", "open")); got != 1 {
		t.Errorf("closed->open transitions = %v, want 1", got)
	}
}

func TestCircuitBreaker_IgnoresNonTransportErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{"decode", &DecodeError{Method: "events", StatusCode: 200, Err: io.EOF}},
		{"param", &ParamError{Reason: "bad"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			stub := &stubRequester{err: tt.err}
			cbc := NewCircuitBreakerClientWithSettings(stub, testBreakerSettings("test-ignore-"+tt.name))

			for i := 0; i < 5; i++ {
				if _, err := cbc.Issue(context.Background(), MethodEvents, Params{}, ""); !errors.Is(err, tt.err) {
					t.Fatalf("Issue() error = %v, want %v", err, tt.err)
				}
			}
			if cbc.State() != gobreaker.StateClosed {
				t.Errorf("State() = %v, want closed", cbc.State())
			}
			if n := stub.calls.Load(); n != 5 {
				t.Errorf("wrapped requester called %d times, want 5", n)
			}
		})
	}
}

func TestCircuitBreaker_ApplicationErrorPassesThrough(t *testing.T) {
	t.Parallel()

	resp, err := parseResponse("events", http.StatusOK, []byte(`{"error": "bad request"}`))
	if err != nil {
		t.Fatalf("parseResponse() error = %v", err)
	}
	stub := &stubRequester{resp: resp}
	cbc := NewCircuitBreakerClientWithSettings(stub, testBreakerSettings("test-app-error"))

	got, err := cbc.Issue(context.Background(), MethodEvents, Params{}, "")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if got != resp {
		t.Error("Issue() did not return the wrapped response")
	}

	if _, err := cbc.Request(context.Background(), MethodEvents, Params{}); !errors.Is(err, ErrAPI) {
		t.Errorf("Request() error = %v, want ErrAPI", err)
	}
	if cbc.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", cbc.State())
	}
}

func TestCircuitBreaker_WrapsClient(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t)
	srv.SetEventNames("Home")
	cbc := NewCircuitBreakerClient(newTestClient(t, srv))

	resp, err := cbc.Request(context.Background(), MethodEventNames, Params{"type": "general"})
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if names, ok := resp.Data.([]any); !ok || len(names) != 1 {
		t.Errorf("Data = %#v, want [Home]", resp.Data)
	}
}

func TestStateToString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state gobreaker.State
		str   string
		num   float64
	}{
		{gobreaker.StateClosed, "closed", 0},
		{gobreaker.StateHalfOpen, "half-open", 1},
		{gobreaker.StateOpen, "open", 2},
	}

	for _, tt := range tests {
		if got := stateToString(tt.state); got != tt.str {
			t.Errorf("stateToString(%v) = %q, want %q", tt.state, got, tt.str)
		}
		if got := stateToFloat(tt.state); got != tt.num {
			t.Errorf("stateToFloat(%v) = %v, want %v", tt.state, got, tt.num)
		}
	}
}
