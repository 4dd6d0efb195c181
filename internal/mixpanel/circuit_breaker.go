// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

package mixpanel

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/mpexport/internal/logging"
	"github.com/tomtom215/mpexport/internal/metrics"
)

// BreakerSettings tunes a CircuitBreakerClient.
type BreakerSettings struct {
	Name         string
	MaxRequests  uint32        // Probes allowed while half-open
	Interval     time.Duration // Count reset period while closed
	Timeout      time.Duration // Open period before probing
	MinRequests  uint32        // Requests needed before the failure ratio is considered
	FailureRatio float64
}

// DefaultBreakerSettings returns the settings used by NewCircuitBreakerClient.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:         "mixpanel-api",
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      2 * time.Minute,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// CircuitBreakerClient wraps a Requester with a circuit breaker.
//
// Only transport failures count against the breaker. A response that is not
// JSON or that reports an application error means Mixpanel is reachable, so
// it is returned to the caller without tripping the circuit. Requests are never
// retried.
type CircuitBreakerClient struct {
	next Requester
	cb   *gobreaker.CircuitBreaker[*Response]
	name string
}

// NewCircuitBreakerClient wraps next using DefaultBreakerSettings.
func NewCircuitBreakerClient(next Requester) *CircuitBreakerClient {
	return NewCircuitBreakerClientWithSettings(next, DefaultBreakerSettings())
}

// NewCircuitBreakerClientWithSettings wraps next using s.
func NewCircuitBreakerClientWithSettings(next Requester, s BreakerSettings) *CircuitBreakerClient {
	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= s.FailureRatio

			if shouldTrip {
				logging.Warn().Str("breaker", s.Name).Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrTransport)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &CircuitBreakerClient{next: next, cb: cb, name: s.Name}
}

// Issue forwards to the wrapped Requester unless the circuit is open.
// A rejected call returns a *TransportError wrapping gobreaker.ErrOpenState or
// gobreaker.ErrTooManyRequests.
func (cbc *CircuitBreakerClient) Issue(ctx context.Context, method []string, params Params, format string) (*Response, error) {
	resp, err := cbc.cb.Execute(func() (*Response, error) {
		return cbc.next.Issue(ctx, method, params, format)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Ctx(ctx).Warn().Err(err).Str("breaker", cbc.name).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, &TransportError{Method: joinMethod(method), Err: err}
		}

		result := "success"
		if errors.Is(err, ErrTransport) {
			result = "failure"
		}
		metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, result).Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(cbc.cb.Counts().ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)
	return resp, nil
}

// Request issues a JSON request through the breaker and converts an
// application error into an *APIError.
func (cbc *CircuitBreakerClient) Request(ctx context.Context, method []string, params Params) (*Response, error) {
	return request(ctx, cbc, method, params)
}

// State returns the current breaker state.
func (cbc *CircuitBreakerClient) State() gobreaker.State {
	return cbc.cb.State()
}

// joinMethod formats a method path for errors, tolerating invalid segments.
func joinMethod(method []string) string {
	if path, err := methodPath(method); err == nil {
		return path
	}
	return fmt.Sprintf("%q", method)
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging and metrics
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
