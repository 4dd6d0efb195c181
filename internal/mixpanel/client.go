// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

/*
client.go - Signed Mixpanel Data Export API Client

Every request carries the public api_key, an expire timestamp ten minutes after
signing, the response format, and an MD5 signature over the sorted parameters
keyed with the shared secret. Mixpanel recomputes the signature from the query
string it receives and rejects mismatches.

Request layout:

	GET {endpoint}/{version}/{segment-1}/.../{segment-n}/?{sorted, form-encoded params}

Failure handling:
  - Transport failures surface as *TransportError and are not retried
  - Bodies that are not JSON surface as *DecodeError
  - Application errors are left in the Response; call Response.Err or Request

Related Files:
  - params.go: parameter canonicalization
  - signature.go: signature computation
  - endpoints.go: typed data export endpoints
  - circuit_breaker.go: gobreaker wrapper
*/
package mixpanel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/mpexport/internal/config"
	"github.com/tomtom215/mpexport/internal/logging"
	"github.com/tomtom215/mpexport/internal/metrics"
)

const (
	// ExpireWindow is how long a signed request stays valid.
	ExpireWindow = 600 * time.Second

	// DefaultFormat is the response format requested when none is given.
	DefaultFormat = "json"
)

// Requester issues signed requests. It is implemented by Client and
// CircuitBreakerClient.
type Requester interface {
	Issue(ctx context.Context, method []string, params Params, format string) (*Response, error)
}

// Client handles communication with the Mixpanel data export API.
//
// The credential pair and endpoint are fixed at construction. Issue copies the
// caller's parameters, so a Client is safe for concurrent use.
type Client struct {
	apiKey    string
	apiSecret string
	baseURL   string
	version   string
	client    *http.Client
	limiter   *rate.Limiter    // nil when rate limiting is disabled
	now       func() time.Time // Signing clock
	logger    zerolog.Logger
}

// New creates a Mixpanel client from cfg.
//
// Returns a *ConfigError if either credential is missing, the endpoint is not
// an absolute http(s) URL, the version is empty, or the timeout is not positive.
func New(cfg *config.MixpanelConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigError{Field: "api_key", Reason: "is required"}
	}
	if cfg.APISecret == "" {
		return nil, &ConfigError{Field: "api_secret", Reason: "is required"}
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &ConfigError{Field: "endpoint", Reason: fmt.Sprintf("must be an absolute http or https URL, got %q", cfg.Endpoint)}
	}
	if cfg.Version == "" {
		return nil, &ConfigError{Field: "version", Reason: "is required"}
	}
	if cfg.Timeout <= 0 {
		return nil, &ConfigError{Field: "timeout", Reason: "must be positive"}
	}

	c := &Client{
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		baseURL:   strings.TrimRight(cfg.Endpoint, "/"),
		version:   cfg.Version,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		now:    time.Now,
		logger: logging.WithComponent("mixpanel"),
	}

	if cfg.RateLimitPerHour > 0 {
		burst := cfg.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Hour/time.Duration(cfg.RateLimitPerHour)), burst)
	}

	return c, nil
}

// Sign computes the signature of params with the client's secret.
func (c *Client) Sign(params Params) (string, error) {
	return Sign(params, c.apiSecret)
}

// SignWith computes the signature of params with an explicit secret.
// An empty secret is rejected rather than producing an unkeyed digest.
func (c *Client) SignWith(params Params, secret string) (string, error) {
	return Sign(params, secret)
}

// Issue sends a signed GET request for the method path and parses the JSON body.
//
// An empty format requests DefaultFormat. params is never modified; any "sig"
// it contains is discarded and recomputed. The returned Response may carry an
// application error; see Response.Err.
func (c *Client) Issue(ctx context.Context, method []string, params Params, format string) (*Response, error) {
	path, err := methodPath(method)
	if err != nil {
		return nil, err
	}

	log := c.log(ctx)

	if c.limiter != nil {
		if c.limiter.Tokens() < 1 {
			metrics.RateLimitWaits.Inc()
			log.Debug().Str("method", path).Msg("Waiting for rate limiter")
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Method: path, Err: err}
		}
	}

	wire, err := c.signedParams(params, format)
	if err != nil {
		return nil, err
	}
	reqURL := c.requestURL(method, wire)

	if e := log.Trace(); e.Enabled() {
		fields := zerolog.Dict()
		for k, v := range wire {
			fields.Str(k, logging.SanitizeValue(k, v))
		}
		e.Str("method", path).Dict("params", fields).Msg("Signed request")
	}

	start := time.Now()
	status, body, err := c.get(ctx, reqURL)
	duration := time.Since(start)
	if err != nil {
		metrics.RecordAPIRequest(path, metrics.OutcomeTransport, duration)
		log.Warn().Err(err).Str("method", path).Dur("duration", duration).Msg("Mixpanel request failed")
		return nil, &TransportError{Method: path, Err: err}
	}

	resp, err := parseResponse(path, status, body)
	if err != nil {
		metrics.RecordAPIRequest(path, metrics.OutcomeDecode, duration)
		return nil, err
	}

	outcome := metrics.OutcomeSuccess
	if resp.Err() != nil {
		outcome = metrics.OutcomeAPIError
	}
	metrics.RecordAPIRequest(path, outcome, duration)

	log.Debug().
		Str("method", path).
		Str("api_key", logging.SanitizeToken(c.apiKey)).
		Int("status", status).
		Int("bytes", len(body)).
		Dur("duration", duration).
		Msg("Mixpanel request complete")

	return resp, nil
}

// log returns the client logger with the context's correlation ID attached.
func (c *Client) log(ctx context.Context) *zerolog.Logger {
	l := c.logger
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		l = l.With().Str("correlation_id", id).Logger()
	}
	return &l
}

// Request issues a JSON request and converts an application error in the
// response into an *APIError.
func (c *Client) Request(ctx context.Context, method []string, params Params) (*Response, error) {
	return request(ctx, c, method, params)
}

// request runs Issue on r and applies the application error check.
func request(ctx context.Context, r Requester, method []string, params Params) (*Response, error) {
	resp, err := r.Issue(ctx, method, params, DefaultFormat)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp, nil
}

// signedParams returns the canonical wire mapping with reserved keys set and a
// fresh signature. The expiry is taken from the clock at this point, not when
// the caller built params.
func (c *Client) signedParams(params Params, format string) (map[string]string, error) {
	if format == "" {
		format = DefaultFormat
	}

	wire, err := canonicalize(params)
	if err != nil {
		return nil, err
	}

	wire[KeyAPIKey] = c.apiKey
	wire[KeyExpire] = strconv.FormatInt(c.now().Add(ExpireWindow).Unix(), 10)
	wire[KeyFormat] = format
	delete(wire, KeySignature)

	wire[KeySignature] = signWire(wire, c.apiSecret)
	return wire, nil
}

// requestURL builds {base}/{version}/{segments...}/?{query}.
func (c *Client) requestURL(method []string, wire map[string]string) string {
	values := make(url.Values, len(wire))
	for k, v := range wire {
		values.Set(k, v)
	}

	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteByte('/')
	b.WriteString(url.PathEscape(c.version))
	for _, segment := range method {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(segment))
	}
	b.WriteString("/?")
	b.WriteString(values.Encode()) // Encode sorts by key
	return b.String()
}

// get performs the GET and reads the full body.
func (c *Client) get(ctx context.Context, reqURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

// methodPath validates the method segments and returns them joined by "/".
func methodPath(method []string) (string, error) {
	if len(method) == 0 {
		return "", &ParamError{Reason: "method path must have at least one segment"}
	}
	for i, segment := range method {
		if segment == "" {
			return "", &ParamError{Reason: fmt.Sprintf("method path segment %d is empty", i)}
		}
	}
	return strings.Join(method, "/"), nil
}

// SplitMethod splits a "events/properties" style path into segments.
// Leading and trailing slashes are ignored.
func SplitMethod(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
