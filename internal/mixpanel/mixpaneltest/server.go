// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

// Package mixpaneltest provides an in-process fake of the Mixpanel data export
// API for tests.
//
// The fake verifies request signatures independently of the client code, so a
// signing regression shows up as an authentication failure rather than
// passing silently.
package mixpaneltest

import (
	"crypto/md5" //nolint:gosec // MD5 is mandated by the Mixpanel signing scheme
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
)

// DefaultVersion is the API version path segment served by NewServer.
const DefaultVersion = "2.0"

// Values maps a series name to its date label -> value points.
type Values map[string]map[string]float64

// RecordedRequest is one request accepted or rejected by the fake.
type RecordedRequest struct {
	Path     string // Method path without version, e.g. "events/names"
	RawQuery string
	Query    url.Values
}

// Server is a fake Mixpanel API backed by httptest.Server.
type Server struct {
	*httptest.Server

	APIKey  string
	Secret  string
	Version string

	mu         sync.Mutex
	clock      func() time.Time
	names      []string
	series     []string
	events     Values
	properties map[string]Values // "event\x00name" -> values
	raw        map[string]rawResponse
	requests   []RecordedRequest
}

type rawResponse struct {
	status int
	body   string
}

// NewServer starts a fake accepting requests signed with apiKey and secret.
// Callers must Close it.
func NewServer(apiKey, secret string) *Server {
	s := &Server{
		APIKey:     apiKey,
		Secret:     secret,
		Version:    DefaultVersion,
		clock:      time.Now,
		events:     Values{},
		properties: map[string]Values{},
		raw:        map[string]rawResponse{},
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(s.record)
	r.Use(s.authenticate)
	r.Route("/api", func(r chi.Router) {
		r.Get("/{version}/*", s.dispatch)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "unknown method")
	})

	s.Server = httptest.NewServer(r)
	return s
}

// Endpoint returns the base URL to configure a client with.
func (s *Server) Endpoint() string {
	return s.URL + "/api"
}

// SetClock overrides the clock used for expiry checks.
func (s *Server) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

// SetEventNames sets the events/names response, most common first.
func (s *Server) SetEventNames(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append([]string(nil), names...)
}

// SetEvents sets the date labels and per-event values served by events.
func (s *Server) SetEvents(series []string, values Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series = append([]string(nil), series...)
	s.events = values
}

// SetProperty sets the events/properties values for one event and property.
// The date labels are those given to SetEvents.
func (s *Server) SetProperty(event, name string, values Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties[event+"\x00"+name] = values
}

// SetRaw serves body with status for the method path, taking precedence over
// the built-in handlers. The body is written as is, valid JSON or not.
func (s *Server) SetRaw(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[strings.Trim(path, "/")] = rawResponse{status: status, body: body}
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// record stores the request before authentication so rejected requests are visible too.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/")
		if i := strings.IndexByte(path, '/'); i >= 0 {
			path = path[i+1:]
		}
		path = strings.Trim(path, "/")

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{Path: path, RawQuery: r.URL.RawQuery, Query: r.URL.Query()})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// authenticate checks api_key, expire, and sig the way Mixpanel does.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if q.Get("api_key") != s.APIKey {
			writeError(w, http.StatusBadRequest, "Invalid API key")
			return
		}

		expire, err := strconv.ParseInt(q.Get("expire"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Missing or invalid expire parameter")
			return
		}
		s.mu.Lock()
		now := s.clock()
		s.mu.Unlock()
		if now.Unix() > expire {
			writeError(w, http.StatusBadRequest, "Request has expired")
			return
		}

		if got, want := q.Get("sig"), Signature(q, s.Secret); got != want {
			writeError(w, http.StatusBadRequest, "Invalid signature")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "version") != s.Version {
		writeError(w, http.StatusNotFound, "unknown API version")
		return
	}
	path := strings.Trim(chi.URLParam(r, "*"), "/")
	q := r.URL.Query()

	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, ok := s.raw[path]; ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(raw.status)
		_, _ = w.Write([]byte(raw.body))
		return
	}

	switch path {
	case "events/names":
		names := s.names
		if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit >= 0 && limit < len(names) {
			names = names[:limit]
		}
		writeJSON(w, http.StatusOK, names)

	case "events":
		var requested []string
		if err := json.Unmarshal([]byte(q.Get("event")), &requested); err != nil {
			writeError(w, http.StatusBadRequest, "event must be a JSON list")
			return
		}
		values := Values{}
		for _, event := range requested {
			if v, ok := s.events[event]; ok {
				values[event] = v
			}
		}
		writeJSON(w, http.StatusOK, segmentation(s.series, values))

	case "events/properties":
		values, ok := s.properties[q.Get("event")+"\x00"+q.Get("name")]
		if !ok {
			values = Values{}
		}
		writeJSON(w, http.StatusOK, segmentation(s.series, values))

	default:
		writeError(w, http.StatusNotFound, "unknown method")
	}
}

// Signature recomputes the expected sig for a received query.
func Signature(q url.Values, secret string) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		if k != "sig" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	h := md5.New() //nolint:gosec // see import
	for _, k := range keys {
		h.Write([]byte(k + "=" + q.Get(k)))
	}
	h.Write([]byte(secret))
	return hex.EncodeToString(h.Sum(nil))
}

func segmentation(series []string, values Values) map[string]any {
	if series == nil {
		series = []string{}
	}
	return map[string]any{
		"data": map[string]any{
			"series": series,
			"values": values,
		},
		"legend_size": len(values),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
