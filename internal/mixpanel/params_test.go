// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

package mixpanel

import (
	"errors"
	"reflect"
	"testing"

	"github.com/goccy/go-json"
)

func TestWireValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "general", "general"},
		{"empty string", "", ""},
		{"int", 31, "31"},
		{"int64", int64(1000), "1000"},
		{"negative int", -5, "-5"},
		{"uint", uint(7), "7"},
		{"float", 1.5, "1.5"},
		{"whole float", 2.0, "2"},
		{"bool", true, "true"},
		{"json number", json.Number("3.14"), "3.14"},
		{"string slice", []string{"Home", "About"}, `["Home", "About"]`},
		{"mixed slice", []any{"a", 1, true}, `["a", 1, true]`},
		{"nested slice", [][]int{{1, 2}, {3}}, `[[1, 2], [3]]`},
		{"empty slice", []string{}, `[]`},
		{"nil slice", []string(nil), `[]`},
		{"array", [2]int{4, 5}, `[4, 5]`},
		{"html is not escaped", []string{"<a&b>"}, `["<a&b>"]`},
		{"html in mixed slice", []any{"<x>", 1}, `["<x>", 1]`},
		{"html in nested slice", [][]string{{"a&b"}}, `[["a&b"]]`},
		{"nested nil slice", [][]string{nil, {"a"}}, `[[], ["a"]]`},
		{"nil slice in mixed slice", []any{[]int(nil), 1}, `[[], 1]`},
		{"non-ascii is kept", []string{"café"}, `["café"]`},
		{"quotes are escaped", []string{`say "hi"`}, `["say \"hi\""]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := wireValue(tt.value)
			if err != nil {
				t.Fatalf("wireValue(%v) error = %v", tt.value, err)
			}
			if got != tt.want {
				t.Errorf("wireValue(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestWireValue_Unsupported(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
	}{
		{"nil", nil},
		{"struct", struct{ A int }{1}},
		{"map", map[string]int{"a": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := wireValue(tt.value); err == nil {
				t.Errorf("wireValue(%T) expected error, got nil", tt.value)
			}
		})
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	t.Parallel()

	params := Params{
		"event":    []string{"Home", "About"},
		"interval": 31,
		"unit":     "day",
		"ratio":    0.25,
	}

	first, err := canonicalize(params)
	if err != nil {
		t.Fatalf("canonicalize() error = %v", err)
	}

	again := make(Params, len(first))
	for k, v := range first {
		again[k] = v
	}
	second, err := canonicalize(again)
	if err != nil {
		t.Fatalf("canonicalize() second pass error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("canonicalize is not idempotent: %v != %v", first, second)
	}
}

func TestCanonicalize_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	events := []string{"Home"}
	params := Params{"event": events, "interval": 31}

	if _, err := canonicalize(params); err != nil {
		t.Fatalf("canonicalize() error = %v", err)
	}

	if _, ok := params["event"].([]string); !ok {
		t.Errorf("params[event] type changed to %T", params["event"])
	}
	if params["interval"] != 31 {
		t.Errorf("params[interval] = %v, want 31", params["interval"])
	}
}

func TestCanonicalize_ParamError(t *testing.T) {
	t.Parallel()

	_, err := canonicalize(Params{"bad": map[string]int{}})
	if !errors.Is(err, ErrParam) {
		t.Fatalf("canonicalize() error = %v, want ErrParam", err)
	}

	var pe *ParamError
	if !errors.As(err, &pe) || pe.Key != "bad" {
		t.Errorf("ParamError.Key = %v, want bad", pe)
	}
}
