// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

type testQuery struct {
	Events   []string `param:"event" validate:"required,min=1,dive,notblank"`
	Unit     string   `param:"unit" validate:"oneof=minute hour day week month"`
	Interval int      `param:"interval" validate:"min=1,max=3650"`
	Limit    int      `param:"limit" validate:"omitempty,lte=10000"`
	Name     string   `validate:"omitempty,max=8"`
}

func TestValidateStruct_Valid(t *testing.T) {
	t.Parallel()

	q := testQuery{Events: []string{"Home", "About"}, Unit: "day", Interval: 31}
	if err := ValidateStruct(&q); err != nil {
		t.Errorf("ValidateStruct() unexpected error = %v", err)
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     testQuery
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing events",
			input:     testQuery{Unit: "day", Interval: 1},
			wantField: "event",
			wantMsg:   "event is required",
		},
		{
			name:      "blank event name",
			input:     testQuery{Events: []string{"Home", "  "}, Unit: "day", Interval: 1},
			wantField: "event[1]",
			wantMsg:   "must not be blank",
		},
		{
			name:      "bad unit",
			input:     testQuery{Events: []string{"Home"}, Unit: "year", Interval: 1},
			wantField: "unit",
			wantMsg:   "unit must be one of: minute hour day week month",
		},
		{
			name:      "interval too small",
			input:     testQuery{Events: []string{"Home"}, Unit: "day", Interval: 0},
			wantField: "interval",
			wantMsg:   "interval must be at least 1",
		},
		{
			name:      "interval too large",
			input:     testQuery{Events: []string{"Home"}, Unit: "day", Interval: 4000},
			wantField: "interval",
			wantMsg:   "interval must be at most 3650",
		},
		{
			name:      "limit too large",
			input:     testQuery{Events: []string{"Home"}, Unit: "day", Interval: 1, Limit: 20000},
			wantField: "limit",
			wantMsg:   "limit must be less than or equal to 10000",
		},
		{
			name:      "field without param tag uses Go name",
			input:     testQuery{Events: []string{"Home"}, Unit: "day", Interval: 1, Name: "much-too-long"},
			wantField: "Name",
			wantMsg:   "Name must be at most 8 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateStruct(&tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() expected error")
			}

			var verr *RequestValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T, want *RequestValidationError", err)
			}
			if len(verr.Errors()) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(verr.Errors()), err)
			}

			fe := verr.Errors()[0]
			if fe.Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", fe.Field(), tt.wantField)
			}
			if !strings.Contains(fe.Error(), tt.wantMsg) {
				t.Errorf("Error() = %q, want containing %q", fe.Error(), tt.wantMsg)
			}
		})
	}
}

func TestRequestValidationError_MultipleErrors(t *testing.T) {
	t.Parallel()

	err := ValidateStruct(&testQuery{Unit: "year"})
	if err == nil {
		t.Fatal("ValidateStruct() expected error")
	}

	msg := err.Error()
	for _, want := range []string{"event is required", "unit must be one of", "interval must be at least 1"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, want containing %q", msg, want)
		}
	}
	if strings.Count(msg, "; ") != 2 {
		t.Errorf("expected three messages joined by '; ', got %q", msg)
	}
}

func TestRequestValidationError_Empty(t *testing.T) {
	t.Parallel()

	var ve RequestValidationError
	if ve.Error() != "validation failed" {
		t.Errorf("Error() = %q, want 'validation failed'", ve.Error())
	}
}
