// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

package mixpanel

import (
	"context"

	mpmodels "github.com/tomtom215/mpexport/internal/models/mixpanel"
	"github.com/tomtom215/mpexport/internal/validation"
)

// Method paths of the data export endpoints.
var (
	MethodEventNames      = []string{"events", "names"}
	MethodEvents          = []string{"events"}
	MethodEventProperties = []string{"events", "properties"}
)

// EventNamesQuery selects the most common event names.
type EventNamesQuery struct {
	Type  string `param:"type" validate:"required,oneof=general unique average"`
	Limit int    `param:"limit" validate:"gte=0,lte=255"` // 0 uses the server default
}

// EventsQuery selects per-event counts over time.
type EventsQuery struct {
	Events   []string `param:"event" validate:"min=1,dive,notblank"`
	Type     string   `param:"type" validate:"required,oneof=general unique average"`
	Unit     string   `param:"unit" validate:"required,oneof=minute hour day week month"`
	Interval int      `param:"interval" validate:"gte=1,lte=3650"`
}

// PropertyQuery segments one event by the values of one property.
type PropertyQuery struct {
	Event    string `param:"event" validate:"notblank"`
	Name     string `param:"name" validate:"notblank"`
	Type     string `param:"type" validate:"required,oneof=general unique average"`
	Unit     string `param:"unit" validate:"required,oneof=minute hour day week month"`
	Interval int    `param:"interval" validate:"gte=1,lte=3650"`
	Limit    int    `param:"limit" validate:"gte=0,lte=10000"`
}

// DataExport provides typed access to the segmentation endpoints on top of
// any Requester, such as *Client or *CircuitBreakerClient.
type DataExport struct {
	r Requester
}

// NewDataExport creates a DataExport issuing requests through r.
func NewDataExport(r Requester) *DataExport {
	return &DataExport{r: r}
}

// EventNames returns event names ordered by volume.
func (d *DataExport) EventNames(ctx context.Context, q EventNamesQuery) ([]string, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	params := Params{"type": q.Type}
	if q.Limit > 0 {
		params["limit"] = q.Limit
	}

	resp, err := request(ctx, d.r, MethodEventNames, params)
	if err != nil {
		return nil, err
	}

	var names []string
	if err := resp.Decode(&names); err != nil {
		return nil, err
	}
	return names, nil
}

// Events returns the segmentation of the given events over time.
func (d *DataExport) Events(ctx context.Context, q EventsQuery) (*mpmodels.Segmentation, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	return d.segmentation(ctx, MethodEvents, Params{
		"event":    q.Events,
		"type":     q.Type,
		"unit":     q.Unit,
		"interval": q.Interval,
	})
}

// EventProperties returns the segmentation of one event by a property.
func (d *DataExport) EventProperties(ctx context.Context, q PropertyQuery) (*mpmodels.Segmentation, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	params := Params{
		"event":    q.Event,
		"name":     q.Name,
		"type":     q.Type,
		"unit":     q.Unit,
		"interval": q.Interval,
	}
	if q.Limit > 0 {
		params["limit"] = q.Limit
	}
	return d.segmentation(ctx, MethodEventProperties, params)
}

func (d *DataExport) segmentation(ctx context.Context, method []string, params Params) (*mpmodels.Segmentation, error) {
	resp, err := request(ctx, d.r, method, params)
	if err != nil {
		return nil, err
	}

	var seg mpmodels.Segmentation
	if err := resp.Decode(&seg); err != nil {
		return nil, err
	}
	return &seg, nil
}

// validateQuery converts struct validation failures into a *ParamError.
func validateQuery(q interface{}) error {
	if err := validation.ValidateStruct(q); err != nil {
		return &ParamError{Reason: "invalid query", Err: err}
	}
	return nil
}
