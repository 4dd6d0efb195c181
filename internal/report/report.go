// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

// Package report fetches the event and property segmentation series
// configured for an export and assembles them into chart-ready tables.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/mpexport/internal/config"
	"github.com/tomtom215/mpexport/internal/logging"
	"github.com/tomtom215/mpexport/internal/mixpanel"
	mpmodels "github.com/tomtom215/mpexport/internal/models/mixpanel"
)

// namesType is the event type used to list event names.
const namesType = "general"

// Report is the result of one export run.
type Report struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Events      mpmodels.Table  `json:"events"`
	Properties  []PropertyTable `json:"properties"`
}

// PropertyTable is the breakdown of one event by one property.
type PropertyTable struct {
	Event    string         `json:"event"`
	Property string         `json:"property"`
	Table    mpmodels.Table `json:"table"`
}

// Runner executes export runs against a Requester.
type Runner struct {
	export *mixpanel.DataExport
	cfg    config.ReportConfig
	now    func() time.Time
}

// NewRunner creates a Runner issuing requests through r.
func NewRunner(r mixpanel.Requester, cfg config.ReportConfig) *Runner {
	return &Runner{
		export: mixpanel.NewDataExport(r),
		cfg:    cfg,
		now:    time.Now,
	}
}

// Run fetches event names, the segmentation of those events, and every
// configured property breakdown. The first failure aborts the run.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	log := logging.Ctx(ctx)
	start := r.now()

	names, err := r.export.EventNames(ctx, mixpanel.EventNamesQuery{Type: namesType})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event names: %w", err)
	}
	log.Info().Int("events", len(names)).Msg("Fetched event names")

	rep := &Report{
		GeneratedAt: start.UTC(),
		Events:      mpmodels.Table{Title: "Events"},
		Properties:  []PropertyTable{},
	}

	if len(names) > 0 {
		seg, err := r.export.Events(ctx, mixpanel.EventsQuery{
			Events:   names,
			Type:     r.cfg.Type,
			Unit:     r.cfg.Unit,
			Interval: r.cfg.Interval,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch event segmentation: %w", err)
		}
		rep.Events = seg.EventsTable("Events", names)
	}

	for _, b := range sortedBreakdowns(r.cfg.Properties) {
		for _, name := range b.Names {
			seg, err := r.export.EventProperties(ctx, mixpanel.PropertyQuery{
				Event:    b.Event,
				Name:     name,
				Type:     r.cfg.Type,
				Unit:     r.cfg.Unit,
				Interval: r.cfg.Interval,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to fetch %q by %q: %w", b.Event, name, err)
			}

			rep.Properties = append(rep.Properties, PropertyTable{
				Event:    b.Event,
				Property: name,
				Table:    seg.PropertyTable(b.Event + ": " + name),
			})
			log.Debug().Str("event", b.Event).Str("property", name).Msg("Fetched property breakdown")
		}
	}

	log.Info().
		Int("series", len(rep.Events.Series)).
		Int("breakdowns", len(rep.Properties)).
		Dur("duration", r.now().Sub(start)).
		Msg("Report complete")

	return rep, nil
}

// sortedBreakdowns returns a copy of b ordered by event name.
func sortedBreakdowns(b []config.PropertyBreakdown) []config.PropertyBreakdown {
	out := append([]config.PropertyBreakdown(nil), b...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Event < out[j].Event
	})
	return out
}
