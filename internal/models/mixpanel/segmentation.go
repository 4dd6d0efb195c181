// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

package mixpanel

import "sort"

// UndefinedValue is the bucket Mixpanel uses for events that lack the segmented property.
const UndefinedValue = "undefined"

// Segmentation represents the API response from the events and events/properties endpoints
type Segmentation struct {
	Data       SegmentationData `json:"data"`
	LegendSize int              `json:"legend_size"`
}

type SegmentationData struct {
	Series []string                      `json:"series"` // Date labels, e.g. "2024-01-31"
	Values map[string]map[string]float64 `json:"values"` // Series name -> date label -> value
}

// Table is an ordered, chart-ready view of a Segmentation.
type Table struct {
	Title   string   `json:"title"`
	XLabels []string `json:"x_labels"`
	Series  []Series `json:"series"`
}

// Series is one named line of a Table. Points are ordered by ascending date label.
type Series struct {
	Name   string    `json:"name"`
	Points []float64 `json:"points"`
}

// EventsTable builds a table whose series follow the given event order.
// Events with no values in the response are skipped.
func (s *Segmentation) EventsTable(title string, events []string) Table {
	t := Table{Title: title, XLabels: s.sortedLabels()}
	for _, event := range events {
		byDate, ok := s.Data.Values[event]
		if !ok {
			continue
		}
		t.Series = append(t.Series, Series{Name: event, Points: pointsByDate(byDate)})
	}
	return t
}

// PropertyTable builds a table with one series per property value, sorted by
// value, omitting the undefined bucket.
func (s *Segmentation) PropertyTable(title string) Table {
	t := Table{Title: title, XLabels: s.sortedLabels()}

	names := make([]string, 0, len(s.Data.Values))
	for name := range s.Data.Values {
		if name != UndefinedValue {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		t.Series = append(t.Series, Series{Name: name, Points: pointsByDate(s.Data.Values[name])})
	}
	return t
}

func (s *Segmentation) sortedLabels() []string {
	labels := make([]string, len(s.Data.Series))
	copy(labels, s.Data.Series)
	sort.Strings(labels)
	return labels
}

// pointsByDate returns the values ordered by their date keys.
func pointsByDate(byDate map[string]float64) []float64 {
	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	points := make([]float64, len(dates))
	for i, date := range dates {
		points[i] = byDate[date]
	}
	return points
}
