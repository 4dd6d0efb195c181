// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

// Package mixpanel provides data models for Mixpanel data export API responses.
//
// Segmentation:
//   - Segmentation: time series returned by events and events/properties
//   - SegmentationData: date labels plus per-series values keyed by date
//
// Chart-ready views:
//   - Table: ordered x labels and series, as consumed by chart renderers
//   - Series: one named line of data points aligned to the table's x labels
package mixpanel
