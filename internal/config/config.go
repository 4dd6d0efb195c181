// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

// Package config loads mpexport configuration from defaults, an optional YAML
// file, and environment variables (highest priority), using Koanf v2.
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load configuration")
//	}
//	client, err := mixpanel.New(&cfg.Mixpanel)
package config

import "time"

// Config holds all application configuration.
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Mixpanel MixpanelConfig `koanf:"mixpanel"`
	Report   ReportConfig   `koanf:"report"`
	Logging  LoggingConfig  `koanf:"logging"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// MixpanelConfig holds the data export API credentials and endpoint settings.
//
// Environment Variables:
//   - MP_API_KEY: public API key (required)
//   - MP_API_SECRET: shared API secret used to sign requests (required)
//   - MP_ENDPOINT: API base URL (default: http://mixpanel.com/api)
//   - MP_API_VERSION: API version path segment (default: 2.0)
//   - MP_TIMEOUT: per-request timeout (default: 30s, max 10m)
//   - MP_RATE_LIMIT_PER_HOUR: outbound request budget, 0 disables (default: 0)
//   - MP_RATE_LIMIT_BURST: burst size for the outbound limiter (default: 5)
type MixpanelConfig struct {
	APIKey           string        `koanf:"api_key"`
	APISecret        string        `koanf:"api_secret"`
	Endpoint         string        `koanf:"endpoint"`
	Version          string        `koanf:"version"`
	Timeout          time.Duration `koanf:"timeout"`
	RateLimitPerHour int           `koanf:"rate_limit_per_hour"`
	RateLimitBurst   int           `koanf:"rate_limit_burst"`
}

// ReportConfig controls which series the report command fetches.
//
// Environment Variables:
//   - REPORT_TYPE: general, unique, or average (default: general)
//   - REPORT_UNIT: minute, hour, day, week, or month (default: day)
//   - REPORT_INTERVAL: number of units to fetch (default: 31)
//
// Properties can only be set from the config file.
type ReportConfig struct {
	Type       string              `koanf:"type"`
	Unit       string              `koanf:"unit"`
	Interval   int                 `koanf:"interval"`
	Properties []PropertyBreakdown `koanf:"properties"`
}

// PropertyBreakdown names one event and the properties to segment it by.
type PropertyBreakdown struct {
	Event string   `koanf:"event"`
	Names []string `koanf:"names"`
}

// LoggingConfig holds logging settings passed to logging.Init.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error, fatal, panic, disabled (default: info)
//   - LOG_FORMAT: json or console (default: json)
//   - LOG_CALLER: include caller info (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig controls Prometheus metrics exposition.
//
// A CLI run is too short-lived to be scraped, so metrics are written once in
// the text exposition format when the command finishes, for collection by
// node_exporter's textfile collector or a pushgateway job.
//
// Environment Variables:
//   - MP_METRICS_FILE: path of the .prom file to write, empty disables (default: "")
type MetricsConfig struct {
	File string `koanf:"file"`
}

// Load reads configuration using the layered Koanf loader and validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
