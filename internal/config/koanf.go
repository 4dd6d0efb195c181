// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/mpexport/config.yaml",
	"/etc/mpexport/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Mixpanel: MixpanelConfig{
			APIKey:           "",
			APISecret:        "",
			Endpoint:         "http://mixpanel.com/api",
			Version:          "2.0",
			Timeout:          30 * time.Second,
			RateLimitPerHour: 0, // Unlimited
			RateLimitBurst:   5,
		},
		Report: ReportConfig{
			Type:       "general",
			Unit:       "day",
			Interval:   31,
			Properties: defaultProperties(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Metrics: MetricsConfig{
			File: "", // Disabled
		},
	}
}

// defaultProperties is the event/property table tracked by the marketing site.
func defaultProperties() []PropertyBreakdown {
	return []PropertyBreakdown{
		{Event: "About", Names: []string{"Team"}},
		{Event: "Careers", Names: []string{"Link Click", "Position Name"}},
		{Event: "Contact", Names: []string{"Campus Ambassador", "General Inquiry"}},
		{Event: "DS", Names: []string{"Carousel", "Event Brite", "Past Events"}},
		{Event: "Footer", Names: []string{"Link", "Link Name"}},
		{Event: "Home", Names: []string{"BePartOfTheMoment", "Carousel", "Newsletter", "WeChallangeThatsPossible"}},
		{Event: "Join Us", Names: []string{"Header", "Footer", "Position Name"}},
		{Event: "NTV", Names: []string{"Video Name"}},
		{Event: "Nav Bar", Names: []string{"Name"}},
		{Event: "Scrolled to", Names: []string{"Home", "About"}},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// MP_API_KEY -> mixpanel.api_key, REPORT_UNIT -> report.unit
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	"mp_api_key":             "mixpanel.api_key",
	"mp_api_secret":          "mixpanel.api_secret",
	"mp_endpoint":            "mixpanel.endpoint",
	"mp_api_version":         "mixpanel.version",
	"mp_timeout":             "mixpanel.timeout",
	"mp_rate_limit_per_hour": "mixpanel.rate_limit_per_hour",
	"mp_rate_limit_burst":    "mixpanel.rate_limit_burst",

	"report_type":     "report.type",
	"report_unit":     "report.unit",
	"report_interval": "report.interval",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"mp_metrics_file": "metrics.file",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables return an empty key and are skipped, so unrelated
// environment variables never pollute the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
