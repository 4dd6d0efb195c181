// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/mpexport/internal/logging"
)

// MaxTimeout bounds the per-request timeout. A signed request expires ten
// minutes after signing, so a connection held open longer cannot succeed.
const MaxTimeout = 10 * time.Minute

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateMixpanel(); err != nil {
		return err
	}

	if err := c.validateReport(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateMixpanel validates credentials and endpoint settings
func (c *Config) validateMixpanel() error {
	if c.Mixpanel.APIKey == "" {
		return fmt.Errorf("MP_API_KEY is required")
	}
	if c.Mixpanel.APISecret == "" {
		return fmt.Errorf("MP_API_SECRET is required")
	}
	if err := validateHTTPURL(c.Mixpanel.Endpoint, "MP_ENDPOINT"); err != nil {
		return fmt.Errorf("MP_ENDPOINT is invalid: %w", err)
	}
	if strings.TrimSpace(c.Mixpanel.Version) == "" || strings.Contains(c.Mixpanel.Version, "/") {
		return fmt.Errorf("MP_API_VERSION must be a single non-empty path segment, got: %q", c.Mixpanel.Version)
	}
	if c.Mixpanel.Timeout <= 0 || c.Mixpanel.Timeout > MaxTimeout {
		return fmt.Errorf("MP_TIMEOUT must be positive and at most %s, got: %s", MaxTimeout, c.Mixpanel.Timeout)
	}
	if c.Mixpanel.RateLimitPerHour < 0 {
		return fmt.Errorf("MP_RATE_LIMIT_PER_HOUR must be non-negative")
	}
	if c.Mixpanel.RateLimitPerHour > 0 && c.Mixpanel.RateLimitBurst < 1 {
		return fmt.Errorf("MP_RATE_LIMIT_BURST must be at least 1 when rate limiting is enabled")
	}
	return nil
}

// validateReport validates the report query settings
func (c *Config) validateReport() error {
	validTypes := map[string]bool{"general": true, "unique": true, "average": true}
	if !validTypes[c.Report.Type] {
		return fmt.Errorf("REPORT_TYPE must be general, unique, or average, got: %s", c.Report.Type)
	}

	validUnits := map[string]bool{"minute": true, "hour": true, "day": true, "week": true, "month": true}
	if !validUnits[c.Report.Unit] {
		return fmt.Errorf("REPORT_UNIT must be minute, hour, day, week, or month, got: %s", c.Report.Unit)
	}

	if c.Report.Interval < 1 || c.Report.Interval > 3650 {
		return fmt.Errorf("REPORT_INTERVAL must be between 1 and 3650, got: %d", c.Report.Interval)
	}

	for i, p := range c.Report.Properties {
		if p.Event == "" {
			return fmt.Errorf("report.properties[%d]: event is required", i)
		}
		if len(p.Names) == 0 {
			return fmt.Errorf("report.properties[%d] (%s): at least one property name is required", i, p.Event)
		}
		for _, name := range p.Names {
			if name == "" {
				return fmt.Errorf("report.properties[%d] (%s): property names must not be empty", i, p.Event)
			}
		}
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic, disabled, got: %s", c.Logging.Level)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got: %s", c.Logging.Format)
	}
	return nil
}
