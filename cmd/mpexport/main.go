// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

// Package main is the entry point for the mpexport command.
//
// mpexport issues signed requests against the Mixpanel data export API and
// prints the results as JSON on stdout. Logs go to stderr.
//
// # Commands
//
//	mpexport [report]                          Fetch event and property series (default)
//	mpexport names [-limit N]                  List event names
//	mpexport request [-format F] <method> [key=value ...]
//	                                           Issue a raw signed request, e.g. events/properties
//	mpexport sign [key=value ...]              Print the signature for a parameter set
//
// Values of the form [..] are parsed as JSON lists, so event=["Home","About"]
// is sent as a list parameter.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables: MP_API_KEY, MP_API_SECRET, MP_ENDPOINT, MP_TIMEOUT, ...
//   - Config file (config.yaml, /etc/mpexport/config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// Setting MP_METRICS_FILE writes Prometheus metrics for the run to that file
// when the command finishes.
//
// # Exit Status
//
// mpexport exits 1 when configuration is invalid, a request fails, or Mixpanel
// reports an error in its response.
//
// # Example Usage
//
//	export MP_API_KEY=your-api-key
//	export MP_API_SECRET=your-api-secret
//	./mpexport report > report.json
//	./mpexport request events/properties/top event=Home limit=5
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/mpexport/internal/config"
	"github.com/tomtom215/mpexport/internal/logging"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = logging.ContextWithNewCorrelationID(ctx)

	err = run(ctx, cfg, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
