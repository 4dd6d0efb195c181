// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mpexport/internal/config"
	"github.com/tomtom215/mpexport/internal/logging"
	"github.com/tomtom215/mpexport/internal/metrics"
	"github.com/tomtom215/mpexport/internal/mixpanel"
	"github.com/tomtom215/mpexport/internal/report"
)

// errUsage is returned for malformed command lines.
var errUsage = errors.New("usage: mpexport [report | names [-limit N] | request [-format F] <method> [key=value ...] | sign [key=value ...]]")

// run dispatches args to a subcommand and writes its output to stdout.
func run(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	command := "report"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	client, err := mixpanel.New(&cfg.Mixpanel)
	if err != nil {
		return err
	}

	logging.Ctx(ctx).Debug().
		Str("command", command).
		Str("endpoint", cfg.Mixpanel.Endpoint).
		Str("api_key", logging.SanitizeToken(cfg.Mixpanel.APIKey)).
		Msg("Starting command")

	switch command {
	case "report":
		err = runReport(ctx, client, cfg.Report, args, stdout)
	case "names":
		err = runNames(ctx, client, args, stdout)
	case "request":
		err = runRequest(ctx, client, args, stdout)
	case "sign":
		err = runSign(client, args, stdout)
	default:
		return fmt.Errorf("unknown command %q: %w", command, errUsage)
	}

	// Written even when the command failed, so error outcomes are collected too.
	if path := cfg.Metrics.File; path != "" {
		if werr := metrics.WriteTextfile(path); werr != nil {
			logging.Ctx(ctx).Warn().Err(werr).Str("path", path).Msg("Failed to write metrics file")
		}
	}
	return err
}

func runReport(ctx context.Context, client *mixpanel.Client, cfg config.ReportConfig, args []string, stdout io.Writer) error {
	if len(args) > 0 {
		return errUsage
	}

	runner := report.NewRunner(mixpanel.NewCircuitBreakerClient(client), cfg)
	rep, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	return writeJSON(stdout, rep)
}

func runNames(ctx context.Context, client *mixpanel.Client, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("names", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	limit := fs.Int("limit", 0, "maximum number of names (0 uses the server default)")
	eventType := fs.String("type", "general", "general, unique, or average")
	if err := fs.Parse(args); err != nil || fs.NArg() > 0 {
		return errUsage
	}

	names, err := mixpanel.NewDataExport(client).EventNames(ctx, mixpanel.EventNamesQuery{
		Type:  *eventType,
		Limit: *limit,
	})
	if err != nil {
		return err
	}
	return writeJSON(stdout, names)
}

func runRequest(ctx context.Context, client *mixpanel.Client, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("request", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	format := fs.String("format", mixpanel.DefaultFormat, "response format")
	if err := fs.Parse(args); err != nil || fs.NArg() < 1 {
		return errUsage
	}

	params, err := parseParams(fs.Args()[1:])
	if err != nil {
		return err
	}

	resp, err := client.Issue(ctx, mixpanel.SplitMethod(fs.Arg(0)), params, *format)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	return writeJSON(stdout, resp.Data)
}

func runSign(client *mixpanel.Client, args []string, stdout io.Writer) error {
	params, err := parseParams(args)
	if err != nil {
		return err
	}

	sig, err := client.Sign(params)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, sig)
	return err
}

// parseParams converts key=value arguments into request parameters. A value
// that parses as a JSON list becomes a list parameter; anything else is text.
func parseParams(args []string) (mixpanel.Params, error) {
	params := make(mixpanel.Params, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value: %w", arg, errUsage)
		}

		if strings.HasPrefix(value, "[") {
			if list, ok := parseList(value); ok {
				params[key] = list
				continue
			}
		}
		params[key] = value
	}
	return params, nil
}

func parseList(value string) ([]any, bool) {
	dec := json.NewDecoder(strings.NewReader(value))
	dec.UseNumber()

	var list []any
	if err := dec.Decode(&list); err != nil || dec.More() {
		return nil, false
	}
	return list, true
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
