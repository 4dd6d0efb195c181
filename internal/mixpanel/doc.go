// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

/*
Package mixpanel implements a client for the Mixpanel data export API.

Each request is authenticated by a signature: the request parameters, plus the
api_key, expire, and format parameters the client injects, are converted to
text, sorted by key, concatenated as key=value pairs, suffixed with the API
secret, and hashed with MD5. The server recomputes the same digest from the
query string it receives.

Key Components:

  - Client: signs and issues requests (Issue, Request, Sign)
  - Params: request parameters; slices are sent as JSON lists
  - DataExport: typed events/names, events, and events/properties calls
  - CircuitBreakerClient: sony/gobreaker protection around any Requester

Error Classification:

Every failure can be matched with errors.Is against ErrConfig, ErrParam,
ErrTransport, ErrDecode, or ErrAPI, or extracted with errors.As into the
corresponding *ConfigError, *ParamError, *TransportError, *DecodeError, or
*APIError.

Issue does not treat an "error" field in a well-formed response as a failure.
Use Response.Err, CheckAPIError, or Request for that.

Usage Example:

	client, err := mixpanel.New(&cfg.Mixpanel)
	if err != nil {
	    return err
	}

	resp, err := client.Request(ctx, []string{"events", "names"}, mixpanel.Params{
	    "type": "general",
	})
	if err != nil {
	    return err
	}
	fmt.Println(resp.Data)

See Also:

  - internal/models/mixpanel: response shapes
  - internal/mixpanel/mixpaneltest: fake API server for tests
*/
package mixpanel
