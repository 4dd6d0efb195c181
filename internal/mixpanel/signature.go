// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

package mixpanel

import (
	"crypto/md5" //nolint:gosec // MD5 is mandated by the Mixpanel signing scheme
	"encoding/hex"
	"io"
	"sort"
)

// Sign computes the request signature for params using secret.
//
// Values are canonicalized to wire text, then "key=value" pairs are
// concatenated in ascending byte order of key, followed by the secret, and the
// MD5 digest of the whole is returned as lowercase hex. params is not modified.
func Sign(params Params, secret string) (string, error) {
	if secret == "" {
		return "", &ConfigError{Field: "api_secret", Reason: "is required to sign requests"}
	}
	wire, err := canonicalize(params)
	if err != nil {
		return "", err
	}
	return signWire(wire, secret), nil
}

// signatureBase returns the concatenated "key=value" string the digest is taken over.
func signatureBase(wire map[string]string) string {
	keys := make([]string, 0, len(wire))
	for k := range wire {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := 0
	for _, k := range keys {
		n += len(k) + 1 + len(wire[k])
	}

	b := make([]byte, 0, n)
	for _, k := range keys {
		b = append(b, k...)
		b = append(b, '=')
		b = append(b, wire[k]...)
	}
	return string(b)
}

// signWire signs an already canonical mapping.
func signWire(wire map[string]string, secret string) string {
	h := md5.New() //nolint:gosec // see import
	_, _ = io.WriteString(h, signatureBase(wire))
	_, _ = io.WriteString(h, secret)
	return hex.EncodeToString(h.Sum(nil))
}
