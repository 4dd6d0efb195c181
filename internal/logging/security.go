// mpexport - Mixpanel Data Export Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpexport

package logging

import "strings"

// SanitizeToken masks a credential, showing only first and last 4 characters.
// Example: "0123456789abcdef0123" -> "0123...0123"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// sensitiveKeys are request parameter names whose values must not appear in logs.
var sensitiveKeys = map[string]bool{
	"api_key":    true,
	"apikey":     true,
	"api_secret": true,
	"secret":     true,
	"sig":        true,
	"token":      true,
	"password":   true,
}

// SanitizeValue masks value when key names a credential or signature.
func SanitizeValue(key, value string) string {
	if sensitiveKeys[strings.ToLower(key)] {
		return SanitizeToken(value)
	}
	return truncateString(value, 200)
}

// truncateString truncates a string to a maximum length.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
