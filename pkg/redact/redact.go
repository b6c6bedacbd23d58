// Package redact masks sensitive values in decoded JSON-like structures.
package redact

import "strings"

// Marker replaces the value of every redacted key.
const Marker = "[REDACTED]"

// AuditKeys are the key fragments removed from persisted audit records.
var AuditKeys = []string{"password", "token"}

// Value redacts AuditKeys with Marker.
func Value(v any) any {
	return Keys(v, Marker, AuditKeys...)
}

// Keys walks maps and slices and replaces the value of any map key whose
// lower-cased name contains one of fragments. The input is not modified.
func Keys(v any, marker string, fragments ...string) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if sensitive(k, fragments) {
				out[k] = marker
				continue
			}
			out[k] = Keys(val, marker, fragments...)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Keys(val, marker, fragments...)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if sensitive(k, fragments) {
				out[k] = marker
				continue
			}
			out[k] = val
		}
		return out
	default:
		return v
	}
}

func sensitive(key string, fragments []string) bool {
	lower := strings.ToLower(key)
	for _, f := range fragments {
		if strings.Contains(lower, f) {
			return true
		}
	}
	return false
}
