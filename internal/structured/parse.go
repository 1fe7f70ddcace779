// Package structured extracts JSON payloads from free-form model output.
//
// Generation output usually wraps the JSON the caller asked for in natural
// language ("Sure! Here you go: {...}"). Extract scans for the first
// balanced object or array instead of using a greedy regex, which would
// misfire on braces inside string literals.
package structured

import "encoding/json"

// Extract returns the first balanced top-level JSON object or array in raw.
// The scanner tracks nesting depth and is aware of string literals and
// escape sequences. ok is false when no balanced payload exists.
func Extract(raw string) (payload string, ok bool) {
	start := -1
	var open, close byte
	for i := 0; i < len(raw); i++ {
		if raw[i] == '{' || raw[i] == '[' {
			start = i
			open = raw[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}

// ParseWithFallback extracts and unmarshals a JSON value of type T from raw.
// check may reject the parsed value (return false) or normalize it in place,
// e.g. clamp out-of-range numeric fields; pass nil to skip the shape check.
// Any failure (no payload, invalid JSON, rejected shape) yields fallback
// unchanged. Parse failures never propagate.
func ParseWithFallback[T any](raw string, fallback T, check func(*T) bool) T {
	payload, ok := Extract(raw)
	if !ok {
		return fallback
	}

	var v T
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return fallback
	}
	if check != nil && !check(&v) {
		return fallback
	}
	return v
}

// Clamp bounds v into [lo, hi]. Slightly out-of-range numbers from the model
// are common and recoverable, so bounded fields are clamped rather than
// rejected.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
