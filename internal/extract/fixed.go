// Package extract holds the two low-level field primitives the parsers are
// built on: positional slicing of fixed-width lines and scanning of
// colon-delimited tagged fields. Neither knows anything about payments.
package extract

import "strings"

// Fixed returns line[start:end] with surrounding whitespace trimmed. ok is
// false when the line is too short or the bounds are invalid; the caller
// decides whether to skip or default.
func Fixed(line string, start, end int) (string, bool) {
	if start < 0 || end < start || len(line) < end {
		return "", false
	}
	return strings.TrimSpace(line[start:end]), true
}
