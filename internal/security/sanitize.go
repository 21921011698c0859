package security

import (
	"regexp"
	"strings"
)

const (
	unknownErrorMessage = "An unknown error occurred"
	genericErrorMessage = "A processing error occurred"
	maxLogFieldLength   = 200
)

var sanitizeRules = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	// stack-trace shaped fragments
	{regexp.MustCompile(`(?i)\bat\s+[\w.$/<>]+\([^)]*\)`), ""},
	{regexp.MustCompile(`(?i)caused by:.*`), ""},
	{regexp.MustCompile(`goroutine \d+ \[[^\]]*\]:?`), ""},
	{regexp.MustCompile(`\S+\.go:\d+(\s+\+0x[0-9a-fA-F]+)?`), ""},
	// filesystem paths
	{regexp.MustCompile(`(?i)\b[a-z]:\\\S*`), "[PATH]"},
	{regexp.MustCompile(`/\S*`), "[PATH]"},
	// network addresses
	{regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}(:\d+)?\b`), "[IP]"},
	// credentials
	{regexp.MustCompile(`(?i)(password|passwd)\w*(\s*[:=]\s*\S+)?`), "[PASSWORD]"},
	{regexp.MustCompile(`(?i)(token|secret|api[_-]?key)\w*(\s*[:=]\s*\S+)?`), "[TOKEN]"},
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// SanitizeErrorMessage strips anything from msg that could leak internals to
// an end user: stack frames, file paths, IP addresses and credentials. It
// never returns an empty string.
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return unknownErrorMessage
	}

	sanitized := msg
	for _, rule := range sanitizeRules {
		sanitized = rule.pattern.ReplaceAllString(sanitized, rule.replacement)
	}
	sanitized = strings.TrimSpace(whitespaceRun.ReplaceAllString(sanitized, " "))

	if sanitized == "" {
		return genericErrorMessage
	}
	return sanitized
}

// SanitizeForLogging neutralises line breaks and control characters so a
// value cannot forge log entries, and caps its length.
func SanitizeForLogging(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\r' || r == '\n':
			return '_'
		case r == '\t':
			return ' '
		case r < 0x20 || r == 0x7f:
			return '?'
		}
		return r
	}, s)

	if runes := []rune(s); len(runes) > maxLogFieldLength {
		s = string(runes[:maxLogFieldLength])
	}
	return s
}

var safeFilename = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// IsFilenameSafe reports whether name is a plain file name made of letters,
// digits, dots, dashes and underscores, and is not "." or "..".
func IsFilenameSafe(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return false
	}
	return safeFilename.MatchString(name)
}
