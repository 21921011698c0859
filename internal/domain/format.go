package domain

import "strconv"

// InputFormat names a supported legacy source format
type InputFormat string

const (
	FormatMT103 InputFormat = "MT103"
	FormatNACHA InputFormat = "NACHA"
)

// OutputFormatPain001 is the only message type produced.
const OutputFormatPain001 = "pain.001.001.03"

// ParseInputFormat accepts exactly "MT103" or "NACHA".
func ParseInputFormat(s string) (InputFormat, error) {
	switch InputFormat(s) {
	case FormatMT103, FormatNACHA:
		return InputFormat(s), nil
	}
	return "", ErrUnsupportedFormat
}

// ProgressFunc receives human-readable milestones during a conversion. It is
// observational only and must not block.
type ProgressFunc func(message string)

// Warning is a non-fatal problem found while parsing.
type Warning struct {
	Line    int // 0 when not tied to a source line
	Message string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return "line " + strconv.Itoa(w.Line) + ": " + w.Message
	}
	return w.Message
}
