package extract

import (
	"iter"
	"regexp"
	"strings"
)

// tagPattern matches a field marker such as :20: or :32A:
var tagPattern = regexp.MustCompile(`:(\d+[A-Z]?):`)

// Tagged yields (tag, value) pairs for every :TAG: marker in text, in source
// order. A value runs up to the next marker or the end of input, so it may
// span several lines; it is trimmed. Repeated tags are yielded each time.
func Tagged(text string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		markers := tagPattern.FindAllStringSubmatchIndex(text, -1)
		for i, m := range markers {
			tag := text[m[2]:m[3]]

			end := len(text)
			if i+1 < len(markers) {
				end = markers[i+1][0]
			}

			if !yield(tag, strings.TrimSpace(text[m[1]:end])) {
				return
			}
		}
	}
}
