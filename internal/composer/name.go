package composer

import (
	"strings"
	"time"
	"unicode"
)

// timestampLayout suffixes generated names.
const timestampLayout = "20060102_150405"

// DefaultName derives "flow_<first three words of action>_<timestamp>".
func DefaultName(action string, now time.Time) string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(action)) {
		if w = identifier(w); w != "" {
			words = append(words, w)
		}
		if len(words) == 3 {
			break
		}
	}
	parts := append([]string{"flow"}, words...)
	parts = append(parts, now.Format(timestampLayout))
	return strings.Join(parts, "_")
}

// identifier keeps ASCII letters, digits and underscores.
func identifier(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validName rejects names that cannot be used as a file stem.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
