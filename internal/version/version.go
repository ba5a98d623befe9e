// Package version holds the skillflow release version.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var raw string

// Get returns the skillflow version embedded from VERSION.
func Get() string {
	return strings.TrimSpace(raw)
}
