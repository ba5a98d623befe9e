// Package security vets candidate components before they are composed.
//
// A Gate classifies the component at a path into one of four risk levels.
// Decide turns that classification into a verdict for the current security
// level. Gates compose: WithTimeout bounds a scan and CachedGate skips
// re-scanning unchanged content.
package security

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ShayCichocki/skillflow/pkg/models"
)

// ErrScanTimeout is returned when a scan exceeds its time budget.
var ErrScanTimeout = errors.New("security scan timed out")

// Finding is one reason a gate raised the risk of a component.
type Finding struct {
	Risk   models.RiskLevel `json:"risk"`
	Rule   string           `json:"rule"`
	File   string           `json:"file,omitempty"`
	Line   int              `json:"line,omitempty"`
	Reason string           `json:"reason"`
}

func (f Finding) String() string {
	loc := f.File
	if f.Line > 0 {
		loc = fmt.Sprintf("%s:%d", f.File, f.Line)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", f.Risk, f.Reason)
	}
	return fmt.Sprintf("%s: %s (%s)", f.Risk, f.Reason, loc)
}

// ScanResult is a gate's classification of one component.
type ScanResult struct {
	Risk models.RiskLevel
	// Detail is gate specific; the local detector stores []Finding.
	Detail any
}

// Summary renders Detail for logs and warnings.
func (r ScanResult) Summary() string {
	switch d := r.Detail.(type) {
	case nil:
		return ""
	case []Finding:
		parts := make([]string, 0, len(d))
		for _, f := range d {
			parts = append(parts, f.String())
		}
		return strings.Join(parts, "; ")
	case string:
		return d
	default:
		return fmt.Sprint(d)
	}
}

// Gate classifies the component stored at path.
type Gate interface {
	Scan(ctx context.Context, path string) (ScanResult, error)
}

// GateFunc adapts a function to the Gate interface.
type GateFunc func(ctx context.Context, path string) (ScanResult, error)

// Scan calls f.
func (f GateFunc) Scan(ctx context.Context, path string) (ScanResult, error) {
	return f(ctx, path)
}
