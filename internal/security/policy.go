package security

import (
	"fmt"

	"github.com/ShayCichocki/skillflow/pkg/models"
)

// Verdict is what the pipeline does with a scanned candidate.
type Verdict int

const (
	// Accept keeps the candidate silently.
	Accept Verdict = iota
	// Warn keeps the candidate and records a warning.
	Warn
	// Exclude drops the candidate; the run continues.
	Exclude
	// Abort drops the candidate and fails the whole run.
	Abort
)

func (v Verdict) String() string {
	switch v {
	case Accept:
		return "accept"
	case Warn:
		return "warn"
	case Exclude:
		return "exclude"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// MarshalText encodes the verdict by name.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText decodes a verdict name.
func (v *Verdict) UnmarshalText(text []byte) error {
	for _, c := range []Verdict{Accept, Warn, Exclude, Abort} {
		if c.String() == string(text) {
			*v = c
			return nil
		}
	}
	return fmt.Errorf("unknown verdict %q", text)
}

// Decision is the outcome of applying the policy to one scan.
type Decision struct {
	Verdict Verdict
	// Risk is the effective level; gate errors count as HIGH.
	Risk   models.RiskLevel
	Result ScanResult
	Err    error
}

// Decide applies the security policy to a scan outcome.
// CRITICAL aborts the run. HIGH is excluded in strict mode and kept with a
// warning otherwise. A gate error or timeout counts as HIGH.
func Decide(level models.SecurityLevel, res ScanResult, err error) Decision {
	risk := res.Risk
	if err != nil || !risk.Valid() {
		risk = models.RiskHigh
	}

	d := Decision{Risk: risk, Result: res, Err: err}
	switch risk {
	case models.RiskCritical:
		d.Verdict = Abort
	case models.RiskHigh:
		if level == models.SecurityLevelStrict {
			d.Verdict = Exclude
		} else {
			d.Verdict = Warn
		}
	default:
		d.Verdict = Accept
	}
	return d
}
