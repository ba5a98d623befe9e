package models

import "strings"

// SecurityStatus is the outcome of the most recent security scan of a component.
type SecurityStatus string

const (
	// SecurityUnscanned indicates the component has never been scanned.
	SecurityUnscanned SecurityStatus = "unscanned"
	// SecurityPassed indicates the last scan found nothing of concern.
	SecurityPassed SecurityStatus = "passed"
	// SecurityWarning indicates the last scan reported a high risk.
	SecurityWarning SecurityStatus = "warning"
	// SecurityFailed indicates the last scan reported a critical risk.
	SecurityFailed SecurityStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s SecurityStatus) Valid() bool {
	switch s {
	case SecurityUnscanned, SecurityPassed, SecurityWarning, SecurityFailed:
		return true
	default:
		return false
	}
}

// RiskLevel is the four-valued classification returned by a security gate.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// ParseRiskLevel converts a case-insensitive string to a RiskLevel.
// Unknown values map to RiskHigh.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case RiskLow:
		return RiskLow
	case RiskMedium:
		return RiskMedium
	case RiskCritical:
		return RiskCritical
	default:
		return RiskHigh
	}
}

// Valid returns true if the level is a known value.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	default:
		return false
	}
}

// Rank orders risk levels from 0 (LOW) to 3 (CRITICAL).
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 3
	}
}

// Status maps a scan outcome onto the status recorded in the registry.
func (r RiskLevel) Status() SecurityStatus {
	switch r {
	case RiskLow, RiskMedium:
		return SecurityPassed
	case RiskHigh:
		return SecurityWarning
	default:
		return SecurityFailed
	}
}

// SecurityLevel governs how strictly HIGH risk findings are treated.
type SecurityLevel string

const (
	// SecurityLevelMinimal keeps HIGH risk components with a warning.
	SecurityLevelMinimal SecurityLevel = "minimal"
	// SecurityLevelStandard keeps HIGH risk components with a warning.
	SecurityLevelStandard SecurityLevel = "standard"
	// SecurityLevelStrict excludes HIGH risk components.
	SecurityLevelStrict SecurityLevel = "strict"
)

// Valid returns true if the level is a known value.
func (l SecurityLevel) Valid() bool {
	switch l {
	case SecurityLevelMinimal, SecurityLevelStandard, SecurityLevelStrict:
		return true
	default:
		return false
	}
}
