package registry

import (
	"time"

	"github.com/ShayCichocki/skillflow/pkg/models"
)

const (
	usageWeight      = 2
	usageCap         = 40
	capabilityWeight = 5
	capabilityCap    = 30
	maxReuseScore    = 100
)

// ReuseScore computes the ranking score of an entry as of now.
// The result is clamped to [0, 100].
func ReuseScore(s *models.SkillMetadata, now time.Time) float64 {
	score := min(s.UsageCount*usageWeight, usageCap) +
		min(len(s.Capabilities)*capabilityWeight, capabilityCap) +
		SecurityBonus(s.SecurityStatus) +
		RecencyBonus(now.Sub(s.UpdatedAt))

	return float64(max(0, min(score, maxReuseScore)))
}

// SecurityBonus rewards components that passed their last scan.
func SecurityBonus(status models.SecurityStatus) int {
	switch status {
	case models.SecurityPassed:
		return 20
	case models.SecurityWarning:
		return 10
	case models.SecurityFailed:
		return 0
	default:
		return 5
	}
}

// RecencyBonus rewards recently updated components.
func RecencyBonus(age time.Duration) int {
	const day = 24 * time.Hour
	switch {
	case age < 7*day:
		return 10
	case age < 30*day:
		return 7
	case age < 90*day:
		return 4
	default:
		return 0
	}
}
