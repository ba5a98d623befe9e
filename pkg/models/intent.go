package models

// GeneralCapability is the fallback capability and tag when nothing matched.
const GeneralCapability = "general"

// ParsedIntent is the structured result of parsing one free-text request.
// It is created once per request and treated as read-only afterwards.
type ParsedIntent struct {
	// Raw is the request as received.
	Raw string `json:"raw"`
	// PrimaryAction describes the dominant verb phrase.
	PrimaryAction string `json:"primary_action"`
	// Capabilities is never empty; {"general"} is the fallback.
	Capabilities []string `json:"capabilities"`
	// Tags is never empty; {"general"} is the fallback.
	Tags []string `json:"tags"`
	// Steps always has at least one entry.
	Steps         []string `json:"steps"`
	SuggestedName string   `json:"suggested_name"`
	// Confidence is in [0,1].
	Confidence float64 `json:"confidence"`
}

// IsGeneral returns true if no specific capability was recognized.
func (p *ParsedIntent) IsGeneral() bool {
	return len(p.Capabilities) == 1 && p.Capabilities[0] == GeneralCapability
}
