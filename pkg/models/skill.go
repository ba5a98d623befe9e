package models

import "time"

// SkillMetadata is one entry of the component registry.
// ReuseScore is derived from UsageCount, Capabilities, SecurityStatus and
// UpdatedAt; the registry recomputes it on every mutation.
type SkillMetadata struct {
	// Name is the registry primary key.
	Name        string `json:"name"`
	Description string `json:"description"`
	// Path is the file or directory holding the component.
	Path    string `json:"path"`
	Version string `json:"version"`
	Author  string `json:"author"`
	// Capabilities are normalized technical domains, e.g. "web" or "file".
	Capabilities []string `json:"capabilities"`
	Tags         []string `json:"tags"`
	// Dependencies names other registry entries this component requires.
	Dependencies   []string       `json:"dependencies"`
	UsageCount     int            `json:"usage_count"`
	ReuseScore     float64        `json:"reuse_score"`
	SecurityStatus SecurityStatus `json:"security_status"`
	// LastScan is when SecurityStatus was last set by a scan.
	LastScan  *time.Time `json:"last_scan,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	// Hash fingerprints the content at Path for change detection.
	Hash string `json:"hash"`
}

// HasDependency returns true if the component requires name.
func (s *SkillMetadata) HasDependency(name string) bool {
	for _, d := range s.Dependencies {
		if d == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot mutate registry state.
func (s *SkillMetadata) Clone() *SkillMetadata {
	if s == nil {
		return nil
	}
	c := *s
	c.Capabilities = append([]string(nil), s.Capabilities...)
	c.Tags = append([]string(nil), s.Tags...)
	c.Dependencies = append([]string(nil), s.Dependencies...)
	if s.LastScan != nil {
		t := *s.LastScan
		c.LastScan = &t
	}
	return &c
}

// ComposedSkill is the composer's output before it is registered.
type ComposedSkill struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// OutputPath is where the generated unit was written.
	OutputPath string `json:"output_path"`
	// Components lists constituent names in dependency-resolved order.
	Components     []string       `json:"components"`
	Capabilities   []string       `json:"capabilities"`
	Tags           []string       `json:"tags"`
	Dependencies   []string       `json:"dependencies"`
	Steps          []string       `json:"steps"`
	SecurityStatus SecurityStatus `json:"security_status"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Metadata converts the composed unit into a registry entry.
// The entry depends on its constituents and on everything they depend on.
// Registry-owned fields (score, hash, timestamps) are left for the registry to fill.
func (c *ComposedSkill) Metadata(author, version string) *SkillMetadata {
	return &SkillMetadata{
		Name:           c.Name,
		Description:    c.Description,
		Path:           c.OutputPath,
		Version:        version,
		Author:         author,
		Capabilities:   append([]string(nil), c.Capabilities...),
		Tags:           append([]string(nil), c.Tags...),
		Dependencies:   NameSet(c.Components, c.Dependencies),
		SecurityStatus: c.SecurityStatus,
	}
}
