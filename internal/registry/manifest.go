package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/skillflow/pkg/models"
)

// ManifestName is the optional per-component metadata file.
const ManifestName = "skill.yaml"

// ManifestSuffix marks a manifest sitting next to a single-file component,
// e.g. "report.go" + "report.skill.yaml".
const ManifestSuffix = ".skill.yaml"

// Manifest is the on-disk description of a component.
type Manifest struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description,omitempty"`
	Version      string   `yaml:"version,omitempty"`
	Author       string   `yaml:"author,omitempty"`
	Entry        string   `yaml:"entry,omitempty"`
	Capabilities []string `yaml:"capabilities,omitempty"`
	Tags         []string `yaml:"tags,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty"`
	Steps        []string `yaml:"steps,omitempty"`
}

// ReadManifest parses a manifest file.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// WriteManifest writes m to path.
func WriteManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Metadata converts the manifest into a registry entry for the component at path.
func (m *Manifest) Metadata(path string) *models.SkillMetadata {
	return &models.SkillMetadata{
		Name:           m.Name,
		Description:    m.Description,
		Path:           path,
		Version:        m.Version,
		Author:         m.Author,
		Capabilities:   models.NormalizeSet(m.Capabilities),
		Tags:           models.NormalizeSet(m.Tags),
		Dependencies:   models.NameSet(m.Dependencies),
		SecurityStatus: models.SecurityUnscanned,
	}
}
