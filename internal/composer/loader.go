package composer

import "github.com/ShayCichocki/skillflow/pkg/models"

// LoadedComponent describes a constituent as embedded in a scaffold.
type LoadedComponent struct {
	Name   string
	Path   string
	Loaded bool
}

// ComponentLoader resolves a registry entry into something a scaffold can call.
//
// Real dynamic loading is not implemented. StubLoader is the only
// implementation: it records the path and marks the component loaded without
// reading, importing or executing anything.
type ComponentLoader interface {
	Load(meta *models.SkillMetadata) (LoadedComponent, error)
}

// StubLoader is the placeholder ComponentLoader.
type StubLoader struct{}

// Load returns {path, loaded: true} for meta.
func (StubLoader) Load(meta *models.SkillMetadata) (LoadedComponent, error) {
	return LoadedComponent{Name: meta.Name, Path: meta.Path, Loaded: true}, nil
}
