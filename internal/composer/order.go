package composer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ShayCichocki/skillflow/internal/graph"
	"github.com/ShayCichocki/skillflow/pkg/models"
)

// skillNode adapts registry metadata to graph.Node.
type skillNode struct {
	meta *models.SkillMetadata
}

func (n skillNode) NodeName() string           { return n.meta.Name }
func (n skillNode) NodeDependencies() []string { return n.meta.Dependencies }

// plan is the dependency analysis of one component set.
type plan struct {
	ordered []*models.SkillMetadata
	cycle   bool
	// requires maps each component to the in-set components it depends on.
	requires map[string][]string
	// external lists dependencies on components outside the set.
	external []string
}

// dependencies is the union of in-set and external dependencies.
func (p plan) dependencies() []string {
	lists := [][]string{p.external}
	for _, deps := range p.requires {
		lists = append(lists, deps)
	}
	return models.NameSet(lists...)
}

// Order sorts components so each comes after the in-set components it depends on.
// Dependencies outside the set do not affect ordering. If the set contains a
// cycle, the input order is returned unchanged. The second return value reports
// whether a cycle forced that fallback.
func Order(components []*models.SkillMetadata) ([]*models.SkillMetadata, bool) {
	p := analyze(components, nil)
	return p.ordered, p.cycle
}

func analyze(components []*models.SkillMetadata, logger *zap.Logger) plan {
	if logger == nil {
		logger = zap.NewNop()
	}

	nodes := make([]graph.Node, 0, len(components))
	byName := make(map[string]*models.SkillMetadata, len(components))
	for _, c := range components {
		if _, dup := byName[c.Name]; dup {
			continue
		}
		byName[c.Name] = c
		nodes = append(nodes, skillNode{meta: c})
	}

	g := graph.New()
	g.SetDebugLog(func(format string, args ...interface{}) {
		logger.Debug(fmt.Sprintf(format, args...))
	})
	g.BuildWithin(nodes)

	p := plan{requires: make(map[string][]string, len(byName))}
	var external [][]string
	for _, name := range g.Names() {
		p.requires[name] = g.GetDependencies(name)
		external = append(external, g.ExternalDependencies(name))
	}
	p.external = models.NameSet(external...)

	if g.HasCycle() {
		p.cycle = true
		p.ordered = append([]*models.SkillMetadata(nil), components...)
		return p
	}

	// Acyclic, so the sort cannot fail.
	names, _ := g.TopologicalSort()
	p.ordered = make([]*models.SkillMetadata, 0, len(names))
	for _, name := range names {
		p.ordered = append(p.ordered, byName[name])
	}
	return p
}
