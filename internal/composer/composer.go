// Package composer assembles vetted registry components into a new flow.
//
// A composed flow is a scaffold: a Go program that names its constituents in
// dependency order and walks the intent's steps. It does not merge or verify
// the components' implementations.
package composer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ShayCichocki/skillflow/internal/registry"
	"github.com/ShayCichocki/skillflow/pkg/models"
)

// SourceExt is the extension of generated flows.
const SourceExt = ".go"

// DefaultVersion is recorded in generated manifests.
const DefaultVersion = "1.0.0"

// Composer writes composed flows into an output directory.
type Composer struct {
	outputDir string
	author    string
	loader    ComponentLoader
	blocks    map[string]Block
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithLoader replaces the StubLoader.
func WithLoader(l ComponentLoader) Option {
	return func(c *Composer) { c.loader = l }
}

// WithBlocks replaces the template-mode blocks.
func WithBlocks(blocks map[string]Block) Option {
	return func(c *Composer) { c.blocks = blocks }
}

// WithAuthor sets the author written to manifests.
func WithAuthor(author string) Option {
	return func(c *Composer) { c.author = author }
}

// WithClock overrides the time source for names and headers.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a composer writing into outputDir.
func New(outputDir string, opts ...Option) *Composer {
	c := &Composer{
		outputDir: outputDir,
		author:    "skillflow",
		loader:    StubLoader{},
		blocks:    DefaultBlocks,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "composer"))
	return c
}

// OutputDir returns the directory flows are written to.
func (c *Composer) OutputDir() string {
	return c.outputDir
}

// Compose orders components by dependency, unions their capabilities and tags
// with the intent's, and writes a scaffold plus manifest. With no components it
// falls back to ComposeFromTemplates. An empty name derives one from the intent.
// Errors are returned only for an invalid name or a failed write.
func (c *Composer) Compose(components []*models.SkillMetadata, intent *models.ParsedIntent, name string) (*models.ComposedSkill, error) {
	if len(components) == 0 {
		return c.ComposeFromTemplates(intent, name)
	}

	p := analyze(components, c.logger)
	ordered := p.ordered
	if p.cycle {
		c.logger.Warn("dependency cycle among components, keeping input order",
			zap.Strings("components", names(components)),
			zap.Any("requires", p.requires))
	}
	if len(p.external) > 0 {
		c.logger.Debug("dependencies outside the component set", zap.Strings("external", p.external))
	}

	loaded := make([]LoadedComponent, 0, len(ordered))
	for _, meta := range ordered {
		lc, err := c.loader.Load(meta)
		if err != nil {
			c.logger.Warn("component load failed", zap.String("name", meta.Name), zap.Error(err))
			lc = LoadedComponent{Name: meta.Name, Path: meta.Path}
		}
		loaded = append(loaded, lc)
	}

	skill := c.newSkill(intent, name)
	skill.Components = names(ordered)
	caps := [][]string{intent.Capabilities}
	tags := [][]string{intent.Tags}
	for _, meta := range ordered {
		caps = append(caps, meta.Capabilities)
		tags = append(tags, meta.Tags)
	}
	skill.Capabilities = models.NormalizeSet(caps...)
	skill.Tags = models.NormalizeSet(tags...)
	skill.Dependencies = p.dependencies()

	data := scaffoldData{
		Name:        skill.Name,
		Description: skill.Description,
		Components:  loaded,
		Steps:       intent.Steps,
	}
	if err := c.write(skill, data); err != nil {
		return nil, err
	}
	return skill, nil
}

// ComposeFromTemplates writes a scaffold built from literal code blocks chosen
// by the intent's capabilities. No registry components are involved.
func (c *Composer) ComposeFromTemplates(intent *models.ParsedIntent, name string) (*models.ComposedSkill, error) {
	skill := c.newSkill(intent, name)
	skill.Components = []string{}
	skill.Capabilities = models.NormalizeSet(intent.Capabilities)
	skill.Tags = models.NormalizeSet(intent.Tags)
	skill.Dependencies = []string{}

	data := scaffoldData{
		Name:        skill.Name,
		Description: skill.Description,
		Steps:       intent.Steps,
		Blocks:      BlocksFor(skill.Capabilities, c.blocks),
	}
	if err := c.write(skill, data); err != nil {
		return nil, err
	}
	return skill, nil
}

func (c *Composer) newSkill(intent *models.ParsedIntent, name string) *models.ComposedSkill {
	now := c.now()
	action := intent.PrimaryAction
	if action == "" {
		action = intent.Raw
	}
	if name == "" {
		name = c.uniqueName(DefaultName(action, now))
	}
	return &models.ComposedSkill{
		Name:           name,
		Description:    oneLine("Composed flow: " + action),
		Steps:          append([]string(nil), intent.Steps...),
		SecurityStatus: models.SecurityUnscanned,
		CreatedAt:      now,
	}
}

// write renders the scaffold and manifest.
func (c *Composer) write(skill *models.ComposedSkill, data scaffoldData) error {
	if !validName(skill.Name) {
		return fmt.Errorf("invalid flow name %q", skill.Name)
	}

	if err := os.MkdirAll(c.outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	src, err := renderScaffold(data, skill.CreatedAt)
	if err != nil {
		if src == nil {
			return err
		}
		c.logger.Warn("scaffold left unformatted", zap.String("name", skill.Name), zap.Error(err))
	}

	out := filepath.Join(c.outputDir, skill.Name+SourceExt)
	if err := os.WriteFile(out, src, 0644); err != nil {
		return fmt.Errorf("write flow: %w", err)
	}
	abs, err := filepath.Abs(out)
	if err == nil {
		out = abs
	}
	skill.OutputPath = out

	manifest := &registry.Manifest{
		Name:         skill.Name,
		Description:  skill.Description,
		Version:      DefaultVersion,
		Author:       c.author,
		Entry:        skill.Name + SourceExt,
		Capabilities: skill.Capabilities,
		Tags:         skill.Tags,
		Dependencies: models.NameSet(skill.Components, skill.Dependencies),
		Steps:        skill.Steps,
	}
	manifestPath := filepath.Join(c.outputDir, skill.Name+registry.ManifestSuffix)
	if err := registry.WriteManifest(manifestPath, manifest); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	c.logger.Info("flow composed",
		zap.String("name", skill.Name),
		zap.String("path", skill.OutputPath),
		zap.Int("components", len(skill.Components)))
	return nil
}

// uniqueName suffixes base with _2, _3, ... until no flow of that name exists.
func (c *Composer) uniqueName(base string) string {
	name := base
	for i := 2; ; i++ {
		_, err := os.Stat(filepath.Join(c.outputDir, name+SourceExt))
		if errors.Is(err, os.ErrNotExist) {
			return name
		}
		name = fmt.Sprintf("%s_%d", base, i)
	}
}

func names(ms []*models.SkillMetadata) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name
	}
	return out
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
