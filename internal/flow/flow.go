// Package flow runs the skill pipeline: Parse, Search, Scan, Compose, Register.
//
// Every collaborator is injected through New; nothing is constructed lazily.
// A run never returns a Go error for security findings or empty searches.
// Those are reported in Result.Errors and Result.Warnings. Process returns an
// error only when writing the flow or persisting the registry fails.
package flow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/skillflow/internal/metrics"
	"github.com/ShayCichocki/skillflow/internal/registry"
	"github.com/ShayCichocki/skillflow/internal/security"
	"github.com/ShayCichocki/skillflow/internal/state"
	"github.com/ShayCichocki/skillflow/pkg/models"
)

// Stage is one step of the pipeline.
type Stage string

const (
	StageParse    Stage = "parse"
	StageSearch   Stage = "search"
	StageScan     Stage = "scan"
	StageCompose  Stage = "compose"
	StageRegister Stage = "register"
)

// Stages lists the pipeline in execution order.
var Stages = []Stage{StageParse, StageSearch, StageScan, StageCompose, StageRegister}

// Parser turns a request into an intent. It never fails.
type Parser interface {
	Parse(request string) *models.ParsedIntent
}

// Registry is the catalog the pipeline searches and updates.
type Registry interface {
	Find(q registry.Query) []*models.SkillMetadata
	Register(component *models.SkillMetadata) (*models.SkillMetadata, error)
	IncrementUsage(name string) error
	UpdateSecurityStatus(name string, status models.SecurityStatus, scanDate *time.Time) error
	Len() int
}

// Composer assembles vetted components into a new flow.
type Composer interface {
	Compose(components []*models.SkillMetadata, intent *models.ParsedIntent, name string) (*models.ComposedSkill, error)
}

// RunRecorder persists finished runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, r *state.Run) error
}

// CandidateDecision is the security verdict for one candidate.
type CandidateDecision struct {
	Name    string           `json:"name"`
	Path    string           `json:"path"`
	Verdict security.Verdict `json:"verdict"`
	Risk    models.RiskLevel `json:"risk"`
	Detail  string           `json:"detail,omitempty"`
	Err     error            `json:"-"`
}

// Result is everything a caller learns about one run.
type Result struct {
	RunID   string `json:"run_id"`
	Request string `json:"request"`
	Success bool   `json:"success"`
	// FailedAt is the stage that ended a failed run.
	FailedAt Stage                `json:"failed_at,omitempty"`
	Intent   *models.ParsedIntent `json:"intent,omitempty"`
	// Refinements are hints shown when the request parsed poorly.
	Refinements []string `json:"refinements,omitempty"`
	// Candidates are the registry matches, best first.
	Candidates []string              `json:"candidates"`
	Decisions  []CandidateDecision   `json:"decisions"`
	Skill      *models.ComposedSkill `json:"skill,omitempty"`
	// Registered is the registry entry for Skill when auto-registration is on.
	Registered *models.SkillMetadata `json:"registered,omitempty"`
	OutputPath string                `json:"output_path,omitempty"`
	Warnings   []string              `json:"warnings"`
	Errors     []string              `json:"errors"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
}

// Flow is the pipeline orchestrator.
type Flow struct {
	parser   Parser
	registry Registry
	gate     security.Gate
	composer Composer

	level         models.SecurityLevel
	autoRegister  bool
	minReuseScore float64
	author        string
	version       string

	reporter Reporter
	recorder RunRecorder
	metrics  *metrics.Collector
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures a Flow.
type Option func(*Flow)

// WithSecurityLevel sets how HIGH risk candidates are treated.
func WithSecurityLevel(level models.SecurityLevel) Option {
	return func(f *Flow) { f.level = level }
}

// WithAutoRegister toggles the Register stage.
func WithAutoRegister(on bool) Option {
	return func(f *Flow) { f.autoRegister = on }
}

// WithMinReuseScore filters search results.
func WithMinReuseScore(score float64) Option {
	return func(f *Flow) { f.minReuseScore = score }
}

// WithAuthor sets the author recorded on registered flows.
func WithAuthor(author string) Option {
	return func(f *Flow) { f.author = author }
}

// WithVersion sets the version recorded on registered flows.
func WithVersion(version string) Option {
	return func(f *Flow) { f.version = version }
}

// WithReporter receives stage progress.
func WithReporter(r Reporter) Option {
	return func(f *Flow) { f.reporter = r }
}

// WithRecorder persists every run.
func WithRecorder(r RunRecorder) Option {
	return func(f *Flow) { f.recorder = r }
}

// WithMetrics records run metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(f *Flow) { f.metrics = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Flow) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// New creates a Flow. Defaults: standard security, auto-registration on.
func New(parser Parser, reg Registry, gate security.Gate, composer Composer, opts ...Option) *Flow {
	f := &Flow{
		parser:       parser,
		registry:     reg,
		gate:         gate,
		composer:     composer,
		level:        models.SecurityLevelStandard,
		autoRegister: true,
		author:       "skillflow",
		version:      "1.0.0",
		reporter:     NopReporter{},
		logger:       zap.NewNop(),
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With(zap.String("component", "flow"))
	return f
}
