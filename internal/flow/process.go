package flow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ShayCichocki/skillflow/internal/intent"
	"github.com/ShayCichocki/skillflow/internal/registry"
	"github.com/ShayCichocki/skillflow/internal/security"
	"github.com/ShayCichocki/skillflow/internal/state"
	"github.com/ShayCichocki/skillflow/pkg/models"
)

// NoMatchWarning is recorded when the search finds nothing.
const NoMatchWarning = "no existing skills matched"

// Process runs the pipeline with a derived flow name.
func (f *Flow) Process(ctx context.Context, request string) (*Result, error) {
	return f.ProcessNamed(ctx, request, "")
}

// ProcessNamed runs the pipeline, naming the composed flow name.
func (f *Flow) ProcessNamed(ctx context.Context, request, name string) (*Result, error) {
	res := &Result{
		RunID:     f.newID(),
		Request:   request,
		StartedAt: f.now(),
	}
	logger := f.logger.With(zap.String("run_id", res.RunID))

	err := f.run(ctx, res, name, logger)

	res.FinishedAt = f.now()
	if err != nil {
		res.Success = false
		res.Errors = append(res.Errors, err.Error())
		f.reporter.Error(err.Error())
	}
	f.finish(ctx, res, logger)
	return res, err
}

// run executes the stages in order. A returned error is unrecoverable;
// a security abort only marks res as failed.
func (f *Flow) run(ctx context.Context, res *Result, name string, logger *zap.Logger) error {
	// Parse
	start := time.Now()
	parsed := f.parser.Parse(res.Request)
	res.Intent = parsed
	res.Refinements = intent.SuggestRefinements(parsed)
	f.reporter.StageStarted(StageParse, fmt.Sprintf("capabilities %s, confidence %.2f",
		strings.Join(parsed.Capabilities, ", "), parsed.Confidence))
	f.metrics.ObserveStage(string(StageParse), time.Since(start))

	// Search
	start = time.Now()
	candidates := f.registry.Find(registry.Query{
		Capabilities:  parsed.Capabilities,
		Tags:          parsed.Tags,
		MinReuseScore: f.minReuseScore,
	})
	for _, c := range candidates {
		res.Candidates = append(res.Candidates, c.Name)
	}
	f.reporter.StageStarted(StageSearch, fmt.Sprintf("%d candidate(s)", len(candidates)))
	if len(candidates) == 0 {
		f.warn(res, NoMatchWarning)
	}
	f.metrics.ObserveStage(string(StageSearch), time.Since(start))

	// Scan
	start = time.Now()
	f.reporter.StageStarted(StageScan, fmt.Sprintf("security level %s", f.level))
	accepted, aborted := f.scan(ctx, res, candidates, logger)
	f.metrics.ObserveStage(string(StageScan), time.Since(start))
	if err := f.applySecurityStatuses(res); err != nil {
		res.FailedAt = StageScan
		return err
	}
	if aborted {
		res.FailedAt = StageScan
		return nil
	}

	// Compose
	start = time.Now()
	f.reporter.StageStarted(StageCompose, fmt.Sprintf("%d component(s)", len(accepted)))
	skill, err := f.composer.Compose(accepted, parsed, name)
	f.metrics.ObserveStage(string(StageCompose), time.Since(start))
	if err != nil {
		res.FailedAt = StageCompose
		return fmt.Errorf("compose flow: %w", err)
	}
	res.Skill = skill
	res.OutputPath = skill.OutputPath

	// Register
	if !f.autoRegister {
		f.reporter.StageStarted(StageRegister, "skipped (auto_update_registry is off)")
		res.Success = true
		return nil
	}
	start = time.Now()
	f.reporter.StageStarted(StageRegister, skill.Name)
	registered, err := f.registry.Register(skill.Metadata(f.author, f.version))
	if err != nil {
		res.FailedAt = StageRegister
		return fmt.Errorf("register flow: %w", err)
	}
	res.Registered = registered
	for _, c := range accepted {
		if err := f.registry.IncrementUsage(c.Name); err != nil {
			res.FailedAt = StageRegister
			return fmt.Errorf("increment usage of %s: %w", c.Name, err)
		}
	}
	f.metrics.ObserveStage(string(StageRegister), time.Since(start))

	res.Success = true
	return nil
}

// scan judges candidates one at a time. It stops at the first CRITICAL.
func (f *Flow) scan(ctx context.Context, res *Result, candidates []*models.SkillMetadata, logger *zap.Logger) ([]*models.SkillMetadata, bool) {
	var accepted []*models.SkillMetadata
	for _, c := range candidates {
		scanResult, err := f.gate.Scan(ctx, c.Path)
		d := security.Decide(f.level, scanResult, err)
		cd := CandidateDecision{
			Name:    c.Name,
			Path:    c.Path,
			Verdict: d.Verdict,
			Risk:    d.Risk,
			Detail:  scanResult.Summary(),
			Err:     err,
		}
		res.Decisions = append(res.Decisions, cd)
		f.metrics.RecordCandidate(d.Verdict.String())
		logger.Debug("candidate scanned",
			zap.String("name", c.Name),
			zap.String("risk", string(d.Risk)),
			zap.Stringer("verdict", d.Verdict),
			zap.Error(err))

		switch d.Verdict {
		case security.Abort:
			msg := fmt.Sprintf("%s: CRITICAL security risk", c.Name)
			if cd.Detail != "" {
				msg += ": " + cd.Detail
			}
			res.Errors = append(res.Errors, msg)
			f.reporter.Error(msg)
			return nil, true
		case security.Exclude:
			f.warn(res, fmt.Sprintf("%s excluded: %s", c.Name, describeHigh(cd)))
		case security.Warn:
			f.warn(res, fmt.Sprintf("%s: %s", c.Name, describeHigh(cd)))
			accepted = append(accepted, c)
		default:
			accepted = append(accepted, c)
		}
	}
	return accepted, false
}

// applySecurityStatuses records scan outcomes in the registry. Scans that
// errored are not outcomes and leave the status untouched.
func (f *Flow) applySecurityStatuses(res *Result) error {
	if !f.autoRegister {
		return nil
	}
	for _, d := range res.Decisions {
		if d.Err != nil {
			continue
		}
		at := f.now()
		if err := f.registry.UpdateSecurityStatus(d.Name, d.Risk.Status(), &at); err != nil {
			return fmt.Errorf("update security status of %s: %w", d.Name, err)
		}
	}
	return nil
}

func describeHigh(d CandidateDecision) string {
	if d.Err != nil {
		return fmt.Sprintf("security scan failed, treated as HIGH risk: %v", d.Err)
	}
	if d.Detail != "" {
		return "HIGH security risk: " + d.Detail
	}
	return "HIGH security risk"
}

func (f *Flow) warn(res *Result, msg string) {
	res.Warnings = append(res.Warnings, msg)
	f.reporter.Warning(msg)
}

// finish records the run and reports the outcome.
func (f *Flow) finish(ctx context.Context, res *Result, logger *zap.Logger) {
	f.metrics.RecordRun(res.Success)
	f.metrics.SetRegistrySize(f.registry.Len())

	if f.recorder != nil {
		run := &state.Run{
			ID:         res.RunID,
			Request:    res.Request,
			Success:    res.Success,
			OutputPath: res.OutputPath,
			Candidates: res.Candidates,
			Warnings:   res.Warnings,
			Errors:     res.Errors,
			StartedAt:  res.StartedAt,
			FinishedAt: res.FinishedAt,
		}
		if res.Intent != nil {
			run.Confidence = res.Intent.Confidence
		}
		if res.Skill != nil {
			run.SkillName = res.Skill.Name
			run.Components = res.Skill.Components
		}
		if err := f.recorder.RecordRun(context.WithoutCancel(ctx), run); err != nil {
			logger.Warn("failed to record run", zap.Error(err))
		}
	}

	logger.Info("run finished",
		zap.Bool("success", res.Success),
		zap.Int("candidates", len(res.Candidates)),
		zap.Int("warnings", len(res.Warnings)),
		zap.Int("errors", len(res.Errors)),
		zap.Duration("duration", res.FinishedAt.Sub(res.StartedAt)))
	f.reporter.Finished(res)
}
