package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/skillflow/internal/flow"
	"github.com/ShayCichocki/skillflow/internal/registry"
	"github.com/ShayCichocki/skillflow/internal/state"
	"github.com/ShayCichocki/skillflow/pkg/models"
)

func TestInputField_Enter(t *testing.T) {
	field := NewInputField()

	if _, cmd := field.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		if _, ok := cmd().(RequestSubmittedMsg); ok {
			t.Error("empty input should not submit")
		}
	}

	field.input.SetValue("  scrape prices to csv  ")
	_, cmd := field.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected command from enter with text")
	}
	msg, ok := cmd().(RequestSubmittedMsg)
	if !ok {
		t.Fatalf("expected RequestSubmittedMsg, got %T", cmd())
	}
	if msg.Request != "scrape prices to csv" {
		t.Errorf("Request = %q", msg.Request)
	}
	if field.Value() != "" {
		t.Errorf("input not cleared: %q", field.Value())
	}
}

func TestInputField_SetWidth(t *testing.T) {
	field := NewInputField()
	field.SetWidth(120)
	if field.input.Width != 116 {
		t.Errorf("input width = %d, want 116", field.input.Width)
	}
}

func TestSkillTable(t *testing.T) {
	if got := SkillTable(nil); !strings.Contains(got, "No skills registered") {
		t.Errorf("empty table = %q", got)
	}

	skills := []*models.SkillMetadata{
		{Name: "scraper", ReuseScore: 7.5, UsageCount: 3, SecurityStatus: models.SecurityPassed, Capabilities: []string{"web", "data"}, UpdatedAt: time.Now()},
		{Name: "csv_writer", ReuseScore: 4, SecurityStatus: models.SecurityUnscanned, UpdatedAt: time.Now()},
	}
	out := SkillTable(skills)
	for _, want := range []string{"NAME", "scraper", "csv_writer", "7.5", "passed", "web, data"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "scraper") > strings.Index(out, "csv_writer") {
		t.Error("rows out of order")
	}
}

func TestSkillInfo(t *testing.T) {
	out := SkillInfo(&models.SkillMetadata{
		Name:           "scraper",
		Description:    "Fetches pages",
		Path:           "/skills/scraper",
		SecurityStatus: models.SecurityWarning,
	})
	for _, want := range []string{"scraper", "Fetches pages", "/skills/scraper", "warning", "never"} {
		if !strings.Contains(out, want) {
			t.Errorf("info missing %q:\n%s", want, out)
		}
	}
}

func TestRunTable(t *testing.T) {
	if got := RunTable(nil); !strings.Contains(got, "No runs recorded") {
		t.Errorf("empty table = %q", got)
	}
	out := RunTable([]*state.Run{
		{ID: "0123456789abcdef", Request: "build a web scraper", Success: true, SkillName: "flow_build", StartedAt: time.Now()},
		{ID: "short", Request: "bad", Errors: []string{"boom"}, StartedAt: time.Now()},
	})
	for _, want := range []string{"01234567", "flow_build", "ok", "failed", "build a web scraper"} {
		if !strings.Contains(out, want) {
			t.Errorf("run table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "0123456789abcdef") {
		t.Error("run id not shortened")
	}
}

func TestStatsView(t *testing.T) {
	out := StatsView(registry.Stats{
		Total:        2,
		AverageScore: 5.25,
		ByCapability: map[string]int{"web": 2, "data": 1},
		ByStatus:     map[models.SecurityStatus]int{models.SecurityPassed: 2},
	})
	for _, want := range []string{"Skills", "5.2", "CAPABILITY", "web", "data"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats missing %q:\n%s", want, out)
		}
	}
}

func TestResultView(t *testing.T) {
	ok := ResultView(&flow.Result{
		Request:  "scrape prices",
		Success:  true,
		Skill:    &models.ComposedSkill{Name: "flow_scrape", Components: []string{"scraper"}},
		Warnings: []string{"no existing skills matched"},
	})
	for _, want := range []string{"Flow created", "flow_scrape", "scraper", "no existing skills matched"} {
		if !strings.Contains(ok, want) {
			t.Errorf("result missing %q:\n%s", want, ok)
		}
	}

	failed := ResultView(&flow.Result{
		Request:  "x",
		FailedAt: flow.StageScan,
		Errors:   []string{"evil: CRITICAL security risk"},
	})
	if !strings.Contains(failed, "failed at scan") || !strings.Contains(failed, "CRITICAL") {
		t.Errorf("failed result:\n%s", failed)
	}
}

func TestPromptApp_SubmitAndResult(t *testing.T) {
	var got string
	app := NewPromptApp(func(ctx context.Context, request string) (*flow.Result, error) {
		got = request
		return &flow.Result{Request: request, Success: true}, nil
	}, "v0.1.0")

	_, cmd := app.Update(RequestSubmittedMsg{Request: "parse logs"})
	if !app.Running() {
		t.Fatal("expected running after submit")
	}
	if cmd == nil {
		t.Fatal("expected command after submit")
	}

	// A second submit while running is ignored.
	if _, cmd := app.Update(RequestSubmittedMsg{Request: "other"}); cmd != nil {
		t.Error("expected no command while running")
	}

	res, err := app.submit(app.ctx, "parse logs")
	app.Update(resultMsg{request: "parse logs", result: res, err: err})
	if got != "parse logs" {
		t.Errorf("submit called with %q", got)
	}
	if app.Running() {
		t.Error("still running after result")
	}
	if len(app.History()) != 1 || !strings.Contains(app.History()[0], "Flow created") {
		t.Errorf("History() = %v", app.History())
	}
	if !strings.Contains(app.View(), "parse logs") {
		t.Error("view missing request")
	}
}

func TestPromptApp_Error(t *testing.T) {
	app := NewPromptApp(nil, "dev")
	app.Update(resultMsg{request: "x", err: errors.New("registry locked")})
	if len(app.History()) != 1 || !strings.Contains(app.History()[0], "registry locked") {
		t.Errorf("History() = %v", app.History())
	}
}

func TestPromptApp_HistoryBounded(t *testing.T) {
	app := NewPromptApp(nil, "dev")
	for i := 0; i < maxHistory+5; i++ {
		app.Update(resultMsg{request: "r", result: &flow.Result{}})
	}
	if len(app.History()) != maxHistory {
		t.Errorf("len(History()) = %d, want %d", len(app.History()), maxHistory)
	}
}

func TestPromptApp_Quit(t *testing.T) {
	app := NewPromptApp(nil, "dev")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected QuitMsg, got %T", cmd())
	}
	if app.ctx.Err() == nil {
		t.Error("context not cancelled on quit")
	}
	if app.View() != "" {
		t.Error("view should be empty after quit")
	}
}
