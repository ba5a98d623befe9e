package flow

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Reporter receives human-facing progress for a run.
type Reporter interface {
	StageStarted(stage Stage, detail string)
	Warning(msg string)
	Error(msg string)
	Finished(res *Result)
}

// NopReporter discards everything.
type NopReporter struct{}

func (NopReporter) StageStarted(Stage, string) {}
func (NopReporter) Warning(string)             {}
func (NopReporter) Error(string)               {}
func (NopReporter) Finished(*Result)           {}

// ConsoleReporter prints colored progress lines.
type ConsoleReporter struct {
	w io.Writer
}

// NewConsoleReporter writes to w.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

var stageLabels = map[Stage]string{
	StageParse:    "Parsing request",
	StageSearch:   "Searching registry",
	StageScan:     "Scanning candidates",
	StageCompose:  "Composing flow",
	StageRegister: "Registering flow",
}

func (r *ConsoleReporter) StageStarted(stage Stage, detail string) {
	idx := 0
	for i, s := range Stages {
		if s == stage {
			idx = i + 1
		}
	}
	prefix := color.CyanString("[%d/%d]", idx, len(Stages))
	if detail == "" {
		fmt.Fprintf(r.w, "%s %s\n", prefix, stageLabels[stage])
		return
	}
	fmt.Fprintf(r.w, "%s %s: %s\n", prefix, stageLabels[stage], detail)
}

func (r *ConsoleReporter) Warning(msg string) {
	fmt.Fprintf(r.w, "  %s %s\n", color.YellowString("⚠"), msg)
}

func (r *ConsoleReporter) Error(msg string) {
	fmt.Fprintf(r.w, "  %s %s\n", color.RedString("✗"), msg)
}

func (r *ConsoleReporter) Finished(res *Result) {
	if res.Success {
		fmt.Fprintf(r.w, "\n%s Flow created: %s\n", color.GreenString("✓"), res.OutputPath)
		return
	}
	fmt.Fprintf(r.w, "\n%s Run failed at %s with %d error(s)\n", color.RedString("✗"), res.FailedAt, len(res.Errors))
}
