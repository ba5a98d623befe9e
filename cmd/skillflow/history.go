package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/skillflow/internal/state"
	"github.com/ShayCichocki/skillflow/internal/tui"
)

var (
	historyLimit      int
	historyPurgeAfter time.Duration
	historyClearCache bool
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show past runs",
	Long: `Show recorded runs, newest first, or the details of one run.

Examples:
  skillflow history
  skillflow history --limit 50
  skillflow history 3f2a9c1e-...
  skillflow history --purge 720h       # drop runs older than 30 days
  skillflow history --clear-scan-cache`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to show (0 for all)")
	historyCmd.Flags().DurationVar(&historyPurgeAfter, "purge", 0, "Delete runs older than this age")
	historyCmd.Flags().BoolVar(&historyClearCache, "clear-scan-cache", false, "Delete every cached security scan")
}

func runHistory(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.openState(); err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if historyPurgeAfter > 0 {
		n, err := e.db.PurgeRuns(ctx, time.Now().Add(-historyPurgeAfter))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s Purged %d run(s)\n", color.GreenString("✓"), n)
	}
	if historyClearCache {
		n, err := e.db.ClearScanCache(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s Cleared %d cached scan(s)\n", color.GreenString("✓"), n)
	}
	if historyPurgeAfter > 0 || historyClearCache {
		return nil
	}

	if len(args) == 1 {
		run, err := e.db.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		printRun(cmd, run)
		return nil
	}

	runs, err := e.db.ListRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tui.RunTable(runs))
	return nil
}

func printRun(cmd *cobra.Command, run *state.Run) {
	out := cmd.OutOrStdout()
	result := color.GreenString("ok")
	if !run.Success {
		result = color.RedString("failed")
	}
	fmt.Fprintf(out, "Run:        %s\n", run.ID)
	fmt.Fprintf(out, "Request:    %s\n", run.Request)
	fmt.Fprintf(out, "Result:     %s\n", result)
	fmt.Fprintf(out, "Started:    %s (%s)\n", run.StartedAt.Local().Format(time.RFC3339), run.Duration().Round(time.Millisecond))
	fmt.Fprintf(out, "Confidence: %.2f\n", run.Confidence)
	fmt.Fprintf(out, "Candidates: %s\n", strings.Join(run.Candidates, ", "))
	if run.SkillName != "" {
		fmt.Fprintf(out, "Skill:      %s\n", run.SkillName)
		fmt.Fprintf(out, "Components: %s\n", strings.Join(run.Components, ", "))
		fmt.Fprintf(out, "Output:     %s\n", run.OutputPath)
	}
	for _, w := range run.Warnings {
		fmt.Fprintf(out, "  %s %s\n", color.YellowString("⚠"), w)
	}
	for _, e := range run.Errors {
		fmt.Fprintf(out, "  %s %s\n", color.RedString("✗"), e)
	}
}
