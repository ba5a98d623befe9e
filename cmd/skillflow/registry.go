package main

import (
	"fmt"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/skillflow/internal/intent"
	"github.com/ShayCichocki/skillflow/internal/registry"
	"github.com/ShayCichocki/skillflow/internal/tui"
)

var (
	listCapabilities []string
	listTags         []string
	listMinScore     float64
	watchDebounce    time.Duration
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered skills",
	Long: `List registered skills, best reuse score first.

Examples:
  skillflow list
  skillflow list --capability web --capability data
  skillflow list --tag scraping --min-score 5`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var infoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show one skill",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var removeCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a skill from the registry",
	Long: `Remove a skill from the registry. The component on disk is left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

var scanCmd = &cobra.Command{
	Use:   "scan [directory]",
	Short: "Register every component in a directory",
	Long: `Register every component found directly under a directory.

A component is a sub-directory or a single file. Metadata comes from skill.yaml
(or <file>.skill.yaml) when present, otherwise it is inferred from the name and
leading comment. The directory defaults to skills_directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Keep the registry in sync with a directory",
	Long: `Scan a directory, then re-register components as they are created or changed
and remove them when they are deleted. Stops on Ctrl+C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show registry statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	listCmd.Flags().StringSliceVar(&listCapabilities, "capability", nil, "Only skills providing every capability")
	listCmd.Flags().StringSliceVar(&listTags, "tag", nil, "Narrow capability matches by tag")
	listCmd.Flags().Float64Var(&listMinScore, "min-score", 0, "Minimum reuse score")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", registry.DefaultDebounce, "Quiet period before a changed component is re-registered")
}

func runList(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	skills := e.registry.ListAll()
	if len(listCapabilities) > 0 || len(listTags) > 0 || listMinScore > 0 {
		skills = e.registry.Find(registry.Query{
			Capabilities:  listCapabilities,
			Tags:          listTags,
			MinReuseScore: listMinScore,
		})
	} else {
		sort.SliceStable(skills, func(i, j int) bool {
			return skills[i].ReuseScore > skills[j].ReuseScore
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), tui.SkillTable(skills))
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	meta := e.registry.Get(args[0])
	if meta == nil {
		return fmt.Errorf("%w: %s", registry.ErrNotFound, args[0])
	}
	fmt.Fprintln(cmd.OutOrStdout(), tui.SkillInfo(meta))
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	removed, err := e.registry.Remove(args[0])
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s", registry.ErrNotFound, args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Removed %s\n", color.GreenString("✓"), args[0])
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	dir := e.cfg.SkillsDirectory
	if len(args) > 0 {
		dir = args[0]
	}
	report, err := e.registry.ScanDirectory(dir, intent.NewParser())
	if report != nil {
		printScanReport(cmd, report)
	}
	if err != nil {
		return err
	}
	e.metrics.SetRegistrySize(e.registry.Len())
	return nil
}

func printScanReport(cmd *cobra.Command, report *registry.ScanReport) {
	out := cmd.OutOrStdout()
	for _, name := range report.Registered {
		fmt.Fprintf(out, "%s %s\n", color.GreenString("✓"), name)
	}
	skipped := make([]string, 0, len(report.Skipped))
	for name := range report.Skipped {
		skipped = append(skipped, name)
	}
	sort.Strings(skipped)
	for _, name := range skipped {
		fmt.Fprintf(out, "%s %s: %s\n", color.YellowString("⚠"), name, report.Skipped[name])
	}
	fmt.Fprintf(out, "\nRegistered %d, skipped %d\n", len(report.Registered), len(report.Skipped))
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	dir := e.cfg.SkillsDirectory
	if len(args) > 0 {
		dir = args[0]
	}
	parser := intent.NewParser()
	report, err := e.registry.ScanDirectory(dir, parser)
	if err != nil {
		return err
	}
	printScanReport(cmd, report)

	w, err := registry.NewWatcher(e.registry, dir, parser, watchDebounce)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nWatching %s (Ctrl+C to stop)\n", dir)
	for ev := range w.Events() {
		switch {
		case ev.Err != nil:
			fmt.Fprintf(out, "%s %s: %v\n", color.RedString("✗"), ev.Path, ev.Err)
		case ev.Removed:
			fmt.Fprintf(out, "%s removed %s\n", color.YellowString("-"), ev.Name)
		default:
			fmt.Fprintf(out, "%s registered %s\n", color.GreenString("+"), ev.Name)
		}
	}
	if err := <-done; err != nil {
		return err
	}
	e.metrics.SetRegistrySize(e.registry.Len())
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	fmt.Fprintln(cmd.OutOrStdout(), tui.StatsView(e.registry.Stats()))
	return nil
}
