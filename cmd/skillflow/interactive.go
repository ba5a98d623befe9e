package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ShayCichocki/skillflow/internal/flow"
	"github.com/ShayCichocki/skillflow/internal/tui"
	"github.com/ShayCichocki/skillflow/internal/version"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Type requests at a prompt",
	Long: `Launch an interactive prompt. Each request is processed through the pipeline
and its result printed below the prompt. Press Esc or Ctrl+C to quit.

Logs go to log.file when set and are discarded otherwise.`,
	Args: cobra.NoArgs,
	RunE: runInteractive,
}

func runInteractive(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(true)
	if err != nil {
		return err
	}
	defer e.Close()

	f, err := e.flow(flow.NopReporter{})
	if err != nil {
		return err
	}

	app := tui.NewPromptApp(func(ctx context.Context, request string) (*flow.Result, error) {
		res, err := f.Process(ctx, request)
		if flushErr := e.metrics.WriteTextfile(e.cfg.Metrics.Textfile); flushErr != nil {
			e.logger.Warn("failed to write metrics", zap.Error(flushErr))
		}
		return res, err
	}, version.Get())

	_, err = tea.NewProgram(app, tea.WithContext(cmd.Context())).Run()
	return err
}
