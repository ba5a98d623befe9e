// Package tui renders skillflow's terminal output.
//
// The list, info, history and stats commands print static lipgloss views.
// The interactive command runs a bubbletea program where requests are typed,
// processed through the pipeline while a spinner runs, and their results
// appended to a scrollback.
//
// Usage:
//
//	app := tui.NewPromptApp(func(ctx context.Context, request string) (*flow.Result, error) {
//	    return f.Process(ctx, request)
//	}, version.Get())
//	_, err := tea.NewProgram(app).Run()
package tui
