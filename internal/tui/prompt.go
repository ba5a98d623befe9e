package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/skillflow/internal/flow"
)

// SubmitFunc runs one request through the pipeline.
type SubmitFunc func(ctx context.Context, request string) (*flow.Result, error)

// resultMsg carries a finished run back to the model.
type resultMsg struct {
	request string
	result  *flow.Result
	err     error
}

// maxHistory bounds the rendered results kept on screen.
const maxHistory = 20

// PromptApp is the interactive request prompt.
type PromptApp struct {
	header  *Header
	input   *InputField
	spinner spinner.Model
	submit  SubmitFunc
	ctx     context.Context
	cancel  context.CancelFunc

	history  []string
	running  string
	width    int
	quitting bool
}

// NewPromptApp creates a PromptApp that sends each request to submit.
func NewPromptApp(submit SubmitFunc, version string) *PromptApp {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle

	ctx, cancel := context.WithCancel(context.Background())
	return &PromptApp{
		header:  NewHeader(version),
		input:   NewInputField(),
		spinner: sp,
		submit:  submit,
		ctx:     ctx,
		cancel:  cancel,
		width:   80,
	}
}

// Running reports whether a request is in flight.
func (a *PromptApp) Running() bool {
	return a.running != ""
}

// History returns the rendered results, oldest first.
func (a *PromptApp) History() []string {
	return a.history
}

// Init implements tea.Model.
func (a *PromptApp) Init() tea.Cmd {
	return a.input.Focus()
}

// Update implements tea.Model.
func (a *PromptApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			a.quitting = true
			a.cancel()
			return a, tea.Quit
		}
		if a.Running() {
			return a, nil
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.header.SetWidth(msg.Width)
		a.input.SetWidth(msg.Width)
		return a, nil

	case RequestSubmittedMsg:
		if a.Running() {
			return a, nil
		}
		a.running = msg.Request
		a.input.Blur()
		return a, tea.Batch(a.spinner.Tick, a.run(msg.Request))

	case resultMsg:
		a.running = ""
		a.appendHistory(renderOutcome(msg))
		return a, a.input.Focus()

	case spinner.TickMsg:
		if !a.Running() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *PromptApp) run(request string) tea.Cmd {
	ctx := a.ctx
	submit := a.submit
	return func() tea.Msg {
		res, err := submit(ctx, request)
		return resultMsg{request: request, result: res, err: err}
	}
}

func (a *PromptApp) appendHistory(s string) {
	a.history = append(a.history, s)
	if len(a.history) > maxHistory {
		a.history = a.history[len(a.history)-maxHistory:]
	}
}

func renderOutcome(msg resultMsg) string {
	var parts []string
	parts = append(parts, labelStyle.Render("› ")+valueStyle.Render(msg.request))
	if msg.result != nil {
		parts = append(parts, ResultView(msg.result))
	} else if msg.err != nil {
		parts = append(parts, errorStyle.Render("✗ "+msg.err.Error()))
	}
	return strings.Join(parts, "\n")
}

// View implements tea.Model.
func (a *PromptApp) View() string {
	if a.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(a.header.View())
	b.WriteString("\n\n")
	for _, h := range a.history {
		b.WriteString(h)
		b.WriteString("\n\n")
	}
	if a.Running() {
		b.WriteString(fmt.Sprintf("%s Processing %q...", a.spinner.View(), a.running))
	} else {
		b.WriteString(a.input.View())
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("enter submit • esc quit"))
	return b.String()
}
