package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/trigger-call/bridge"
	"github.com/wippyai/trigger-call/callexpr"
	"github.com/wippyai/trigger-call/host"
	"github.com/wippyai/trigger-call/value"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
	typeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	resultStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))
)

// historySize bounds the recent calls shown under the function list.
const historySize = 5

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

// interactiveModel lets the user pick an export, type one literal per
// parameter and see the rendered call.
type interactiveModel struct {
	ctx      context.Context
	err      error
	bridge   *bridge.Bridge
	id       string
	result   string
	funcs    []host.Export
	inputs   []textinput.Model
	history  []string
	selected int
	focusIdx int
	state    modelState
}

type callResultMsg struct {
	err    error
	result string
}

func newInteractiveModel(ctx context.Context, rt *host.Runtime, id string) (*interactiveModel, error) {
	exports, err := rt.Exports(id)
	if err != nil {
		return nil, err
	}
	return &interactiveModel{
		ctx:    ctx,
		bridge: bridge.New(rt),
		id:     id,
		funcs:  exports,
	}, nil
}

func runInteractive(ctx context.Context, rt *host.Runtime, id string) error {
	m, err := newInteractiveModel(ctx, rt, id)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case callResultMsg:
		m.finishCall(msg)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.state {
		case stateSelectFunc:
			return m.updateSelect(msg)
		case stateInputArgs:
			return m.updateInputs(msg)
		case stateShowResult:
			return m.updateResult(msg)
		}
	}

	if m.state == stateInputArgs {
		return m, m.forwardToInputs(msg)
	}
	return m, nil
}

func (m *interactiveModel) updateSelect(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		m.selected = max(m.selected-1, 0)
	case "down", "j":
		m.selected = min(m.selected+1, max(len(m.funcs)-1, 0))
	case "enter":
		if len(m.funcs) == 0 {
			return m, nil
		}
		m.prepareInputs()
		if len(m.inputs) == 0 {
			return m, m.callFunction
		}
		m.state = stateInputArgs
	}
	return m, nil
}

// updateInputs keeps q as a literal character; only esc leaves the form.
func (m *interactiveModel) updateInputs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m, m.callFunction
	case "esc":
		m.reset()
		return m, nil
	case "tab", "shift+tab":
		if len(m.inputs) > 1 {
			step := 1
			if msg.String() == "shift+tab" {
				step = len(m.inputs) - 1
			}
			m.focus((m.focusIdx + step) % len(m.inputs))
		}
		return m, nil
	}
	return m, m.forwardToInputs(msg)
}

func (m *interactiveModel) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "enter", "esc":
		m.reset()
	case "r":
		// edit the same call again
		m.state = stateInputArgs
		if len(m.inputs) == 0 {
			m.state = stateSelectFunc
		}
		m.result, m.err = "", nil
	}
	return m, nil
}

func (m *interactiveModel) forwardToInputs(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return tea.Batch(cmds...)
}

func (m *interactiveModel) focus(i int) {
	m.inputs[m.focusIdx].Blur()
	m.focusIdx = i
	m.inputs[i].Focus()
}

func (m *interactiveModel) finishCall(msg callResultMsg) {
	m.result, m.err = msg.result, msg.err
	m.state = stateShowResult
	if msg.err == nil {
		m.history = append(m.history, msg.result)
		if len(m.history) > historySize {
			m.history = m.history[len(m.history)-historySize:]
		}
	}
}

func (m *interactiveModel) reset() {
	m.state = stateSelectFunc
	m.inputs = nil
	m.result = ""
	m.err = nil
}

func (m *interactiveModel) prepareInputs() {
	params := m.funcs[m.selected].Type.Params
	m.inputs = make([]textinput.Model, len(params))
	for i, p := range params {
		in := textinput.New()
		in.Prompt = paramName(p, i) + ": "
		in.Placeholder = value.TypeString(p.Type)
		in.Width = 40
		m.inputs[i] = in
	}
	m.focusIdx = 0
	if len(m.inputs) > 0 {
		m.inputs[0].Focus()
	}
}

// callText joins the typed literals into a call expression.
func (m *interactiveModel) callText() string {
	args := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		args[i] = strings.TrimSpace(in.Value())
	}
	return m.funcs[m.selected].Name + "(" + strings.Join(args, ", ") + ")"
}

// checkInputs parses every field on its own, so a field holding "1, 2"
// cannot spill into the next parameter.
func (m *interactiveModel) checkInputs() error {
	params := m.funcs[m.selected].Type.Params
	for i, in := range m.inputs {
		if _, err := callexpr.ParseExpr(strings.TrimSpace(in.Value())); err != nil {
			return fmt.Errorf("%s: %w", paramName(params[i], i), err)
		}
	}
	return nil
}

func (m *interactiveModel) callFunction() tea.Msg {
	if err := m.checkInputs(); err != nil {
		return callResultMsg{err: err}
	}
	out, err := m.bridge.Call(m.ctx, m.id, m.callText())
	if err != nil {
		return callResultMsg{err: err}
	}
	return callResultMsg{result: out.Line}
}

func (m *interactiveModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("trigger-call") + " " + m.id + "\n\n")

	switch m.state {
	case stateSelectFunc:
		m.viewSelect(&b)
	case stateInputArgs:
		m.viewInputs(&b)
	case stateShowResult:
		m.viewResult(&b)
	}
	return b.String()
}

func (m *interactiveModel) viewSelect(b *strings.Builder) {
	if len(m.funcs) == 0 {
		b.WriteString("No exported functions.\n\n")
		b.WriteString(helpStyle.Render("q quit"))
		return
	}
	b.WriteString("Select a function to call:\n\n")
	for i, f := range m.funcs {
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> "+f.Name+": "+f.Type.String()) + "\n")
			continue
		}
		b.WriteString("  " + formatFunc(f) + "\n")
	}
	if len(m.history) > 0 {
		b.WriteString("\nRecent calls:\n")
		for _, line := range m.history {
			b.WriteString("  " + resultStyle.Render(line) + "\n")
		}
	}
	b.WriteString("\n" + helpStyle.Render("↑/↓ select • enter call • q quit"))
}

func (m *interactiveModel) viewInputs(b *strings.Builder) {
	f := m.funcs[m.selected]
	fmt.Fprintf(b, "Calling %s\n\n", funcStyle.Render(f.Name))
	for i, in := range m.inputs {
		b.WriteString(in.View() + " " + typeStyle.Render(value.TypeString(f.Type.Params[i].Type)) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render(m.callText()) + "\n\n")
	b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))
}

func (m *interactiveModel) viewResult(b *strings.Builder) {
	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	} else {
		b.WriteString(resultStyle.Render(m.result))
	}
	b.WriteString("\n\n" + helpStyle.Render("enter continue • r edit • q quit"))
}

func formatFunc(f host.Export) string {
	params := make([]string, len(f.Type.Params))
	for i, p := range f.Type.Params {
		params[i] = paramName(p, i) + ": " + typeStyle.Render(value.TypeString(p.Type))
	}
	var result string
	switch rs := f.Type.Results; len(rs) {
	case 0:
	case 1:
		result = " -> " + typeStyle.Render(value.TypeString(rs[0]))
	default:
		types := make([]string, len(rs))
		for i, t := range rs {
			types[i] = value.TypeString(t)
		}
		result = " -> " + typeStyle.Render("("+strings.Join(types, ", ")+")")
	}
	return funcStyle.Render(f.Name) + "(" + strings.Join(params, ", ") + ")" + result
}

func paramName(p value.ParamType, i int) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("arg%d", i)
}
