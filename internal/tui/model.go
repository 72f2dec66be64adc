// Package tui is the interactive chore list. Every server call runs as a
// tea.Cmd through the controller, and View is rebuilt from the controller's
// snapshot after each result.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/chores/internal/controller"
	"github.com/Makepad-fr/chores/internal/model"
	"github.com/Makepad-fr/chores/internal/page"
)

type (
	initializedMsg struct{ err error }
	submittedMsg   struct{ err error }
	toggledMsg     struct{ err error }
	deletedMsg     struct{ err error }
	refreshedMsg   struct{ err error }
)

// Model is the bubbletea model of the chore list.
type Model struct {
	ctx  context.Context
	ctrl *controller.Controller

	state  controller.State
	ready  bool
	fatal  error
	inputs []textinput.Model
	// focus indexes inputs; len(inputs) means the list has focus.
	focus  int
	cursor int

	pending int
	spinner spinner.Model
	keys    keyMap
	help    help.Model
	width   int
}

func New(ctx context.Context, ctrl *controller.Controller) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle
	return Model{
		ctx:     ctx,
		ctrl:    ctrl,
		spinner: sp,
		keys:    defaultKeys,
		help:    help.New(),
		pending: 1,
	}
}

func (m Model) Init() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return initializedMsg{err: ctrl.Initialize(ctx)}
	})
}

func newInputs(v page.Variant) []textinput.Model {
	title := textinput.New()
	title.Prompt = "> "
	title.Placeholder = "New chore..."
	title.CharLimit = 200
	if v != page.Extended {
		return []textinput.Model{title}
	}
	date := textinput.New()
	date.Prompt = "date "
	date.Placeholder = "YYYY-MM-DD"
	date.CharLimit = 10
	tm := textinput.New()
	tm.Prompt = "time "
	tm.Placeholder = "HH:MM"
	tm.CharLimit = 5
	return []textinput.Model{title, date, tm}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case initializedMsg:
		m.pending--
		if msg.err != nil {
			m.fatal = msg.err
			return m, tea.Quit
		}
		m.ready = true
		m.sync()
		m.inputs = newInputs(m.state.Variant)
		m.setFocus(0)
		return m, nil

	case submittedMsg:
		m.pending--
		m.sync()
		if msg.err == nil {
			for i := range m.inputs {
				m.inputs[i].Reset()
			}
			m.cursor = 0
		}
		return m, nil

	case toggledMsg:
		m.pending--
		m.sync()
		return m, nil

	case deletedMsg:
		m.pending--
		m.sync()
		return m, nil

	case refreshedMsg:
		m.pending--
		m.sync()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if !m.ready {
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}
	if key.Matches(msg, m.keys.Focus) {
		n := len(m.inputs) + 1
		if msg.String() == "shift+tab" {
			m.setFocus((m.focus + n - 1) % n)
		} else {
			m.setFocus((m.focus + 1) % n)
		}
		return m, nil
	}

	if m.focus < len(m.inputs) {
		if key.Matches(msg, m.keys.Submit) {
			return m.start(m.submitCmd(m.input()))
		}
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.state.Tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle), key.Matches(msg, m.keys.Submit):
		if t, ok := m.selected(); ok {
			return m.start(m.toggleCmd(t.ID))
		}
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok {
			return m.start(m.deleteCmd(t.ID))
		}
	case key.Matches(msg, m.keys.Refresh):
		return m.start(m.refreshCmd())
	}
	return m, nil
}

// start counts cmd as in flight and wakes the spinner if it was idle.
func (m Model) start(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.pending++
	if m.pending == 1 {
		return m, tea.Batch(cmd, m.spinner.Tick)
	}
	return m, cmd
}

func (m *Model) sync() {
	m.state = m.ctrl.Snapshot()
	if m.cursor >= len(m.state.Tasks) {
		m.cursor = len(m.state.Tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setFocus(i int) {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

func (m Model) input() controller.Input {
	in := controller.Input{Title: m.inputs[0].Value()}
	if len(m.inputs) == 3 {
		in.Date = m.inputs[1].Value()
		in.Time = m.inputs[2].Value()
	}
	return in
}

func (m Model) selected() (model.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Tasks) {
		return model.Task{}, false
	}
	return m.state.Tasks[m.cursor], true
}

func (m Model) submitCmd(in controller.Input) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		_, err := ctrl.Submit(ctx, in)
		return submittedMsg{err: err}
	}
}

func (m Model) toggleCmd(id model.TaskID) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		_, err := ctrl.Toggle(ctx, id)
		return toggledMsg{err: err}
	}
}

func (m Model) deleteCmd(id model.TaskID) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return deletedMsg{err: ctrl.Delete(ctx, id)}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return refreshedMsg{err: ctrl.Refresh(ctx)}
	}
}

// Err is the startup error that ended the program, if any.
func (m Model) Err() error { return m.fatal }

func (m Model) View() string {
	if m.fatal != nil {
		return errorStyle.Render("✖ "+m.fatal.Error()) + "\n"
	}
	if !m.ready {
		return m.spinner.View() + " loading chores...\n"
	}

	done, pending := m.state.Stats()
	header := fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Chores"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
		accentStyle.Render("Total"), len(m.state.Tasks),
	)
	if m.pending > 0 {
		header += "  " + m.spinner.View()
	}

	var b strings.Builder
	b.WriteString(header + "\n\n")
	for _, in := range m.inputs {
		b.WriteString(in.View() + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.listView())
	b.WriteString("\n" + helpStyle.Render(m.help.View(m.keys)))
	return panelStyle.Render(b.String()) + "\n"
}

func (m Model) listView() string {
	if m.state.Empty() {
		return mutedStyle.Render(page.EmptyText) + "\n"
	}
	listFocused := m.focus >= len(m.inputs)
	var b strings.Builder
	for i, t := range m.state.Tasks {
		box, text := mutedStyle.Render(boxUnchecked), t.Title
		if t.Completed {
			box, text = successStyle.Render(boxChecked), doneStyle.Render(t.Title)
		}
		prefix := "  "
		if listFocused && i == m.cursor {
			prefix = selectedStyle.Render(">") + " "
		}
		fmt.Fprintf(&b, "%s%s %s\n", prefix, box, text)
	}
	return b.String()
}
