package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/structlayout/schema"
	"github.com/wippyai/structlayout/structs"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// plainStyles drops colors and decorations for non-terminal output.
func plainStyles() {
	plain := lipgloss.NewStyle()
	titleStyle = plain
	nameStyle = plain
	typeStyle = plain
	headerStyle = plain
	selectedStyle = plain
	valueStyle = plain
	errorStyle = plain
	helpStyle = plain
}

type modelState int

const (
	stateSelectStruct modelState = iota
	stateShowStruct
)

type interactiveModel struct {
	err      error
	set      *schema.Set
	inst     *structs.Instance
	closeFn  func()
	opts     options
	names    []string
	input    textinput.Model
	selected int
	state    modelState
}

type loadedMsg struct {
	err     error
	set     *schema.Set
	closeFn func()
}

func newInteractiveModel(opts options) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "field=value,..."
	ti.Prompt = "set: "
	ti.Width = 40
	return &interactiveModel{opts: opts, input: ti, state: stateSelectStruct}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	set, closeFn, err := loadSet(context.Background(), m.opts)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{set: set, closeFn: closeFn}
}

func (m *interactiveModel) current() *structs.Type {
	st, _ := m.set.Type(m.names[m.selected])
	return st
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m.quit()

		case "q":
			if m.state == stateSelectStruct {
				return m.quit()
			}

		case "up", "k":
			if m.state == stateSelectStruct && m.selected > 0 {
				m.selected--
				return m, nil
			}

		case "down", "j":
			if m.state == stateSelectStruct && m.selected < len(m.names)-1 {
				m.selected++
				return m, nil
			}

		case "enter":
			switch m.state {
			case stateSelectStruct:
				if len(m.names) == 0 {
					return m, nil
				}
				m.openStruct()
				return m, nil
			case stateShowStruct:
				m.applyInput()
				return m, nil
			}

		case "esc":
			if m.state == stateShowStruct {
				m.state = stateSelectStruct
				m.inst = nil
				m.err = nil
				m.input.Blur()
				return m, nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.set = msg.set
		m.closeFn = msg.closeFn
		m.names = msg.set.Names()
		if m.opts.structName != "" {
			for i, name := range m.names {
				if name == m.opts.structName {
					m.selected = i
				}
			}
		}
	}

	if m.state == stateShowStruct {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) quit() (tea.Model, tea.Cmd) {
	if m.closeFn != nil {
		m.closeFn()
	}
	return m, tea.Quit
}

func (m *interactiveModel) openStruct() {
	m.state = stateShowStruct
	m.err = nil
	m.inst, m.err = m.current().New()
	m.input.SetValue("")
	m.input.Focus()
}

func (m *interactiveModel) applyInput() {
	if m.inst == nil {
		return
	}
	values, err := parseAssignments(m.input.Value())
	if err != nil {
		m.err = err
		return
	}
	for name, v := range values {
		if err := m.inst.Set(name, v); err != nil {
			m.err = err
			return
		}
	}
	m.err = nil
	m.input.SetValue("")
}

func (m *interactiveModel) View() string {
	if m.set == nil {
		if m.err != nil {
			return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
		}
		return "Loading schema..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Struct Layout"))
	fmt.Fprintf(&b, " %s (%s)\n\n", m.opts.schemaFile, m.set.Model())

	switch m.state {
	case stateSelectStruct:
		b.WriteString("Select a struct:\n\n")
		for i, name := range m.names {
			st, _ := m.set.Type(name)
			line := fmt.Sprintf("%s  size %d, align %d", name, st.Size(), st.Align())
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter view • q quit"))

	case stateShowStruct:
		b.WriteString(layoutTable(m.current()))
		b.WriteString("\n\n")
		if m.inst != nil {
			b.WriteString(valueStyle.Render(m.inst.String()))
			b.WriteString("\n\n")
		}
		b.WriteString(m.input.View())
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter set fields • esc back • ctrl+c quit"))
	}
	return b.String()
}

func runInteractive(opts options) error {
	p := tea.NewProgram(newInteractiveModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
