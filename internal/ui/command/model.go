package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/theme"
)

// CommandMsg is emitted when the user executes a command.
type CommandMsg string

// Known commands, matched case-insensitively.
const (
	CmdReload  = "reload"
	CmdMock    = "mock"
	CmdIngest  = "ingest"
	CmdPoll    = "poll"
	CmdPrompts = "prompts"
	CmdHelp    = "help"
	CmdQuit    = "quit"
)

var commands = []string{CmdReload, CmdMock, CmdIngest, CmdPoll, CmdPrompts, CmdHelp, CmdQuit}

// aliases maps alternative spellings onto known commands.
var aliases = map[string]string{
	"refresh":   CmdReload,
	"load mock": CmdMock,
	"sync":      CmdPoll,
	"settings":  CmdPrompts,
	"config":    CmdPrompts,
	"q":         CmdQuit,
}

// Normalize resolves aliases and returns the canonical command name, or
// the trimmed input when it is not a known command.
func Normalize(input string) string {
	cmd := strings.ToLower(strings.TrimSpace(input))
	if canonical, ok := aliases[cmd]; ok {
		return canonical
	}
	return cmd
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6
	ti.ShowSuggestions = true
	ti.SetSuggestions(commands)

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			cmd := Normalize(m.input.Value())
			m.input.Reset()
			if cmd != "" {
				return m, func() tea.Msg {
					return CommandMsg(cmd)
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command Palette")
	input := m.input.View()
	hint := theme.HelpStyle.Render(strings.Join(commands, " | "))

	content := lipgloss.JoinVertical(lipgloss.Left, title, input, hint)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
