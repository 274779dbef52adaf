package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/keys"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/llm"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/theme"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/triage"
)

// CloseMsg signals the parent to close the chat panel.
type CloseMsg struct{}

// ResponseMsg carries the assistant's answer to one question.
type ResponseMsg struct {
	Answer  string
	Session string
	Err     error
}

// displayMessage represents a message rendered in the conversation viewport.
type displayMessage struct {
	Role    model.ChatRole
	Content string
}

// Model is the chat panel: a conversation about a single email.
type Model struct {
	svc      *triage.Service
	input    textarea.Model
	viewport viewport.Model
	messages []displayMessage
	emailID  int64
	subject  string
	session  string
	waiting  bool
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new chat panel model.
func New(svc *triage.Service, k *keys.KeyMap, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about this email..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetWidth(width - 4)
	ta.SetHeight(3)
	ta.CharLimit = 2000
	ta.Focus()

	vpHeight := height - 8 // space for input area + borders
	if vpHeight < 4 {
		vpHeight = 4
	}

	vp := viewport.New(width-4, vpHeight)
	vp.Style = lipgloss.NewStyle()

	return Model{
		svc:      svc,
		input:    ta,
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the chat panel.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Open starts a fresh session about the given email.
func (m *Model) Open(emailID int64, subject string) tea.Cmd {
	m.emailID = emailID
	m.subject = subject
	m.session = triage.NewSession()
	m.messages = m.messages[:0]
	m.waiting = false
	m.input.Reset()
	m.refreshViewport()
	return m.input.Focus()
}

// Session returns the current session id.
func (m Model) Session() string {
	return m.session
}

// Update handles messages for the chat panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ResponseMsg:
		m.waiting = false
		if msg.Session != "" {
			m.session = msg.Session
		}
		content := msg.Answer
		if msg.Err != nil {
			content = fmt.Sprintf("Error: %v", msg.Err)
		}
		m.messages = append(m.messages, displayMessage{
			Role:    model.ChatRoleAssistant,
			Content: content,
		})
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	var cmds []tea.Cmd

	var taCmd tea.Cmd
	m.input, taCmd = m.input.Update(msg)
	if taCmd != nil {
		cmds = append(cmds, taCmd)
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	if vpCmd != nil {
		cmds = append(cmds, vpCmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKeyMsg processes keyboard input for the chat panel.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.waiting {
			return m, nil
		}
		return m, func() tea.Msg {
			return CloseMsg{}
		}

	case "enter":
		if m.waiting {
			return m, nil
		}

		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}

		m.input.Reset()
		m.messages = append(m.messages, displayMessage{
			Role:    model.ChatRoleUser,
			Content: text,
		})
		m.waiting = true
		m.refreshViewport()

		return m, m.send(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send returns a command that asks the question and records both turns.
func (m Model) send(text string) tea.Cmd {
	svc, session, id := m.svc, m.session, m.emailID
	return func() tea.Msg {
		answer, sess, err := svc.Chat(context.Background(), session, id, text)
		return ResponseMsg{Answer: answer, Session: sess, Err: err}
	}
}

// refreshViewport re-renders the conversation content and scrolls to bottom.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

// renderConversation builds the conversation display string.
func (m Model) renderConversation() string {
	if len(m.messages) == 0 {
		hint := "Ask anything about this email: a summary, who needs a reply, what is due."
		if m.svc != nil && m.svc.MockMode() {
			hint += "\nMock mode: answers are canned until an API key is configured."
		}
		return lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render(hint)
	}

	var sections []string

	roleStyle := lipgloss.NewStyle().Bold(true)
	userStyle := roleStyle.Foreground(theme.ColorBlue)
	assistantStyle := roleStyle.Foreground(theme.ColorGreen)
	contentStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	for _, msg := range m.messages {
		var label string
		switch msg.Role {
		case model.ChatRoleUser:
			label = userStyle.Render("You:")
		default:
			label = assistantStyle.Render("Assistant:")
		}

		content := contentStyle.Render(msg.Content)
		if llm.IsErrorSentinel(msg.Content) {
			content = theme.ErrorStyle.Render(msg.Content)
		}

		sections = append(sections, label, content, "")
	}

	if m.waiting {
		thinkingStyle := lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true)
		sections = append(sections, thinkingStyle.Render("..."))
	}

	return strings.Join(sections, "\n")
}

// View renders the chat panel.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Chat: " + m.subject)

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(
		strings.Repeat("─", max(min(m.width-6, 80), 1)),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		m.viewport.View(),
		separator,
		m.input.View(),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the chat panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width - 4)

	vpHeight := height - 8
	if vpHeight < 4 {
		vpHeight = 4
	}
	m.viewport.Width = width - 4
	m.viewport.Height = vpHeight
}
