package inbox

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/keys"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/theme"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/triage"
)

// EmailsLoadedMsg is sent when the inbox has been loaded from the store.
type EmailsLoadedMsg struct {
	Emails    []model.Email
	Processed map[int64]model.ProcessedResult
	Err       error
}

// SelectedEmailMsg is sent when a user opens an email.
type SelectedEmailMsg struct {
	EmailID int64
}

// Model is the inbox list view component.
type Model struct {
	list   list.Model
	svc    *triage.Service
	keys   *keys.KeyMap
	err    error
	width  int
	height int
}

// New creates a new inbox model.
func New(svc *triage.Service, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Inbox"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		svc:    svc,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns a command that loads the inbox.
func (m Model) Init() tea.Cmd {
	return m.LoadEmails()
}

// Update handles messages for the inbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EmailsLoadedMsg:
		m.err = msg.Err
		items := make([]list.Item, len(msg.Emails))
		for i, e := range msg.Emails {
			item := EmailItem{Email: e}
			if p, ok := msg.Processed[e.ID]; ok {
				item.Processed = true
				item.Categories = p.Categories.CategoryLabels()
				item.TaskCount = len(p.Tasks.ActionItems())
			}
			items[i] = item
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		// While the filter prompt is open every key belongs to it.
		if m.list.FilterState() == list.Filtering {
			break
		}
		if key.Matches(msg, m.keys.Select) {
			item, ok := m.list.SelectedItem().(EmailItem)
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg {
				return SelectedEmailMsg{EmailID: item.Email.ID}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Filtering reports whether the filter prompt has focus, so the parent can
// leave single-key shortcuts alone.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Selected returns the highlighted email id.
func (m Model) Selected() (int64, bool) {
	item, ok := m.list.SelectedItem().(EmailItem)
	if !ok {
		return 0, false
	}
	return item.Email.ID, true
}

// View renders the inbox view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows guidance text when the inbox is empty.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.err != nil {
		return style.Render("Could not load the inbox:\n" + m.err.Error())
	}

	return style.Render(
		"The inbox is empty.\n\n" +
			"Press m to load the sample inbox or i to fetch over IMAP.",
	)
}

// LoadEmails returns a tea.Cmd that reads the inbox and stored results.
func (m Model) LoadEmails() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx := context.Background()
		emails, err := svc.Emails(ctx)
		if err != nil {
			return EmailsLoadedMsg{Err: err}
		}
		processed, err := svc.AllProcessed(ctx)
		if err != nil {
			return EmailsLoadedMsg{Emails: emails, Err: err}
		}
		return EmailsLoadedMsg{Emails: emails, Processed: processed}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
