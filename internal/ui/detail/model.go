package detail

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/crossref"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/keys"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/llm"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/theme"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/triage"
)

// BackMsg signals the parent to navigate back to the inbox.
type BackMsg struct{}

// DetailLoadedMsg carries an email with its stored results.
type DetailLoadedMsg struct {
	Email     *model.Email
	Processed *model.ProcessedResult
	Drafts    []model.Draft
	Related   []model.Email
	Err       error
}

// ActionMsg asks the parent to run an action on the current email.
type ActionMsg struct {
	Action  string
	EmailID int64
	Tone    string
}

// Action names carried by ActionMsg.
const (
	ActionProcess = "process"
	ActionDraft   = "draft"
	ActionChat    = "chat"
)

// Model is the email detail view component.
type Model struct {
	email     *model.Email
	processed *model.ProcessedResult
	drafts    []model.Draft
	related   []model.Email
	tone      string
	err       error
	viewport  viewport.Model
	svc       *triage.Service
	keys      *keys.KeyMap
	width     int
	height    int
	loading   bool
	busy      string
}

// New creates a new detail view model. tone is the initial reply tone.
func New(svc *triage.Service, keys *keys.KeyMap, tone string, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	if tone == "" {
		tone = model.DefaultTone
	}

	return Model{
		viewport: vp,
		svc:      svc,
		keys:     keys,
		tone:     tone,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Load returns a command that reads the email, its latest result and its
// drafts from the store.
func (m Model) Load(id int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx := context.Background()
		email, err := svc.Email(ctx, id)
		if err != nil {
			return DetailLoadedMsg{Err: err}
		}
		processed, err := svc.Processed(ctx, id)
		if err != nil {
			return DetailLoadedMsg{Email: email, Err: err}
		}
		drafts, err := svc.Drafts(ctx, id)
		if err != nil {
			return DetailLoadedMsg{Email: email, Processed: processed, Err: err}
		}
		// Related emails are a hint; a failed listing just hides them.
		var related []model.Email
		if all, err := svc.Emails(ctx); err == nil {
			related = crossref.Related(*email, all)
		}
		return DetailLoadedMsg{
			Email:     email,
			Processed: processed,
			Drafts:    drafts,
			Related:   related,
		}
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		m.email = msg.Email
		m.processed = msg.Processed
		m.drafts = msg.Drafts
		m.related = msg.Related
		m.err = msg.Err
		m.loading = false
		m.busy = ""
		m.refresh()
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.Tone):
			m.tone = nextTone(m.tone)
			m.refresh()
			return m, nil

		case key.Matches(msg, m.keys.Process):
			return m, m.action(ActionProcess)

		case key.Matches(msg, m.keys.Draft):
			return m, m.action(ActionDraft)

		case key.Matches(msg, m.keys.Chat):
			return m, m.action(ActionChat)
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(name string) tea.Cmd {
	if m.email == nil || m.busy != "" {
		return nil
	}
	msg := ActionMsg{Action: name, EmailID: m.email.ID, Tone: m.tone}
	return func() tea.Msg { return msg }
}

// View renders the detail view.
func (m Model) View() string {
	if m.loading {
		loadingStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return loadingStyle.Render("Loading email...")
	}

	if m.email == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		if m.err != nil {
			return emptyStyle.Render(m.err.Error())
		}
		return emptyStyle.Render("No email selected")
	}

	return m.viewport.View()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderContent())
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.email == nil {
		return ""
	}

	email := m.email
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	subject := email.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	sections = append(sections, titleStyle.Render(subject))

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	sections = append(sections, fmt.Sprintf(
		"%s  %s",
		metaStyle.Render("From:"),
		valStyle.Render(email.Sender),
	))
	sections = append(sections, fmt.Sprintf(
		"%s  %s",
		metaStyle.Render("Date:"),
		valStyle.Render(email.Timestamp),
	))
	sections = append(sections, fmt.Sprintf(
		"%s  %s",
		metaStyle.Render("Tone:"),
		theme.ToneStyle(m.tone).Render(m.tone),
	))

	if refs := crossref.EmailKeys(*email); len(refs) > 0 {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Refs:"),
			valStyle.Render(strings.Join(refs, ", ")),
		))
	}
	for _, r := range m.related {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("See:"),
			theme.DimmedStyle.Render(fmt.Sprintf("#%d %s", r.ID, r.Subject)),
		))
	}

	if m.busy != "" {
		sections = append(sections, "", theme.HelpStyle.Render(m.busy+"..."))
	}
	if m.err != nil {
		sections = append(sections, "", theme.ErrorStyle.Render(m.err.Error()))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))
	sections = append(sections, "", separator, "")

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	body := email.Body
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No body")
	}
	sections = append(sections, body)

	sections = append(sections, "", separator, "")
	sections = append(sections, headerStyle.Render("Categories"))
	if m.processed == nil {
		sections = append(sections, theme.HelpStyle.Render("Not processed yet. Press p."))
	} else {
		sections = append(sections, renderCategories(m.processed.Categories))
		sections = append(sections, "")
		sections = append(sections, headerStyle.Render("Action Items"))
		sections = append(sections, renderTasks(m.processed.Tasks)...)
	}

	if len(m.drafts) > 0 {
		sections = append(sections, "", separator, "")
		sections = append(sections, headerStyle.Render(
			fmt.Sprintf("Drafts (%d)", len(m.drafts)),
		))

		subjectStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
		for _, d := range m.drafts {
			tone, _ := d.Metadata["tone"].(string)
			by, _ := d.Metadata["generated_by"].(string)
			header := fmt.Sprintf(
				"%s  %s  %s",
				subjectStyle.Render(d.Subject),
				theme.ToneStyle(tone).Render(tone),
				metaStyle.Render(by+" "+d.CreatedAt.Format("2006-01-02 15:04")),
			)
			sections = append(sections, header)
			sections = append(sections, renderAnswer(d.Body))
			sections = append(sections, "")
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderCategories(s model.Structured) string {
	labels := s.CategoryLabels()
	if len(labels) == 0 {
		if raw, ok := s.Raw(); ok {
			return renderAnswer(raw)
		}
		return theme.HelpStyle.Render("No categories")
	}
	badges := make([]string, 0, len(labels))
	for _, l := range labels {
		badges = append(badges, theme.CategoryStyle(l).Render(l))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, badges...)
}

func renderTasks(s model.Structured) []string {
	items := s.ActionItems()
	if len(items) == 0 {
		return []string{theme.HelpStyle.Render("No action items")}
	}

	var lines []string
	for _, it := range items {
		line := "• " + renderAnswer(it.Text())
		var extra []string
		if it.Assignee != "" {
			extra = append(extra, "@"+it.Assignee)
		}
		if it.Due != "" {
			extra = append(extra, "due "+it.Due)
		}
		if len(extra) > 0 {
			line += "  " + theme.DimmedStyle.Render(strings.Join(extra, " "))
		}
		lines = append(lines, line)
	}
	return lines
}

// renderAnswer shows gateway failure markers in the error color.
func renderAnswer(text string) string {
	if llm.IsErrorSentinel(text) {
		return theme.ErrorStyle.Render(text)
	}
	return text
}

// nextTone cycles through the offered reply tones.
func nextTone(current string) string {
	for i, t := range model.Tones {
		if t == current {
			return model.Tones[(i+1)%len(model.Tones)]
		}
	}
	return model.Tones[0]
}

// Tone returns the currently selected reply tone.
func (m Model) Tone() string {
	return m.tone
}

// EmailID returns the displayed email id, or 0 when none is loaded.
func (m Model) EmailID() int64 {
	if m.email == nil {
		return 0
	}
	return m.email.ID
}

// SetBusy shows a progress note while an action runs; an empty note
// clears it.
func (m *Model) SetBusy(note string) {
	m.busy = note
	m.refresh()
}

// SetError shows an action failure above the body.
func (m *Model) SetError(err error) {
	m.err = err
	m.busy = ""
	m.refresh()
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.refresh()
}
