package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/credential"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/keys"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
	appsync "github.com/Bhavana-34/Prompt-Driven-Email/internal/sync"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/triage"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/ui"
	chatview "github.com/Bhavana-34/Prompt-Driven-Email/internal/ui/chat"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/ui/command"
	configview "github.com/Bhavana-34/Prompt-Driven-Email/internal/ui/config"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/ui/detail"
	helpview "github.com/Bhavana-34/Prompt-Driven-Email/internal/ui/help"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/ui/inbox"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewConfig
	ViewChat
	ViewHelp
	ViewCommand
)

// Options holds what the root model needs from startup.
type Options struct {
	Service    *triage.Service
	Secrets    credential.SecretStore
	Config     *model.AppConfig
	ConfigPath string

	// Poller runs background ingest; nil disables it.
	Poller *appsync.Poller
	Log    *zap.Logger
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the triage service.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	svc          *triage.Service
	cfg          *model.AppConfig
	keys         *keys.KeyMap
	log          *zap.Logger
	inbox        inbox.Model
	detail       detail.Model
	chatView     chatview.Model
	helpView     helpview.Model
	commandView  command.Model
	configView   configview.Model
	poller       *appsync.Poller
	ready        bool
	notice       string
	authError    string
}

// New creates a new root application model.
func New(opts Options) Model {
	k := keys.DefaultKeyMap()
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	help := helpview.New(k, 80, 24)
	help.SetMode(opts.Service.MockMode(), opts.Config.LLM.Model)

	return Model{
		currentView: ViewList,
		svc:         opts.Service,
		cfg:         opts.Config,
		keys:        k,
		log:         log,
		inbox:       inbox.New(opts.Service, k, 80, 24),
		detail:      detail.New(opts.Service, k, opts.Config.Display.DefaultTone, 80, 24),
		chatView:    chatview.New(opts.Service, k, 80, 24),
		helpView:    help,
		commandView: command.New(80, 24),
		configView: configview.New(
			opts.Service, opts.Secrets, opts.Config, opts.ConfigPath, k, 80, 24,
		),
		poller: opts.Poller,
	}
}

// Init loads the inbox and starts background ingest when enabled.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.inbox.Init()}
	if m.poller != nil {
		cmds = append(cmds, m.poller.Start())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.inbox.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.chatView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.configView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.IngestResultMsg:
		if msg.AuthError != nil {
			m.authError = msg.AuthError.Message
		} else if msg.Error == nil {
			m.authError = ""
			if msg.Added > 0 {
				m.notice = fmt.Sprintf("%d new emails", msg.Added)
			}
		}
		return m, tea.Batch(m.inbox.LoadEmails(), m.poller.WaitForNextResult())

	case inbox.EmailsLoadedMsg:
		var cmd tea.Cmd
		m.inbox, cmd = m.inbox.Update(msg)
		return m, cmd

	case inbox.SelectedEmailMsg:
		return m, m.openDetail(msg.EmailID)

	case detail.DetailLoadedMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case detail.BackMsg:
		m.currentView = ViewList
		return m, m.inbox.LoadEmails()

	case detail.ActionMsg:
		return m, m.runAction(msg)

	case processedMsg:
		return m, m.afterAction(msg.emailID, msg.err, "processed")

	case draftedMsg:
		return m, m.afterAction(msg.emailID, msg.err, "draft saved")

	case mockLoadedMsg:
		if msg.err != nil {
			m.notice = "Could not load mock inbox: " + msg.err.Error()
			return m, nil
		}
		m.notice = fmt.Sprintf("Mock inbox loaded (%d new)", msg.added)
		return m, m.inbox.LoadEmails()

	case chatview.ResponseMsg:
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(msg)
		return m, cmd

	case chatview.CloseMsg:
		m.currentView = ViewDetail
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case configview.ConfigDoneMsg:
		m.currentView = ViewList
		return m, m.inbox.LoadEmails()

	case configview.IngestedMsg:
		m.notice = fmt.Sprintf("Fetched %d, added %d", msg.Fetched, msg.Added)
		return m, m.inbox.LoadEmails()

	case tea.KeyMsg:
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that are not owned by the active view.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.stopPoller()
		return m, tea.Quit, true
	}

	// Text inputs and forms own every other key.
	switch m.currentView {
	case ViewChat, ViewConfig, ViewCommand:
		return m, nil, false
	}
	if m.currentView == ViewList && m.inbox.Filtering() {
		return m, nil, false
	}

	switch msg.String() {
	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case ":":
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true
	}

	if m.currentView == ViewHelp {
		if msg.String() == "esc" {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, true
	}

	if m.currentView != ViewList {
		return m, nil, false
	}

	switch msg.String() {
	case "q":
		m.stopPoller()
		return m, tea.Quit, true

	case "r":
		m.notice = ""
		if m.poller != nil {
			m.poller.Refresh()
		}
		return m, m.inbox.LoadEmails(), true

	case "m":
		return m, m.loadMock(), true

	case "i":
		m.previousView = m.currentView
		m.currentView = ViewConfig
		return m, m.configView.OpenIMAPForm(), true

	case "e":
		m.previousView = m.currentView
		m.currentView = ViewConfig
		m.configView.SetSample(m.selectedBody())
		return m, m.configView.Reset(), true

	case "p", "d", "c":
		id, ok := m.inbox.Selected()
		if !ok {
			return m, nil, true
		}
		action := map[string]string{
			"p": detail.ActionProcess,
			"d": detail.ActionDraft,
			"c": detail.ActionChat,
		}[msg.String()]
		return m, tea.Batch(
			m.openDetail(id),
			m.runAction(detail.ActionMsg{Action: action, EmailID: id, Tone: m.detail.Tone()}),
		), true
	}

	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.inbox, cmd = m.inbox.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewConfig:
		m.configView, cmd = m.configView.Update(msg)
	case ViewChat:
		m.chatView, cmd = m.chatView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			m.currentView = m.previousView
			return m, nil
		}
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Email Agent", m.syncStatus(), m.svc.MockMode())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.inbox.View()
	case ViewDetail:
		return m.detail.View()
	case ViewConfig:
		return m.configView.View()
	case ViewChat:
		return m.chatView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing background ingest.
func (m Model) syncStatus() string {
	if m.poller == nil {
		return "manual"
	}

	status := m.poller.Status()
	switch status.State {
	case appsync.SyncRunning:
		return "fetching..."
	case appsync.SyncError:
		return "⚠ IMAP unreachable"
	default:
		if status.LastSync.IsZero() {
			return "idle"
		}
		return "synced " + status.LastSync.Format("15:04")
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.currentView == ViewList {
		if m.authError != "" {
			return m.authError
		}
		if m.notice != "" {
			return m.notice
		}
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDetail:
		return "esc back | p process | d draft | t tone | c chat | j/k scroll"
	case ViewConfig:
		return "enter edit | t test | x restore | i ingest | a API key | esc back"
	case ViewChat:
		return "enter send | esc close"
	default:
		return "q quit | ? help | enter open | p process | m mock inbox | i ingest | e prompts | / search"
	}
}

func (m *Model) stopPoller() {
	if m.poller != nil {
		m.poller.Stop()
	}
}
