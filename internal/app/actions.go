package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/ui/command"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/ui/detail"
)

// processedMsg is sent after an email has been categorized and its tasks
// extracted.
type processedMsg struct {
	emailID int64
	err     error
}

// draftedMsg is sent after a reply draft is saved.
type draftedMsg struct {
	emailID int64
	err     error
}

// mockLoadedMsg is sent after the sample inbox is loaded.
type mockLoadedMsg struct {
	added int
	err   error
}

// openDetail switches to the detail view and loads the email.
func (m *Model) openDetail(id int64) tea.Cmd {
	if m.currentView != ViewDetail {
		m.previousView = m.currentView
	}
	m.currentView = ViewDetail
	m.detail.SetLoading(true)
	return m.detail.Load(id)
}

// runAction executes a detail view action against the service.
func (m *Model) runAction(msg detail.ActionMsg) tea.Cmd {
	svc := m.svc
	id := msg.EmailID

	switch msg.Action {
	case detail.ActionProcess:
		m.detail.SetBusy("Processing")
		return func() tea.Msg {
			_, err := svc.Process(context.Background(), id)
			return processedMsg{emailID: id, err: err}
		}

	case detail.ActionDraft:
		m.detail.SetBusy("Drafting a " + msg.Tone + " reply")
		tone := msg.Tone
		return func() tea.Msg {
			_, err := svc.Draft(context.Background(), id, tone)
			return draftedMsg{emailID: id, err: err}
		}

	case detail.ActionChat:
		subject := ""
		if email, err := svc.Email(context.Background(), id); err == nil {
			subject = email.Subject
		}
		m.currentView = ViewChat
		return m.chatView.Open(id, subject)
	}

	return nil
}

// afterAction reloads the detail view once an action finishes.
func (m *Model) afterAction(id int64, err error, what string) tea.Cmd {
	if err != nil {
		m.log.Warn("email action failed", zap.Int64("email_id", id), zap.Error(err))
		m.detail.SetError(err)
		return nil
	}
	m.notice = what
	if m.detail.EmailID() == id {
		return tea.Batch(m.detail.Load(id), m.inbox.LoadEmails())
	}
	return m.inbox.LoadEmails()
}

// loadMock returns a command that loads the bundled sample inbox.
func (m *Model) loadMock() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		added, err := svc.LoadMock(context.Background())
		return mockLoadedMsg{added: added, err: err}
	}
}

// selectedBody returns the body of the highlighted email, for prompt tests.
func (m *Model) selectedBody() string {
	id, ok := m.inbox.Selected()
	if !ok {
		return ""
	}
	email, err := m.svc.Email(context.Background(), id)
	if err != nil {
		return ""
	}
	return email.Body
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case command.CmdReload:
		return m.inbox.LoadEmails()
	case command.CmdMock:
		return m.loadMock()
	case command.CmdPoll:
		if m.poller == nil {
			m.notice = "Background ingest is off (imap.poll_interval_sec)"
			return nil
		}
		m.poller.Refresh()
		return nil
	case command.CmdIngest:
		m.previousView = ViewList
		m.currentView = ViewConfig
		return m.configView.OpenIMAPForm()
	case command.CmdPrompts:
		m.previousView = ViewList
		m.currentView = ViewConfig
		m.configView.SetSample(m.selectedBody())
		return m.configView.Reset()
	case command.CmdHelp:
		m.previousView = ViewList
		m.currentView = ViewHelp
		return nil
	case command.CmdQuit:
		m.stopPoller()
		return tea.Quit
	default:
		m.notice = "Unknown command: " + cmd
		return nil
	}
}
