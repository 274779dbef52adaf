package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/source"
)

// SyncState represents the current state of the ingest loop.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the state of the most recent ingest.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Error    error
}

// Ingester pulls new mail into the local store.
type Ingester interface {
	Ingest(ctx context.Context) (fetched, added int, err error)
}

// IngestResultMsg is a tea.Msg sent when an ingest run completes.
type IngestResultMsg struct {
	Fetched   int
	Added     int
	Error     error
	AuthError *AuthErrorMsg
}

// AuthErrorMsg is a tea.Msg sent when the mail server rejects the login.
type AuthErrorMsg struct {
	Message string
}

// fetchTimeout is the maximum time allowed for a single ingest run.
const fetchTimeout = 60 * time.Second

// Poller runs Ingest on an interval in the background and reports each
// result to the Bubble Tea runtime.
type Poller struct {
	ingester  Ingester
	interval  time.Duration
	log       *zap.Logger
	status    SyncStatus
	resultCh  chan IngestResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a poller that calls ing every interval.
func New(ing Ingester, interval time.Duration, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		ingester:  ing,
		interval:  interval,
		log:       log,
		resultCh:  make(chan IngestResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start returns a tea.Cmd that starts the polling goroutine and waits for
// its first result.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()

	return p.waitForResult()
}

// Stop halts the polling goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Refresh triggers an immediate ingest.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A refresh is already pending.
	}
}

// Status returns the state of the most recent ingest.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// loop runs ingest once immediately and then on every tick or trigger.
func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.ingestOnce()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.ingestOnce()
		case <-p.triggerCh:
			p.ingestOnce()
		}
	}
}

// ingestOnce performs a single ingest and sends an IngestResultMsg.
func (p *Poller) ingestOnce() {
	p.setStatus(SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	fetched, added, err := p.ingester.Ingest(ctx)
	if err != nil {
		p.setStatus(SyncError, err)
		p.log.Warn("background ingest failed", zap.Error(err))

		msg := IngestResultMsg{Error: err}
		if source.IsAuthError(err) {
			msg.AuthError = &AuthErrorMsg{
				Message: fmt.Sprintf("IMAP login rejected: %v. Press 'i' to update credentials.", err),
			}
		}
		p.sendResult(msg)
		return
	}

	p.setStatus(SyncIdle, nil)
	p.sendResult(IngestResultMsg{Fetched: fetched, Added: added})
}

func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle {
		p.status.LastSync = time.Now()
	}
}

// sendResult sends a result without blocking.
func (p *Poller) sendResult(msg IngestResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next ingest
// result. Call it after handling an IngestResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
