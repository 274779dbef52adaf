// Package triage runs the email workflows: processing, drafting, chat,
// prompt editing and inbox loading. It joins the store, the model
// assistant and the mail source, and is shared by the CLI and the TUI.
package triage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/inbox"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/llm"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/source"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/store"
)

// ErrNoSource is returned by Ingest when no mail source is configured.
var ErrNoSource = errors.New("no mail source configured")

// TestChatQuery is the question asked when testing the chat prompt.
const TestChatQuery = "Summarize this email"

// Service coordinates the email workflows.
type Service struct {
	store     store.Store
	assistant *llm.Assistant
	fetcher   source.Fetcher
	log       *zap.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithFetcher sets the mail source used by Ingest.
func WithFetcher(f source.Fetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

// WithLogger sets the service logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a service over st and assistant.
func NewService(st store.Store, assistant *llm.Assistant, opts ...Option) *Service {
	s := &Service{
		store:     st,
		assistant: assistant,
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MockMode reports whether model answers are canned.
func (s *Service) MockMode() bool {
	return s.assistant.IsMock()
}

// === Inbox ===

// LoadMock loads the bundled sample inbox and returns how many emails
// were new.
func (s *Service) LoadMock(ctx context.Context) (int, error) {
	return s.LoadInbox(ctx, inbox.Mock())
}

// LoadInbox loads a JSON array of emails from r, skipping ids already
// stored, and returns how many were new.
func (s *Service) LoadInbox(ctx context.Context, r io.Reader) (int, error) {
	added, err := s.store.LoadMockEmails(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("loading %s inbox: %w", source.SourceTypeMock, err)
	}
	s.log.Info("inbox loaded",
		zap.String("source", string(source.SourceTypeMock)),
		zap.Int("added", added),
	)
	return added, nil
}

// Ingest fetches recent messages from the mail source and stores those not
// seen before. It returns the number fetched and the number added.
func (s *Service) Ingest(ctx context.Context) (fetched, added int, err error) {
	return s.IngestFrom(ctx, s.fetcher)
}

// IngestFrom is Ingest against an explicit source.
func (s *Service) IngestFrom(ctx context.Context, f source.Fetcher) (fetched, added int, err error) {
	if f == nil {
		return 0, 0, ErrNoSource
	}

	emails, err := f.Fetch(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("fetching from %s: %w", f.Type(), err)
	}

	added, err = s.store.SaveEmails(ctx, emails)
	if err != nil {
		return len(emails), 0, fmt.Errorf("saving fetched emails: %w", err)
	}

	s.log.Info("ingest complete",
		zap.String("source", string(f.Type())),
		zap.Int("fetched", len(emails)),
		zap.Int("added", added),
	)
	return len(emails), added, nil
}

// Emails lists the inbox, newest first.
func (s *Service) Emails(ctx context.Context) ([]model.Email, error) {
	return s.store.ListEmails(ctx)
}

// Email returns one email; a missing id yields store.ErrNotFound.
func (s *Service) Email(ctx context.Context, id int64) (*model.Email, error) {
	return s.store.GetEmail(ctx, id)
}

// Processed returns the stored processing result for an email, or nil
// when it has not been processed yet.
func (s *Service) Processed(ctx context.Context, id int64) (*model.ProcessedResult, error) {
	result, err := s.store.GetProcessed(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return result, err
}

// AllProcessed returns every processing result keyed by email id.
func (s *Service) AllProcessed(ctx context.Context) (map[int64]model.ProcessedResult, error) {
	return s.store.ListProcessed(ctx)
}

// === Processing ===

// Process categorizes an email and extracts its action items with the
// stored prompts, replacing any earlier result.
func (s *Service) Process(ctx context.Context, id int64) (*model.ProcessedResult, error) {
	email, err := s.store.GetEmail(ctx, id)
	if err != nil {
		return nil, err
	}
	prompts, err := s.store.GetPrompts(ctx)
	if err != nil {
		return nil, err
	}

	result := model.ProcessedResult{
		EmailID:     email.ID,
		Categories:  s.assistant.Categorize(ctx, email.Body, prompts.Get(model.PromptCategorization)),
		Tasks:       s.assistant.ExtractActions(ctx, email.Body, prompts.Get(model.PromptActionItems)),
		ProcessedAt: s.now(),
	}

	if err := s.store.SaveProcessed(ctx, result); err != nil {
		return nil, err
	}

	s.log.Debug("email processed",
		zap.Int64("email_id", id),
		zap.Strings("categories", result.Categories.CategoryLabels()),
		zap.Int("tasks", len(result.Tasks.ActionItems())),
	)
	return &result, nil
}

// === Drafts ===

// DraftResult is a saved draft together with the model's structured
// answer it was built from.
type DraftResult struct {
	Draft      model.Draft
	Structured model.Structured
}

// Draft generates and saves a reply to an email. The subject falls back to
// "Re: <subject>" when the model gives none.
func (s *Service) Draft(ctx context.Context, id int64, tone string) (*DraftResult, error) {
	if tone == "" {
		tone = model.DefaultTone
	}

	email, err := s.store.GetEmail(ctx, id)
	if err != nil {
		return nil, err
	}
	prompts, err := s.store.GetPrompts(ctx)
	if err != nil {
		return nil, err
	}

	structured := s.assistant.GenerateDraft(ctx, email.Body, prompts.Get(model.PromptAutoReply), tone)
	reply := structured.DraftReply()

	subject := reply.Subject
	if subject == "" {
		subject = "Re: " + email.Subject
	}

	generatedBy := "llm"
	if s.MockMode() {
		generatedBy = "mock"
	}

	draft := model.Draft{
		EmailID: email.ID,
		Subject: subject,
		Body:    reply.Body,
		Metadata: map[string]any{
			"generated_by": generatedBy,
			"tone":         tone,
		},
		CreatedAt: s.now(),
	}
	if len(reply.Followups) > 0 {
		draft.Metadata["followups"] = reply.Followups
	}

	draft.ID, err = s.store.SaveDraft(ctx, draft)
	if err != nil {
		return nil, err
	}

	return &DraftResult{Draft: draft, Structured: structured}, nil
}

// Drafts lists the drafts saved for an email, newest first.
func (s *Service) Drafts(ctx context.Context, id int64) ([]model.Draft, error) {
	return s.store.ListDrafts(ctx, id)
}

// === Chat ===

// NewSession returns a fresh chat session id.
func NewSession() string {
	return uuid.NewString()
}

// Chat answers query about an email and records both turns under
// sessionID. An empty sessionID starts a new session; the id used is
// returned with the answer.
func (s *Service) Chat(
	ctx context.Context,
	sessionID string,
	id int64,
	query string,
) (answer string, session string, err error) {
	if sessionID == "" {
		sessionID = NewSession()
	}

	email, err := s.store.GetEmail(ctx, id)
	if err != nil {
		return "", sessionID, err
	}
	prompts, err := s.store.GetPrompts(ctx)
	if err != nil {
		return "", sessionID, err
	}

	asked := s.now()
	answer = s.assistant.ChatWithEmail(ctx, email.Body, prompts, query)

	err = s.store.AppendChat(ctx,
		model.ChatMessage{
			SessionID: sessionID, EmailID: email.ID,
			Role: model.ChatRoleUser, Content: query, CreatedAt: asked,
		},
		model.ChatMessage{
			SessionID: sessionID, EmailID: email.ID,
			Role: model.ChatRoleAssistant, Content: answer, CreatedAt: s.now(),
		},
	)
	if err != nil {
		return answer, sessionID, err
	}

	if llm.IsErrorSentinel(answer) {
		s.log.Warn("chat answered with a model error", zap.Int64("email_id", id))
	}
	return answer, sessionID, nil
}

// History returns the turns recorded for a chat session.
func (s *Service) History(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	return s.store.ChatHistory(ctx, sessionID)
}

// === Prompts ===

// Prompts returns the current prompt templates.
func (s *Service) Prompts(ctx context.Context) (model.Prompts, error) {
	return s.store.GetPrompts(ctx)
}

// SavePrompt replaces one prompt template. Unknown names are rejected
// with store.ErrUnknownPrompt.
func (s *Service) SavePrompt(ctx context.Context, name model.PromptName, content string) error {
	if err := s.store.SavePrompt(ctx, name, content); err != nil {
		return err
	}
	s.log.Info("prompt saved", zap.String("name", string(name)), zap.Int("length", len(content)))
	return nil
}

// TestPromptResult is the outcome of a prompt test. Structured is set for
// the categorization, action-item and reply prompts; Text for the chat
// instructions.
type TestPromptResult struct {
	Name       model.PromptName
	Structured model.Structured
	Text       string
}

// TestPrompt runs one prompt against arbitrary text without saving
// anything. content overrides the stored prompt when non-empty.
func (s *Service) TestPrompt(
	ctx context.Context,
	name model.PromptName,
	content, input, tone string,
) (*TestPromptResult, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("testing prompt %q: %w", name, store.ErrUnknownPrompt)
	}

	prompts, err := s.store.GetPrompts(ctx)
	if err != nil {
		return nil, err
	}
	if content != "" {
		prompts[name] = content
	}

	result := &TestPromptResult{Name: name}
	switch name {
	case model.PromptCategorization:
		result.Structured = s.assistant.Categorize(ctx, input, prompts.Get(name))
	case model.PromptActionItems:
		result.Structured = s.assistant.ExtractActions(ctx, input, prompts.Get(name))
	case model.PromptAutoReply:
		result.Structured = s.assistant.GenerateDraft(ctx, input, prompts.Get(name), tone)
	case model.PromptChatSystem:
		result.Text = s.assistant.ChatWithEmail(ctx, input, prompts, TestChatQuery)
	}
	return result, nil
}
