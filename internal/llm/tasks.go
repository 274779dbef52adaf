package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
)

// budget is the sampling configuration for one task.
type budget struct {
	temperature float32
	maxTokens   int
}

var budgets = map[Task]budget{
	TaskCategorize: {temperature: 0.0, maxTokens: 300},
	TaskExtract:    {temperature: 0.0, maxTokens: 500},
	TaskDraft:      {temperature: 0.4, maxTokens: 700},
	TaskChat:       {temperature: 0.3, maxTokens: 500},
}

// Builtin prompts used when the caller passes an empty one.
const (
	DefaultCategorizePrompt = "Classify the email into categories."
	DefaultExtractPrompt    = "Extract action items."
	DefaultChatPrompt       = "You are the user's helpful email assistant."

	// toneToken is replaced with the requested tone in draft prompts.
	toneToken = "{{tone}}"
)

// Assistant runs the email tasks against the model gateway, or against the
// canned mock responses when no credential is configured. None of its
// methods return an error: every failure degrades to a usable value.
type Assistant struct {
	gateway *Gateway
	log     *zap.Logger
}

// New builds an Assistant from cfg, choosing the completer once.
func New(cfg Config, log *zap.Logger) *Assistant {
	if log == nil {
		log = zap.NewNop()
	}

	completer := NewCompleter(cfg)
	if completer == nil {
		log.Info("no model credential configured; running in mock mode")
	} else {
		log.Info("model gateway configured",
			zap.String("client", cfg.withDefaults().Client),
			zap.String("model", cfg.withDefaults().Model),
		)
	}

	return NewWithGateway(NewGateway(completer, log), log)
}

// NewWithGateway builds an Assistant around an existing gateway.
func NewWithGateway(g *Gateway, log *zap.Logger) *Assistant {
	if log == nil {
		log = zap.NewNop()
	}
	if g == nil {
		g = NewGateway(nil, log)
	}
	return &Assistant{gateway: g, log: log}
}

// IsMock reports whether the assistant answers with canned responses.
func (a *Assistant) IsMock() bool {
	return !a.gateway.Configured()
}

// Categorize labels the email. The result is whatever JSON the model
// produced, usually {"categories": [...], ...}.
func (a *Assistant) Categorize(
	ctx context.Context,
	emailText, prompt string,
) model.Structured {
	return a.structuredTask(ctx, TaskCategorize,
		orDefault(prompt, DefaultCategorizePrompt), emailText, model.RawText)
}

// ExtractActions lists the action items in the email, usually as an array
// of {task, assignee, due, context} objects.
func (a *Assistant) ExtractActions(
	ctx context.Context,
	emailText, prompt string,
) model.Structured {
	return a.structuredTask(ctx, TaskExtract,
		orDefault(prompt, DefaultExtractPrompt), emailText, model.RawList)
}

// GenerateDraft writes a reply in the given tone. A {{tone}} placeholder in
// prompt is replaced by tone; an empty prompt becomes a plain tone
// instruction.
func (a *Assistant) GenerateDraft(
	ctx context.Context,
	emailText, prompt, tone string,
) model.Structured {
	return a.structuredTask(ctx, TaskDraft,
		DraftPrompt(prompt, tone), emailText, model.RawText)
}

// DraftPrompt applies tone to a draft prompt template.
func DraftPrompt(prompt, tone string) string {
	if tone == "" {
		tone = model.DefaultTone
	}
	if prompt == "" {
		return fmt.Sprintf("Write a reply in a %s tone.", tone)
	}
	return strings.ReplaceAll(prompt, toneToken, tone)
}

// ChatWithEmail answers a free-form question about the email. The answer is
// returned as plain text; a failed call comes back as the error sentinel
// text rather than being filtered.
func (a *Assistant) ChatWithEmail(
	ctx context.Context,
	emailText string,
	prompts model.Prompts,
	query string,
) string {
	if a.IsMock() {
		return MockChat(query)
	}

	system := orDefault(prompts.Get(model.PromptChatSystem), DefaultChatPrompt)
	messages := []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: ChatUserMessage(emailText, query)},
	}

	b := budgets[TaskChat]
	text, ok := a.gateway.CallModel(ctx, messages, b.temperature, b.maxTokens)
	if !ok {
		return ErrorSentinel + " No response."
	}
	return text
}

// ChatUserMessage folds the email and the question into one user turn.
func ChatUserMessage(emailText, query string) string {
	return fmt.Sprintf("Email content:\n%s\n\nUser query: %s", emailText, query)
}

// structuredTask is the shared skeleton for categorize, extract and draft.
func (a *Assistant) structuredTask(
	ctx context.Context,
	task Task,
	systemPrompt, emailText string,
	wrap func(string) model.Structured,
) model.Structured {
	if a.IsMock() {
		return mockStructured(task)
	}

	messages := []Message{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: emailText},
	}

	b := budgets[task]
	text, ok := a.gateway.CallModel(ctx, messages, b.temperature, b.maxTokens)
	if !ok {
		a.log.Debug("no model answer; using mock value", zap.String("task", string(task)))
		return mockStructured(task)
	}

	return normalizeAnswer(text, wrap)
}

// normalizeAnswer runs the fallback chain: embedded JSON, then the whole
// text as JSON, then the raw-text envelope. Text outside the first JSON
// block is dropped.
func normalizeAnswer(text string, wrap func(string) model.Structured) model.Structured {
	if v, ok := ExtractStructured(text); ok {
		if s, ok := model.Normalize(v); ok {
			return s
		}
	}

	if whole, ok := decodeJSON(text); ok {
		if s, ok := model.Normalize(whole); ok {
			return s
		}
	}

	return wrap(text)
}

func mockStructured(task Task) model.Structured {
	s, _ := model.Normalize(MockResponse(task))
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
