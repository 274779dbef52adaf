package store

import (
	"context"
	"errors"
	"io"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnknownPrompt is returned when saving a prompt whose name is not
	// one of model.PromptNames.
	ErrUnknownPrompt = errors.New("unknown prompt name")
)

// Store defines the persistence interface for emails, their processing
// results, drafts, prompt templates and chat history.
type Store interface {
	// === Emails ===

	// SaveEmails inserts emails whose id is not yet stored and returns how
	// many were added. Existing emails are never overwritten.
	SaveEmails(ctx context.Context, emails []model.Email) (int, error)
	LoadMockEmails(ctx context.Context, r io.Reader) (int, error)
	ListEmails(ctx context.Context) ([]model.Email, error)
	GetEmail(ctx context.Context, id int64) (*model.Email, error)

	// === Processing results ===

	SaveProcessed(ctx context.Context, result model.ProcessedResult) error
	GetProcessed(ctx context.Context, emailID int64) (*model.ProcessedResult, error)
	ListProcessed(ctx context.Context) (map[int64]model.ProcessedResult, error)

	// === Drafts ===

	SaveDraft(ctx context.Context, draft model.Draft) (int64, error)
	ListDrafts(ctx context.Context, emailID int64) ([]model.Draft, error)

	// === Prompts ===

	GetPrompts(ctx context.Context) (model.Prompts, error)
	SavePrompt(ctx context.Context, name model.PromptName, content string) error

	// === Chat history ===

	AppendChat(ctx context.Context, messages ...model.ChatMessage) error
	ChatHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error)

	Close() error
}
