package model

import "time"

// Email is a single message in the local inbox. It is created by the mock
// loader or by IMAP ingest and never modified afterwards.
type Email struct {
	// ID is the provider-assigned (IMAP sequence number) or mock id.
	ID        int64  `json:"id" db:"id"`
	Sender    string `json:"sender" db:"sender"`
	Subject   string `json:"subject" db:"subject"`
	Timestamp string `json:"timestamp" db:"timestamp"`
	Body      string `json:"body,omitempty" db:"body"`
}

// ProcessedResult holds the latest categorization and action-item
// extraction for an email. Reprocessing replaces it wholesale.
type ProcessedResult struct {
	EmailID     int64      `json:"email_id"`
	Categories  Structured `json:"categories"`
	Tasks       Structured `json:"tasks"`
	ProcessedAt time.Time  `json:"processed_at"`
}

// Draft is a generated reply. Drafts are append-only; an email may have
// any number of them.
type Draft struct {
	ID        int64          `json:"id"`
	EmailID   int64          `json:"email_id"`
	Subject   string         `json:"subject"`
	Body      string         `json:"body"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// ChatRole identifies the sender of a chat turn.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one persisted turn of a conversation about an email.
type ChatMessage struct {
	ID        int64     `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	EmailID   int64     `json:"email_id" db:"email_id"`
	Role      ChatRole  `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
