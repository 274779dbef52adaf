package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
)

// AppendChat stores chat turns in order.
func (s *SQLiteStore) AppendChat(ctx context.Context, messages ...model.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range messages {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chat_messages (session_id, email_id, role, content, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			m.SessionID, m.EmailID, string(m.Role), m.Content, m.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("appending chat message to session %s: %w", m.SessionID, err)
		}
	}

	return tx.Commit()
}

// ChatHistory returns the turns of a session in the order they were added.
func (s *SQLiteStore) ChatHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := s.db.SelectContext(ctx, &messages, `
		SELECT id, session_id, email_id, role, content, created_at
		FROM chat_messages
		WHERE session_id = ?
		ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying chat session %s: %w", sessionID, err)
	}
	return messages, nil
}
