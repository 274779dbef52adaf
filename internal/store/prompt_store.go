package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
)

//go:embed default_prompts.json
var defaultPromptsJSON []byte

// DefaultPrompts returns the prompt templates a new database starts with.
func DefaultPrompts() (model.Prompts, error) {
	var raw map[string]any
	if err := json.Unmarshal(defaultPromptsJSON, &raw); err != nil {
		return nil, fmt.Errorf("decoding default prompts: %w", err)
	}

	prompts := make(model.Prompts, len(raw))
	for name, v := range raw {
		// Non-string entries are kept as their JSON text.
		content, ok := v.(string)
		if !ok {
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encoding default prompt %s: %w", name, err)
			}
			content = string(b)
		}
		prompts[model.PromptName(name)] = content
	}
	return prompts, nil
}

// seedPrompts inserts any default prompt that has no row yet. Edited
// prompts are never overwritten.
func (s *SQLiteStore) seedPrompts() error {
	defaults, err := DefaultPrompts()
	if err != nil {
		return err
	}

	for name, content := range defaults {
		_, err := s.db.Exec(
			"INSERT OR IGNORE INTO prompts (name, content) VALUES (?, ?)",
			string(name), content,
		)
		if err != nil {
			return fmt.Errorf("seeding prompt %s: %w", name, err)
		}
	}
	return nil
}

// GetPrompts returns every stored prompt.
func (s *SQLiteStore) GetPrompts(ctx context.Context) (model.Prompts, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT name, content FROM prompts")
	if err != nil {
		return nil, fmt.Errorf("querying prompts: %w", err)
	}
	defer rows.Close()

	prompts := make(model.Prompts)
	for rows.Next() {
		var name, content string
		if err := rows.Scan(&name, &content); err != nil {
			return nil, fmt.Errorf("scanning prompt row: %w", err)
		}
		prompts[model.PromptName(name)] = content
	}

	return prompts, rows.Err()
}

// SavePrompt replaces the content of a known prompt. An empty content is
// allowed and makes the task fall back to its builtin instruction.
func (s *SQLiteStore) SavePrompt(ctx context.Context, name model.PromptName, content string) error {
	if !name.Valid() {
		return fmt.Errorf("saving prompt %q: %w", name, ErrUnknownPrompt)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO prompts (name, content, updated_at)
		VALUES (?, ?, ?)`,
		string(name), content, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving prompt %s: %w", name, err)
	}
	return nil
}
