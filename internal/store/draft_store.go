package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
)

// SaveDraft appends a draft and returns its id. Drafts are never updated.
func (s *SQLiteStore) SaveDraft(ctx context.Context, draft model.Draft) (int64, error) {
	if draft.Metadata == nil {
		draft.Metadata = map[string]any{}
	}
	metadata, err := json.Marshal(draft.Metadata)
	if err != nil {
		return 0, fmt.Errorf("marshaling draft metadata: %w", err)
	}

	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO drafts (email_id, subject, body, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		draft.EmailID, draft.Subject, draft.Body, string(metadata), draft.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("saving draft for email %d: %w", draft.EmailID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading draft id: %w", err)
	}
	return id, nil
}

// ListDrafts returns the drafts for an email, newest first.
func (s *SQLiteStore) ListDrafts(ctx context.Context, emailID int64) ([]model.Draft, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, email_id, subject, body, metadata, created_at
		FROM drafts
		WHERE email_id = ?
		ORDER BY id DESC`, emailID)
	if err != nil {
		return nil, fmt.Errorf("querying drafts for email %d: %w", emailID, err)
	}
	defer rows.Close()

	var drafts []model.Draft
	for rows.Next() {
		var (
			d         model.Draft
			metadata  string
			createdAt time.Time
		)
		if err := rows.Scan(&d.ID, &d.EmailID, &d.Subject, &d.Body, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning draft row: %w", err)
		}
		d.CreatedAt = createdAt
		meta, err := model.DecodeJSON([]byte(metadata))
		if err != nil {
			return nil, fmt.Errorf("unmarshaling draft metadata: %w", err)
		}
		d.Metadata, _ = meta.(map[string]any)
		drafts = append(drafts, d)
	}

	return drafts, rows.Err()
}
