package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
)

// SaveEmails inserts the emails whose id is not already stored. Existing
// rows are left untouched; the number of new rows is returned.
func (s *SQLiteStore) SaveEmails(ctx context.Context, emails []model.Email) (int, error) {
	if len(emails) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT OR IGNORE INTO emails (id, sender, subject, timestamp, body)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	added := 0
	for _, e := range emails {
		res, err := stmt.ExecContext(ctx, e.ID, e.Sender, e.Subject, e.Timestamp, e.Body)
		if err != nil {
			return 0, fmt.Errorf("inserting email %d: %w", e.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("checking insert of email %d: %w", e.ID, err)
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing emails: %w", err)
	}
	return added, nil
}

// LoadMockEmails reads a JSON array of emails from r and saves them.
func (s *SQLiteStore) LoadMockEmails(ctx context.Context, r io.Reader) (int, error) {
	var emails []model.Email
	if err := json.NewDecoder(r).Decode(&emails); err != nil {
		return 0, fmt.Errorf("decoding mock emails: %w", err)
	}
	return s.SaveEmails(ctx, emails)
}

// ListEmails returns every stored email, newest timestamp first.
func (s *SQLiteStore) ListEmails(ctx context.Context) ([]model.Email, error) {
	var emails []model.Email
	err := s.db.SelectContext(ctx, &emails, `
		SELECT id, sender, subject, timestamp, body
		FROM emails
		ORDER BY timestamp DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying emails: %w", err)
	}
	return emails, nil
}

// GetEmail retrieves a single email by id.
func (s *SQLiteStore) GetEmail(ctx context.Context, id int64) (*model.Email, error) {
	var e model.Email
	err := s.db.GetContext(ctx, &e,
		"SELECT id, sender, subject, timestamp, body FROM emails WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting email %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting email %d: %w", id, err)
	}
	return &e, nil
}
