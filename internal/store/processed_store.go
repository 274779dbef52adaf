package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
)

// SaveProcessed stores the categorization and action items for an email,
// replacing any earlier result.
func (s *SQLiteStore) SaveProcessed(ctx context.Context, result model.ProcessedResult) error {
	categories, err := json.Marshal(result.Categories)
	if err != nil {
		return fmt.Errorf("marshaling categories for email %d: %w", result.EmailID, err)
	}
	tasks, err := json.Marshal(result.Tasks)
	if err != nil {
		return fmt.Errorf("marshaling tasks for email %d: %w", result.EmailID, err)
	}

	if result.ProcessedAt.IsZero() {
		result.ProcessedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO processed (email_id, categories, tasks, processed_at)
		VALUES (?, ?, ?, ?)`,
		result.EmailID, string(categories), string(tasks), result.ProcessedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving processed result for email %d: %w", result.EmailID, err)
	}
	return nil
}

// GetProcessed retrieves the stored result for an email.
func (s *SQLiteStore) GetProcessed(ctx context.Context, emailID int64) (*model.ProcessedResult, error) {
	row := s.db.QueryRowxContext(ctx,
		"SELECT email_id, categories, tasks, processed_at FROM processed WHERE email_id = ?", emailID)

	result, err := scanProcessed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting processed result for email %d: %w", emailID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting processed result for email %d: %w", emailID, err)
	}
	return &result, nil
}

// ListProcessed returns every stored result keyed by email id.
func (s *SQLiteStore) ListProcessed(ctx context.Context) (map[int64]model.ProcessedResult, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT email_id, categories, tasks, processed_at FROM processed")
	if err != nil {
		return nil, fmt.Errorf("querying processed results: %w", err)
	}
	defer rows.Close()

	results := make(map[int64]model.ProcessedResult)
	for rows.Next() {
		result, err := scanProcessed(rows)
		if err != nil {
			return nil, err
		}
		results[result.EmailID] = result
	}

	return results, rows.Err()
}

// rowScanner is satisfied by both *sqlx.Row and *sqlx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanProcessed scans a processed row and decodes its JSON columns.
func scanProcessed(row rowScanner) (model.ProcessedResult, error) {
	var (
		result      model.ProcessedResult
		categories  string
		tasks       string
		processedAt time.Time
	)

	if err := row.Scan(&result.EmailID, &categories, &tasks, &processedAt); err != nil {
		return model.ProcessedResult{}, err
	}
	result.ProcessedAt = processedAt

	if err := json.Unmarshal([]byte(categories), &result.Categories); err != nil {
		return model.ProcessedResult{}, fmt.Errorf("unmarshaling categories: %w", err)
	}
	if err := json.Unmarshal([]byte(tasks), &result.Tasks); err != nil {
		return model.ProcessedResult{}, fmt.Errorf("unmarshaling tasks: %w", err)
	}

	return result, nil
}
