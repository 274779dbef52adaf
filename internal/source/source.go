package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
)

// AuthError indicates that authentication has failed for a source.
type AuthError struct {
	SourceType SourceType
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.SourceType, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// SourceType identifies where emails come from.
type SourceType string

const (
	SourceTypeIMAP SourceType = "imap"
	SourceTypeMock SourceType = "mock"
)

// Fetcher retrieves emails from a mailbox without modifying it.
type Fetcher interface {
	// Type returns the source type identifier.
	Type() SourceType

	// Fetch returns the most recent messages, newest first.
	Fetch(ctx context.Context) ([]model.Email, error)
}
