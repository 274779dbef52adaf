package email

import "errors"

// ErrMissingCredentials is returned when ingest is attempted without a
// server, username or password.
var ErrMissingCredentials = errors.New("IMAP server, username and password are required")

// Default fetch settings.
const (
	DefaultMailbox = "INBOX"
	DefaultLimit   = 50
	MaxLimit       = 500
)
