// Package inbox ships the sample inbox used when no mail server is
// configured.
package inbox

import (
	"bytes"
	_ "embed"
	"io"
)

//go:embed mock_emails.json
var mockEmails []byte

// Mock returns a reader over the bundled sample emails.
func Mock() io.Reader {
	return bytes.NewReader(mockEmails)
}
