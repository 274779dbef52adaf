package email

import (
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
)

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

const multipartMessage = `From: "Priya Nair" <priya@example.com>
To: team@example.com
Subject: =?utf-8?q?Deploy_moved_=E2=9C=93?=
Date: Mon, 10 Nov 2025 09:12:00 +0000
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="outer"

--outer
Content-Type: multipart/alternative; boundary="inner"

--inner
Content-Type: text/html; charset=utf-8

<p>Deploy moved to <b>Thursday</b>.</p>
--inner
Content-Type: text/plain; charset=utf-8

Deploy moved to Thursday.
--inner--
--outer
Content-Type: text/plain; name="notes.txt"
Content-Disposition: attachment; filename="notes.txt"

attachment text
--outer--
`

func TestParseMessagePrefersPlainText(t *testing.T) {
	msg := parseMessage(crlf(multipartMessage))

	assert.Equal(t, "Priya Nair <priya@example.com>", msg.from)
	assert.Equal(t, "Deploy moved ✓", msg.subject)
	assert.Equal(t, "2025-11-10T09:12:00Z", msg.date)
	assert.Equal(t, "Deploy moved to Thursday.", strings.TrimSpace(msg.body))
}

func TestParseMessageHTMLOnly(t *testing.T) {
	raw := crlf(`From: alerts@example.com
Subject: Alert
Content-Type: text/html; charset=utf-8

<p>Error rate high</p>
`)
	msg := parseMessage(raw)

	assert.Equal(t, "alerts@example.com", msg.from)
	assert.Contains(t, msg.body, "Error rate high")
}

func TestParseMessageLatin1(t *testing.T) {
	raw := []byte("From: a@example.com\r\nSubject: Caf\xe9\r\n" +
		"Content-Type: text/plain; charset=iso-8859-1\r\n\r\nCaf\xe9 au lait\r\n")

	msg := parseMessage(raw)
	assert.Equal(t, "Café au lait", strings.TrimSpace(msg.body))
}

func TestParseMessageBadDateKeepsRawHeader(t *testing.T) {
	raw := crlf(`From: a@example.com
Subject: hi
Date: sometime last week

body
`)
	msg := parseMessage(raw)
	assert.Equal(t, "sometime last week", msg.date)
}

func TestEmailFromMessageUsesEnvelope(t *testing.T) {
	env := &imap.Envelope{
		Subject: "Envelope subject",
		Date:    time.Date(2025, 11, 12, 14, 30, 0, 0, time.UTC),
		From:    []imap.Address{{Name: "Bob", Mailbox: "bob", Host: "example.com"}},
	}

	got := emailFromMessage(17, env, crlf(multipartMessage))

	assert.Equal(t, model.Email{
		ID:        17,
		Sender:    "Bob <bob@example.com>",
		Subject:   "Envelope subject",
		Timestamp: "2025-11-12T14:30:00Z",
		Body:      got.Body,
	}, got)
	assert.Contains(t, got.Body, "Deploy moved to Thursday.")
}

func TestEmailFromMessageWithoutBody(t *testing.T) {
	got := emailFromMessage(3, &imap.Envelope{Subject: "Only envelope"}, nil)
	assert.Equal(t, model.Email{ID: 3, Subject: "Only envelope"}, got)
}

func TestLastSeqNums(t *testing.T) {
	tests := []struct {
		total uint32
		limit int
		want  []uint32
	}{
		{total: 0, limit: 5, want: nil},
		{total: 3, limit: 5, want: []uint32{1, 2, 3}},
		{total: 10, limit: 3, want: []uint32{8, 9, 10}},
		{total: 4, limit: 0, want: nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, lastSeqNums(tt.total, tt.limit))
	}
}

func TestNewIMAPClientDefaults(t *testing.T) {
	c := NewIMAPClient(model.IMAPConfig{Server: "imap.example.com", Limit: 9000})

	assert.Equal(t, "993", c.port)
	assert.Equal(t, DefaultMailbox, c.mailbox)
	assert.Equal(t, DefaultLimit, c.limit)
	assert.False(t, c.Configured())

	_, err := c.Fetch(t.Context())
	require.ErrorIs(t, err, ErrMissingCredentials)
}
