package email

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
)

// emailFromMessage builds an Email from a fetched message. Envelope fields
// win when present; the message headers fill any gaps.
func emailFromMessage(seq uint32, env *imap.Envelope, raw []byte) model.Email {
	msg := parseMessage(raw)

	e := model.Email{
		ID:        int64(seq),
		Sender:    msg.from,
		Subject:   msg.subject,
		Timestamp: msg.date,
		Body:      msg.body,
	}

	if env != nil {
		if env.Subject != "" {
			e.Subject = env.Subject
		}
		if len(env.From) > 0 {
			e.Sender = formatAddress(env.From[0].Name, env.From[0].Addr())
		}
		if !env.Date.IsZero() {
			e.Timestamp = env.Date.Format(time.RFC3339)
		}
	}

	return e
}

// parsedMessage is what the MIME parser recovers from a raw message.
type parsedMessage struct {
	from    string
	subject string
	date    string
	body    string
}

// parseMessage decodes headers and picks the body: the first inline
// text/plain part, else the first inline part of any type. A message
// go-message cannot read is returned whole as the body.
func parseMessage(raw []byte) parsedMessage {
	var msg parsedMessage
	if len(raw) == 0 {
		return msg
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		msg.body = string(raw)
		return msg
	}
	defer mr.Close()

	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.from = formatAddress(from[0].Name, from[0].Address)
	} else {
		msg.from = mr.Header.Get("From")
	}

	if subject, err := mr.Header.Subject(); err == nil {
		msg.subject = subject
	}

	if date, err := mr.Header.Date(); err == nil && !date.IsZero() {
		msg.date = date.Format(time.RFC3339)
	} else {
		msg.date = mr.Header.Get("Date")
	}

	var fallback string
	haveFallback := false
	for {
		part, err := mr.NextPart()
		if err != nil {
			// io.EOF or a malformed part; keep what was found so far.
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		contentType, _, _ := h.ContentType()
		if contentType == "" || strings.HasPrefix(contentType, "text/plain") {
			msg.body = string(body)
			return msg
		}
		if !haveFallback {
			fallback, haveFallback = string(body), true
		}
	}

	msg.body = fallback
	return msg
}

// formatAddress renders "Name <addr>", or just addr when there is no name.
func formatAddress(name, addr string) string {
	if name == "" {
		return addr
	}
	if addr == "" {
		return name
	}
	return name + " <" + addr + ">"
}
