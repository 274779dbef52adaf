package email

import (
	"context"
	"fmt"
	"slices"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/source"
)

// IMAPClient fetches recent messages over IMAP. It only ever opens the
// mailbox read-only and fetches bodies with BODY.PEEK, so no \Seen flags
// are set on the server.
type IMAPClient struct {
	host     string
	port     string
	username string
	password string
	mailbox  string
	limit    int
	tls      bool
}

var _ source.Fetcher = (*IMAPClient)(nil)

// NewIMAPClient creates a client from the IMAP section of the config.
func NewIMAPClient(cfg model.IMAPConfig) *IMAPClient {
	c := &IMAPClient{
		host:     cfg.Server,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		mailbox:  cfg.Mailbox,
		limit:    cfg.Limit,
		tls:      cfg.TLS,
	}
	if c.port == "" {
		c.port = "993"
	}
	if c.mailbox == "" {
		c.mailbox = DefaultMailbox
	}
	if c.limit < 1 || c.limit > MaxLimit {
		c.limit = DefaultLimit
	}
	return c
}

// Type returns the source type identifier for IMAP.
func (c *IMAPClient) Type() source.SourceType {
	return source.SourceTypeIMAP
}

// Configured reports whether server and credentials are all present.
func (c *IMAPClient) Configured() bool {
	return c.host != "" && c.username != "" && c.password != ""
}

// Connect establishes a connection to the IMAP server, authenticates,
// and returns the connected client. The caller is responsible for
// calling Logout on the returned client.
func (c *IMAPClient) Connect(
	_ context.Context,
) (*imapclient.Client, error) {
	if !c.Configured() {
		return nil, ErrMissingCredentials
	}

	addr := c.host + ":" + c.port

	var client *imapclient.Client
	var err error

	if c.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &source.AuthError{
			SourceType: source.SourceTypeIMAP,
			Message: fmt.Sprintf(
				"authentication failed for %s: %v",
				c.username, err,
			),
		}
	}

	return client, nil
}

// Fetch examines the mailbox and returns its last limit messages,
// newest first. Each email's id is its sequence number in the mailbox.
func (c *IMAPClient) Fetch(ctx context.Context) ([]model.Email, error) {
	client, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	// EXAMINE rather than SELECT.
	selected, err := client.Select(c.mailbox, &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		return nil, fmt.Errorf("examining %s: %w", c.mailbox, err)
	}

	seqs := lastSeqNums(selected.NumMessages, c.limit)
	if len(seqs) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(imap.SeqSetNum(seqs...), fetchOpts)
	defer fetchCmd.Close()

	var emails []model.Email
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			continue
		}

		emails = append(emails, emailFromMessage(
			buf.SeqNum, buf.Envelope, buf.FindBodySection(bodySection),
		))
	}

	if err := fetchCmd.Close(); err != nil {
		return emails, fmt.Errorf("fetching messages: %w", err)
	}

	slices.SortFunc(emails, func(a, b model.Email) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		default:
			return 0
		}
	})

	return emails, nil
}

// lastSeqNums returns the sequence numbers of the last limit messages in
// a mailbox holding total messages.
func lastSeqNums(total uint32, limit int) []uint32 {
	if total == 0 || limit <= 0 {
		return nil
	}

	start := uint32(1)
	if total > uint32(limit) {
		start = total - uint32(limit) + 1
	}

	seqs := make([]uint32, 0, total-start+1)
	for n := start; n <= total; n++ {
		seqs = append(seqs, n)
	}
	return seqs
}
