package triage_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/llm"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/source"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/store"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/triage"
	"github.com/Bhavana-34/Prompt-Driven-Email/tests/testutil"
)

// scriptedCompleter answers with a fixed reply and records system prompts.
type scriptedCompleter struct {
	reply   string
	err     error
	systems []string
	users   []string
}

func (c *scriptedCompleter) Complete(
	_ context.Context,
	messages []llm.Message,
	_ float32,
	_ int,
) (string, error) {
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			c.systems = append(c.systems, m.Content)
		case llm.RoleUser:
			c.users = append(c.users, m.Content)
		}
	}
	return c.reply, c.err
}

type fakeFetcher struct {
	emails []model.Email
	err    error
}

func (f *fakeFetcher) Type() source.SourceType { return source.SourceTypeIMAP }

func (f *fakeFetcher) Fetch(context.Context) ([]model.Email, error) {
	return f.emails, f.err
}

var fixedNow = time.Date(2025, 11, 12, 15, 0, 0, 0, time.UTC)

func newService(t *testing.T, c llm.Completer, opts ...triage.Option) *triage.Service {
	t.Helper()

	var assistant *llm.Assistant
	if c == nil {
		assistant = llm.New(llm.Config{}, nil)
	} else {
		assistant = llm.NewWithGateway(llm.NewGateway(c, nil), nil)
	}

	opts = append(opts, triage.WithClock(func() time.Time { return fixedNow }))
	svc := triage.NewService(testutil.NewTestStore(t), assistant, opts...)

	_, err := svc.LoadMock(context.Background())
	require.NoError(t, err)
	return svc
}

func TestLoadMockIsIdempotent(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	added, err := svc.LoadMock(ctx)
	require.NoError(t, err)
	assert.Zero(t, added)

	emails, err := svc.Emails(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, emails)
	for i := 1; i < len(emails); i++ {
		assert.GreaterOrEqual(t, emails[i-1].Timestamp, emails[i].Timestamp)
	}
}

func TestLoadInboxSkipsKnownIDs(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	data := `[
		{"id": 1, "sender": "dup@example.com", "subject": "dup", "timestamp": "2025-01-01T00:00:00", "body": "x"},
		{"id": 100, "sender": "new@example.com", "subject": "fresh", "timestamp": "2030-01-01T00:00:00", "body": "hello"}
	]`
	added, err := svc.LoadInbox(ctx, strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	first, err := svc.Email(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, "dup", first.Subject)

	emails, err := svc.Emails(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), emails[0].ID)
}

func TestLoadInboxRejectsMalformedJSON(t *testing.T) {
	svc := newService(t, nil)

	_, err := svc.LoadInbox(context.Background(), strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestLoadInboxLogsMockSource(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	newService(t, nil, triage.WithLogger(zap.New(core)))

	entries := logs.FilterMessage("inbox loaded").All()
	require.Len(t, entries, 1)
	assert.Equal(t, string(source.SourceTypeMock), entries[0].ContextMap()["source"])
}

func TestProcessInMockMode(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()
	require.True(t, svc.MockMode())

	result, err := svc.Process(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Project Update"}, result.Categories.CategoryLabels())
	require.Len(t, result.Tasks.ActionItems(), 1)
	assert.Equal(t, "Investigate payment errors", result.Tasks.ActionItems()[0].Task)

	stored, err := svc.Processed(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, result.Categories, stored.Categories)
	assert.True(t, fixedNow.Equal(stored.ProcessedAt))

	none, err := svc.Processed(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestProcessUsesStoredPrompts(t *testing.T) {
	c := &scriptedCompleter{reply: `{"categories": ["Billing"]}`}
	svc := newService(t, c)
	ctx := context.Background()

	require.NoError(t, svc.SavePrompt(ctx, model.PromptCategorization, "Only say Billing."))

	result, err := svc.Process(ctx, 3)
	require.NoError(t, err)

	require.Len(t, c.systems, 2)
	assert.Equal(t, "Only say Billing.", c.systems[0])
	assert.Contains(t, c.users[0], "INV-2291")
	assert.Equal(t, []string{"Billing"}, result.Categories.CategoryLabels())
}

func TestProcessMissingEmail(t *testing.T) {
	svc := newService(t, nil)

	_, err := svc.Process(context.Background(), 999)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestDraftInMockMode(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	res, err := svc.Draft(ctx, 2, "")
	require.NoError(t, err)
	assert.NotZero(t, res.Draft.ID)
	assert.Equal(t, "Re: (auto) ", res.Draft.Subject)
	assert.Equal(t, map[string]any{"generated_by": "mock", "tone": "friendly"}, res.Draft.Metadata)

	drafts, err := svc.Drafts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, res.Draft.Body, drafts[0].Body)
}

func TestDraftFallsBackToEmailSubject(t *testing.T) {
	c := &scriptedCompleter{reply: "Thanks, we will pay on Friday."}
	svc := newService(t, c)
	ctx := context.Background()

	res, err := svc.Draft(ctx, 3, "formal")
	require.NoError(t, err)

	assert.Equal(t, "Re: Invoice INV-2291 overdue", res.Draft.Subject)
	assert.Equal(t, "Thanks, we will pay on Friday.", res.Draft.Body)
	assert.Equal(t, "llm", res.Draft.Metadata["generated_by"])
	assert.Equal(t, "formal", res.Draft.Metadata["tone"])
	require.Len(t, c.systems, 1)
	assert.Contains(t, c.systems[0], "formal tone")
	assert.NotContains(t, c.systems[0], "{{tone}}")
}

func TestDraftsAccumulate(t *testing.T) {
	svc := newService(t, nil)
	ctx := context.Background()

	for _, tone := range model.Tones {
		_, err := svc.Draft(ctx, 5, tone)
		require.NoError(t, err)
	}

	drafts, err := svc.Drafts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, drafts, len(model.Tones))
	assert.Equal(t, model.Tones[len(model.Tones)-1], drafts[0].Metadata["tone"])
}

func TestChatRecordsHistory(t *testing.T) {
	c := &scriptedCompleter{reply: "The deploy is on Thursday."}
	svc := newService(t, c)
	ctx := context.Background()

	answer, session, err := svc.Chat(ctx, "", 1, "When is the deploy?")
	require.NoError(t, err)
	assert.Equal(t, "The deploy is on Thursday.", answer)
	assert.NotEmpty(t, session)

	_, again, err := svc.Chat(ctx, session, 1, "Who sent it?")
	require.NoError(t, err)
	assert.Equal(t, session, again)

	history, err := svc.History(ctx, session)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, model.ChatRoleUser, history[0].Role)
	assert.Equal(t, "When is the deploy?", history[0].Content)
	assert.Equal(t, model.ChatRoleAssistant, history[1].Role)
	assert.Equal(t, "Who sent it?", history[2].Content)

	assert.True(t, strings.HasPrefix(c.users[0], "Email content:\n"))
}

func TestChatKeepsSentinelInHistory(t *testing.T) {
	c := &scriptedCompleter{err: errors.New("quota exceeded")}
	svc := newService(t, c)
	ctx := context.Background()

	answer, session, err := svc.Chat(ctx, "", 1, "Summarize")
	require.NoError(t, err)
	assert.True(t, llm.IsErrorSentinel(answer))

	history, err := svc.History(ctx, session)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, answer, history[1].Content)
}

func TestChatInMockMode(t *testing.T) {
	svc := newService(t, nil)

	answer, _, err := svc.Chat(context.Background(), "", 1, "What now?")
	require.NoError(t, err)
	assert.Equal(t, llm.MockChat("What now?"), answer)
}

func TestSavePromptRejectsUnknownName(t *testing.T) {
	svc := newService(t, nil)

	err := svc.SavePrompt(context.Background(), "summary_prompt", "x")
	assert.True(t, errors.Is(err, store.ErrUnknownPrompt))
}

func TestTestPromptDoesNotPersist(t *testing.T) {
	c := &scriptedCompleter{reply: `[{"task": "Send capacity estimates"}]`}
	svc := newService(t, c)
	ctx := context.Background()

	res, err := svc.TestPrompt(ctx, model.PromptActionItems, "List tasks.", "Bring estimates.", "")
	require.NoError(t, err)
	assert.Equal(t, "Send capacity estimates", res.Structured.ActionItems()[0].Task)
	assert.Equal(t, "List tasks.", c.systems[0])

	prompts, err := svc.Prompts(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, "List tasks.", prompts.Get(model.PromptActionItems))

	all, err := svc.AllProcessed(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTestPromptChatUsesSummaryQuery(t *testing.T) {
	c := &scriptedCompleter{reply: "Short summary."}
	svc := newService(t, c)

	res, err := svc.TestPrompt(context.Background(), model.PromptChatSystem, "", "Body text", "")
	require.NoError(t, err)
	assert.Equal(t, "Short summary.", res.Text)
	require.Len(t, c.users, 1)
	assert.Equal(t, llm.ChatUserMessage("Body text", triage.TestChatQuery), c.users[0])

	_, err = svc.TestPrompt(context.Background(), "nope", "", "x", "")
	assert.True(t, errors.Is(err, store.ErrUnknownPrompt))
}

func TestIngest(t *testing.T) {
	fetcher := &fakeFetcher{emails: []model.Email{
		{ID: 101, Sender: "x@example.com", Subject: "New", Timestamp: "2025-11-13T08:00:00Z"},
		{ID: 1, Sender: "dup@example.com", Subject: "Duplicate id"},
	}}
	svc := newService(t, nil, triage.WithFetcher(fetcher))
	ctx := context.Background()

	fetched, added, err := svc.Ingest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fetched)
	assert.Equal(t, 1, added)

	e, err := svc.Email(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, "Duplicate id", e.Subject)

	fetcher.err = &source.AuthError{SourceType: source.SourceTypeIMAP, Message: "bad password"}
	_, _, err = svc.Ingest(ctx)
	assert.True(t, source.IsAuthError(err))
}

func TestIngestWithoutSource(t *testing.T) {
	svc := newService(t, nil)

	_, _, err := svc.Ingest(context.Background())
	assert.True(t, errors.Is(err, triage.ErrNoSource))
}
