package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
	"github.com/Bhavana-34/Prompt-Driven-Email/internal/store"
	"github.com/Bhavana-34/Prompt-Driven-Email/tests/testutil"
)

func sampleEmails() []model.Email {
	return []model.Email{
		{ID: 1, Sender: "alice@example.com", Subject: "Deploy", Timestamp: "2025-11-10T09:00:00", Body: "Deploy moved."},
		{ID: 2, Sender: "bob@example.com", Subject: "Invoice", Timestamp: "2025-11-12T14:30:00", Body: "Invoice attached."},
		{ID: 3, Sender: "carol@example.com", Subject: "Lunch", Timestamp: "2025-11-11T12:00:00", Body: "Lunch?"},
	}
}

func TestSaveEmailsSkipsExisting(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	added, err := s.SaveEmails(ctx, sampleEmails())
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	changed := model.Email{ID: 1, Sender: "mallory@example.com", Subject: "Overwritten", Timestamp: "2030-01-01T00:00:00"}
	added, err = s.SaveEmails(ctx, []model.Email{changed, {ID: 4, Subject: "New"}})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	got, err := s.GetEmail(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Sender)
	assert.Equal(t, "Deploy", got.Subject)
}

func TestListEmailsNewestFirst(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.SaveEmails(ctx, sampleEmails())
	require.NoError(t, err)

	emails, err := s.ListEmails(ctx)
	require.NoError(t, err)

	var ids []int64
	for _, e := range emails {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []int64{2, 3, 1}, ids)
}

func TestGetEmailNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.GetEmail(context.Background(), 42)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestLoadMockEmails(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	input := `[
		{"id": 10, "sender": "ops@example.com", "subject": "Outage", "timestamp": "2025-11-01T08:00:00", "body": "Payments down."},
		{"id": 11, "sender": "hr@example.com", "subject": "Survey", "timestamp": "2025-11-02T08:00:00", "body": "Please fill."}
	]`

	added, err := s.LoadMockEmails(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = s.LoadMockEmails(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	_, err = s.LoadMockEmails(ctx, strings.NewReader(`{"not": "a list"}`))
	assert.Error(t, err)
}

func TestProcessedRoundTripKeepsShape(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.SaveEmails(ctx, sampleEmails())
	require.NoError(t, err)

	first := model.ProcessedResult{
		EmailID:    1,
		Categories: model.ObjectOf(map[string]any{"categories": []any{"Project Update"}}),
		Tasks:      model.ListOf([]any{map[string]any{"task": "Review deploy"}}),
	}
	require.NoError(t, s.SaveProcessed(ctx, first))

	got, err := s.GetProcessed(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.ShapeObject, got.Categories.Shape)
	assert.Equal(t, []string{"Project Update"}, got.Categories.CategoryLabels())
	assert.Equal(t, model.ShapeList, got.Tasks.Shape)
	assert.False(t, got.ProcessedAt.IsZero())

	// Reprocessing replaces the row, including a change of shape.
	second := model.ProcessedResult{
		EmailID:    1,
		Categories: model.ListOf([]any{"Billing"}),
		Tasks:      model.RawList("nothing to do"),
	}
	require.NoError(t, s.SaveProcessed(ctx, second))

	got, err = s.GetProcessed(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.ShapeList, got.Categories.Shape)
	assert.Equal(t, []string{"Billing"}, got.Categories.CategoryLabels())

	all, err := s.ListProcessed(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = s.GetProcessed(ctx, 2)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestProcessedKeepsLargeIntegers(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.SaveEmails(ctx, sampleEmails())
	require.NoError(t, err)

	var categories, tasks model.Structured
	require.NoError(t, json.Unmarshal([]byte(`{"categories": ["Billing"], "invoice": 9007199254740993}`), &categories))
	require.NoError(t, json.Unmarshal([]byte(`[{"task": "Pay", "ref": 18446744073709551615}]`), &tasks))

	require.NoError(t, s.SaveProcessed(ctx, model.ProcessedResult{
		EmailID:    2,
		Categories: categories,
		Tasks:      tasks,
	}))

	got, err := s.GetProcessed(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, `{"categories":["Billing"],"invoice":9007199254740993}`, got.Categories.String())
	assert.Equal(t, `[{"ref":18446744073709551615,"task":"Pay"}]`, got.Tasks.String())

	_, err = s.SaveDraft(ctx, model.Draft{
		EmailID:  2,
		Subject:  "Re: Invoice",
		Body:     "Paid.",
		Metadata: map[string]any{"invoice": json.Number("9007199254740993")},
	})
	require.NoError(t, err)

	drafts, err := s.ListDrafts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, json.Number("9007199254740993"), drafts[0].Metadata["invoice"])
}

func TestDraftsAppendNewestFirst(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.SaveEmails(ctx, sampleEmails())
	require.NoError(t, err)

	firstID, err := s.SaveDraft(ctx, model.Draft{
		EmailID: 2, Subject: "Re: Invoice", Body: "Paid.",
		Metadata: map[string]any{"generated_by": "mock", "tone": "friendly"},
	})
	require.NoError(t, err)
	secondID, err := s.SaveDraft(ctx, model.Draft{EmailID: 2, Subject: "Re: Invoice", Body: "Paying today."})
	require.NoError(t, err)
	assert.Greater(t, secondID, firstID)

	drafts, err := s.ListDrafts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "Paying today.", drafts[0].Body)
	assert.Equal(t, map[string]any{}, drafts[0].Metadata)
	assert.Equal(t, map[string]any{"generated_by": "mock", "tone": "friendly"}, drafts[1].Metadata)

	none, err := s.ListDrafts(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPromptsSeededAndEditable(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	prompts, err := s.GetPrompts(ctx)
	require.NoError(t, err)
	for _, name := range model.PromptNames {
		assert.NotEmpty(t, prompts.Get(name), name)
	}
	assert.Contains(t, prompts.Get(model.PromptAutoReply), "{{tone}}")

	require.NoError(t, s.SavePrompt(ctx, model.PromptCategorization, "Label it."))
	prompts, err = s.GetPrompts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Label it.", prompts.Get(model.PromptCategorization))

	err = s.SavePrompt(ctx, model.PromptName("summary_prompt"), "x")
	assert.True(t, errors.Is(err, store.ErrUnknownPrompt))
}

func TestChatHistoryBySession(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendChat(ctx,
		model.ChatMessage{SessionID: "a", EmailID: 1, Role: model.ChatRoleUser, Content: "Summarize"},
		model.ChatMessage{SessionID: "a", EmailID: 1, Role: model.ChatRoleAssistant, Content: "Deploy moved."},
		model.ChatMessage{SessionID: "b", EmailID: 2, Role: model.ChatRoleUser, Content: "Who pays?"},
	))

	history, err := s.ChatHistory(ctx, "a")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.ChatRoleUser, history[0].Role)
	assert.Equal(t, "Deploy moved.", history[1].Content)
	assert.Equal(t, int64(1), history[1].EmailID)

	empty, err := s.ChatHistory(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDefaultPrompts(t *testing.T) {
	defaults, err := store.DefaultPrompts()
	require.NoError(t, err)
	assert.Len(t, defaults, len(model.PromptNames))
	for name := range defaults {
		assert.True(t, name.Valid(), name)
	}
}
