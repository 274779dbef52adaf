package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturedRequest is what the fake endpoint saw.
type capturedRequest struct {
	Path   string
	Auth   string
	Body   map[string]any
	Called bool
}

func newCompletionServer(t *testing.T, status int, payload string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Called = true
		captured.Path = r.URL.Path
		captured.Auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&captured.Body); err != nil {
			t.Errorf("decoding request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)

	return srv, captured
}

const okCompletion = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"model": "gpt-4",
	"choices": [
		{"index": 0, "message": {"role": "assistant", "content": "{\"categories\": [\"Work\"]}"}, "finish_reason": "stop"}
	]
}`

func adapterConfigs(baseURL string) map[string]Config {
	base := Config{APIKey: "sk-test", Model: "gpt-4", BaseURL: baseURL, Timeout: 5 * time.Second}
	openaiCfg, legacyCfg := base, base
	openaiCfg.Client = ClientOpenAI
	legacyCfg.Client = ClientLegacy
	return map[string]Config{ClientOpenAI: openaiCfg, ClientLegacy: legacyCfg}
}

func TestNewCompleterSelectsAdapter(t *testing.T) {
	assert.Nil(t, NewCompleter(Config{}))
	assert.Nil(t, NewCompleter(Config{APIKey: "k", ForceMock: true}))

	assert.IsType(t, &OpenAIClient{}, NewCompleter(Config{APIKey: "k"}))
	assert.IsType(t, &OpenAIClient{}, NewCompleter(Config{APIKey: "k", Client: ClientOpenAI}))
	assert.IsType(t, &LegacyClient{}, NewCompleter(Config{APIKey: "k", Client: ClientLegacy}))
}

func TestAdaptersSendRequest(t *testing.T) {
	for name, cfg := range adapterConfigs("") {
		t.Run(name, func(t *testing.T) {
			srv, captured := newCompletionServer(t, http.StatusOK, okCompletion)
			cfg.BaseURL = srv.URL

			text, err := NewCompleter(cfg).Complete(context.Background(), []Message{
				{Role: RoleSystem, Content: "Classify."},
				{Role: RoleUser, Content: "Quarterly numbers attached."},
			}, 0.4, 700)

			require.NoError(t, err)
			assert.Equal(t, `{"categories": ["Work"]}`, text)

			require.True(t, captured.Called)
			assert.Equal(t, "/chat/completions", captured.Path)
			assert.Equal(t, "Bearer sk-test", captured.Auth)
			assert.Equal(t, "gpt-4", captured.Body["model"])
			assert.EqualValues(t, 700, captured.Body["max_tokens"])
			assert.InDelta(t, 0.4, captured.Body["temperature"], 1e-6)

			msgs, ok := captured.Body["messages"].([]any)
			require.True(t, ok)
			require.Len(t, msgs, 2)
			first := msgs[0].(map[string]any)
			assert.Equal(t, "system", first["role"])
			assert.Equal(t, "Classify.", first["content"])
		})
	}
}

func TestAdaptersSendZeroTemperature(t *testing.T) {
	for name, cfg := range adapterConfigs("") {
		t.Run(name, func(t *testing.T) {
			srv, captured := newCompletionServer(t, http.StatusOK, okCompletion)
			cfg.BaseURL = srv.URL

			_, err := NewCompleter(cfg).Complete(context.Background(),
				[]Message{{Role: RoleUser, Content: "hi"}}, 0, 300)
			require.NoError(t, err)

			temp, ok := captured.Body["temperature"]
			require.True(t, ok, "temperature must be sent explicitly")
			assert.InDelta(t, 0, temp, 1e-6)
		})
	}
}

func TestAdaptersReportAPIErrors(t *testing.T) {
	payload := `{"error": {"type": "rate_limit_error", "message": "slow down"}}`

	for name, cfg := range adapterConfigs("") {
		t.Run(name, func(t *testing.T) {
			srv, _ := newCompletionServer(t, http.StatusTooManyRequests, payload)
			cfg.BaseURL = srv.URL

			_, err := NewCompleter(cfg).Complete(context.Background(),
				[]Message{{Role: RoleUser, Content: "hi"}}, 0, 300)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "slow down")
		})
	}
}

func TestAdaptersRejectEmptyChoices(t *testing.T) {
	for name, cfg := range adapterConfigs("") {
		t.Run(name, func(t *testing.T) {
			srv, _ := newCompletionServer(t, http.StatusOK, `{"id": "x", "choices": []}`)
			cfg.BaseURL = srv.URL

			_, err := NewCompleter(cfg).Complete(context.Background(),
				[]Message{{Role: RoleUser, Content: "hi"}}, 0, 300)
			assert.Error(t, err)
		})
	}
}

func TestGatewayOverHTTPFailureYieldsSentinel(t *testing.T) {
	srv, _ := newCompletionServer(t, http.StatusInternalServerError, `{"error": {"message": "upstream down"}}`)
	cfg := adapterConfigs(srv.URL)[ClientLegacy]

	a := New(cfg, nil)
	raw, ok := a.Categorize(context.Background(), "body", "").Raw()

	require.True(t, ok)
	assert.True(t, IsErrorSentinel(raw))
	assert.Contains(t, raw, "upstream down")
}
