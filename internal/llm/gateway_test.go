package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestGatewayUnconfigured(t *testing.T) {
	var nilGateway *Gateway
	assert.False(t, nilGateway.Configured())

	g := NewGateway(nil, nil)
	text, ok := g.CallModel(context.Background(), nil, 0, 10)
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestGatewayCallModel(t *testing.T) {
	tests := []struct {
		name     string
		stub     *stubCompleter
		wantText string
		wantOK   bool
	}{
		{name: "answer", stub: &stubCompleter{reply: "hello"}, wantText: "hello", wantOK: true},
		{name: "empty answer", stub: &stubCompleter{}, wantText: "", wantOK: false},
		{
			name:     "error",
			stub:     &stubCompleter{err: errors.New("timeout")},
			wantText: "[OPENAI_ERROR] timeout",
			wantOK:   true,
		},
		{
			name:     "panic",
			stub:     &stubCompleter{panic: "boom"},
			wantText: "[OPENAI_ERROR] boom",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGateway(tt.stub, nil)
			text, ok := g.CallModel(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, 0.3, 50)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantText, text)
		})
	}
}

func TestGatewayLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	g := NewGateway(&stubCompleter{err: errors.New("denied")}, zap.New(core))

	g.CallModel(context.Background(), nil, 0, 10)

	entries := logs.FilterMessage("model call failed").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "denied", entries[0].ContextMap()["error"])
	}
}

func TestIsErrorSentinel(t *testing.T) {
	assert.True(t, IsErrorSentinel("[OPENAI_ERROR] nope"))
	assert.True(t, IsErrorSentinel("  [OPENAI_ERROR] nope"))
	assert.False(t, IsErrorSentinel("all good [OPENAI_ERROR]"))
	assert.False(t, IsErrorSentinel(""))
}
