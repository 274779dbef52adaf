package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/source"
)

type countingIngester struct {
	mu    gosync.Mutex
	calls int
	added int
	err   error
}

func (c *countingIngester) Ingest(context.Context) (int, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.added + 1, c.added, c.err
}

func TestPollerReportsFirstIngest(t *testing.T) {
	ing := &countingIngester{added: 3}
	p := New(ing, time.Hour, nil)
	t.Cleanup(p.Stop)

	cmd := p.Start()
	require.NotNil(t, cmd)

	msg, ok := cmd().(IngestResultMsg)
	require.True(t, ok)
	assert.NoError(t, msg.Error)
	assert.Equal(t, 4, msg.Fetched)
	assert.Equal(t, 3, msg.Added)
	assert.Equal(t, SyncIdle, p.Status().State)

	assert.Nil(t, p.Start(), "second Start is a no-op")
}

func TestPollerRefresh(t *testing.T) {
	ing := &countingIngester{}
	p := New(ing, time.Hour, nil)
	t.Cleanup(p.Stop)

	first := p.Start()
	first()

	p.Refresh()
	msg, ok := p.WaitForNextResult()().(IngestResultMsg)
	require.True(t, ok)
	assert.NoError(t, msg.Error)

	ing.mu.Lock()
	defer ing.mu.Unlock()
	assert.Equal(t, 2, ing.calls)
}

func TestPollerAuthError(t *testing.T) {
	ing := &countingIngester{err: &source.AuthError{SourceType: source.SourceTypeIMAP, Message: "bad password"}}
	p := New(ing, time.Hour, nil)
	t.Cleanup(p.Stop)

	msg, ok := p.Start()().(IngestResultMsg)
	require.True(t, ok)
	require.Error(t, msg.Error)
	require.NotNil(t, msg.AuthError)
	assert.Contains(t, msg.AuthError.Message, "bad password")
	assert.Equal(t, SyncError, p.Status().State)
}

func TestPollerPlainError(t *testing.T) {
	ing := &countingIngester{err: errors.New("dial tcp: timeout")}
	p := New(ing, time.Hour, nil)
	t.Cleanup(p.Stop)

	msg := p.Start()().(IngestResultMsg)
	assert.Error(t, msg.Error)
	assert.Nil(t, msg.AuthError)
}
