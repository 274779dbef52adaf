package inbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"2025-11-12T09:30:00", true},
		{"2025-11-12T09:30:00Z", true},
		{"2025-11-12 09:30:00", true},
		{"Wed, 12 Nov 2025 09:30:00 +0000", true},
		{"yesterday", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, ok := parseTimestamp(tt.in)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Now().UTC()

	assert.Equal(t, "just now", relativeTime(now.Format(time.RFC3339)))
	assert.Equal(t, "5m ago", relativeTime(now.Add(-5*time.Minute-time.Second).Format(time.RFC3339)))
	assert.Equal(t, "1h ago", relativeTime(now.Add(-90*time.Minute).Format(time.RFC3339)))
	assert.Equal(t, "3d ago", relativeTime(now.Add(-73*time.Hour).Format(time.RFC3339)))
	assert.Equal(t, "not a date", relativeTime("not a date"))

	old := time.Date(2020, 3, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Mar 04, 2020", relativeTime(old.Format(time.RFC3339)))
}

func TestEmailItemText(t *testing.T) {
	item := EmailItem{
		Email:      model.Email{Sender: "ops@example.com", Timestamp: "garbled"},
		Categories: []string{"Urgent", "Ops"},
	}

	assert.Equal(t, "(no subject)", item.Title())
	assert.Equal(t, "ops@example.com | garbled | Urgent, Ops", item.Description())
	assert.Contains(t, item.FilterValue(), "ops@example.com")
}
