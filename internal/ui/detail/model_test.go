package detail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
)

func TestNextToneCycles(t *testing.T) {
	tone := model.Tones[0]
	seen := []string{tone}
	for range model.Tones {
		tone = nextTone(tone)
		seen = append(seen, tone)
	}

	assert.Equal(t, model.Tones[0], seen[len(seen)-1])
	assert.Equal(t, model.Tones[1], seen[1])
	assert.Equal(t, model.Tones[0], nextTone("sarcastic"))
}

func TestRenderTasks(t *testing.T) {
	tasks, ok := model.Normalize([]any{
		map[string]any{"task": "Pay invoice", "assignee": "finance", "due": "Friday"},
		map[string]any{"raw": "Something unparsed"},
	})
	assert.True(t, ok)

	lines := renderTasks(tasks)
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Pay invoice")
	assert.Contains(t, lines[0], "@finance")
	assert.Contains(t, lines[0], "due Friday")
	assert.Contains(t, lines[1], "Something unparsed")

	empty := renderTasks(model.ListOf(nil))
	assert.Len(t, empty, 1)
	assert.Contains(t, empty[0], "No action items")
}

func TestRenderCategoriesFallsBackToRaw(t *testing.T) {
	out := renderCategories(model.RawText("model said something odd"))
	assert.True(t, strings.Contains(out, "model said something odd"))

	labels := renderCategories(model.ObjectOf(map[string]any{
		"categories": []any{"Finance"},
	}))
	assert.Contains(t, labels, "Finance")
}
