package llm

import "fmt"

// Task names a kind of model request.
type Task string

const (
	TaskCategorize Task = "categorize"
	TaskExtract    Task = "extract"
	TaskDraft      Task = "draft"
	TaskChat       Task = "chat"
)

// MockResponse returns the canned result for task. Every call builds a
// fresh value so callers may modify what they receive.
func MockResponse(task Task) any {
	switch task {
	case TaskCategorize:
		return map[string]any{
			"categories": []any{"Project Update"},
			"confidence": 0.85,
			"notes":      "Mentions deployment and schedule.",
		}
	case TaskExtract:
		return []any{
			map[string]any{
				"task":     "Investigate payment errors",
				"assignee": "on-call",
				"due":      "",
				"context":  "spike in 500s on payments.",
			},
		}
	case TaskDraft:
		return map[string]any{
			"subject":   "Re: (auto) ",
			"body":      "Thanks — I will take a look and follow up.",
			"followups": []any{},
		}
	default:
		return map[string]any{"result": "mock"}
	}
}

// MockChat is the chat answer given when no API key is configured.
func MockChat(query string) string {
	return "MOCK MODE — no OpenAI API key configured.\n" +
		fmt.Sprintf("Example response for query: %s\n\n", query) +
		"To enable real LLM answers set the environment variable " +
		"`OPENAI_API_KEY` or store the key in the system keyring " +
		"(emailagent set-key)."
}
