package model

// PromptName identifies one of the editable prompt templates.
type PromptName string

const (
	PromptCategorization PromptName = "categorization_prompt"
	PromptActionItems    PromptName = "action_item_prompt"
	PromptAutoReply      PromptName = "auto_reply_prompt"
	PromptChatSystem     PromptName = "chat_system_instructions"
)

// PromptNames lists every known prompt in display order.
var PromptNames = []PromptName{
	PromptCategorization,
	PromptActionItems,
	PromptAutoReply,
	PromptChatSystem,
}

// Valid reports whether n is one of the known prompt names.
func (n PromptName) Valid() bool {
	for _, known := range PromptNames {
		if n == known {
			return true
		}
	}
	return false
}

// Label returns a human-readable title for the prompt.
func (n PromptName) Label() string {
	switch n {
	case PromptCategorization:
		return "Categorization Prompt"
	case PromptActionItems:
		return "Action Extraction Prompt"
	case PromptAutoReply:
		return "Auto-reply Prompt"
	case PromptChatSystem:
		return "Chat System Instructions"
	default:
		return string(n)
	}
}

// Prompts maps prompt names to their current content.
type Prompts map[PromptName]string

// Get returns the content for name, or "" when unset.
func (p Prompts) Get(name PromptName) string {
	if p == nil {
		return ""
	}
	return p[name]
}

// Tones are the reply styles offered for draft generation.
var Tones = []string{"friendly", "professional", "concise", "formal"}

// DefaultTone is used when a caller does not pick one.
const DefaultTone = "friendly"
