package llm

import (
	"strings"

	"github.com/Bhavana-34/Prompt-Driven-Email/internal/model"
)

// ExtractStructured finds the first JSON object or array embedded in text
// and decodes it. The candidate span is greedy: it runs from the first
// opening brace (or bracket) to the last matching closer anywhere in the
// text, so only one block is ever considered and anything after it is
// ignored. If the span does not decode, it is retried once with single
// quotes swapped for double quotes, which recovers Python-style dict
// literals. The chain stops there; no further repair is attempted.
func ExtractStructured(text string) (any, bool) {
	span, ok := jsonSpan(text)
	if !ok {
		return nil, false
	}

	if v, ok := decodeJSON(span); ok {
		return v, true
	}
	if v, ok := decodeJSON(strings.ReplaceAll(span, "'", `"`)); ok {
		return v, true
	}
	return nil, false
}

// jsonSpan returns the leftmost candidate block. At each position an
// object start wins if a closing brace follows it somewhere later; an
// array start likewise needs a later closing bracket.
func jsonSpan(text string) (string, bool) {
	lastBrace := strings.LastIndexByte(text, '}')
	lastBracket := strings.LastIndexByte(text, ']')

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			if lastBrace > i {
				return text[i : lastBrace+1], true
			}
		case '[':
			if lastBracket > i {
				return text[i : lastBracket+1], true
			}
		}
	}
	return "", false
}

// decodeJSON unmarshals s into a generic value, keeping numbers exact.
func decodeJSON(s string) (any, bool) {
	v, err := model.DecodeJSON([]byte(s))
	if err != nil {
		return nil, false
	}
	return v, true
}
