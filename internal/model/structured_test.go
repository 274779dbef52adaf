package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		value any
		shape Shape
		ok    bool
	}{
		{"object", map[string]any{"a": 1.0}, ShapeObject, true},
		{"list", []any{1.0}, ShapeList, true},
		{"string", "text", "", false},
		{"number", 42.0, "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := Normalize(tt.value)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if s.Shape != tt.shape {
				t.Errorf("expected shape %q, got %q", tt.shape, s.Shape)
			}
		})
	}
}

func TestStructuredJSONKeepsShape(t *testing.T) {
	for _, raw := range []string{`{"categories":["Urgent"]}`, `[{"task":"x"}]`} {
		var s Structured
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		out, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(out) != raw {
			t.Errorf("expected %s, got %s", raw, out)
		}
	}

	var s Structured
	if err := json.Unmarshal([]byte(`"scalar"`), &s); err == nil {
		t.Error("expected error for scalar payload")
	}
	if err := json.Unmarshal([]byte(`null`), &s); err != nil || !s.IsZero() {
		t.Errorf("expected null to decode to zero value, got %+v (%v)", s, err)
	}
}

func TestCategoryLabels(t *testing.T) {
	tests := []struct {
		name     string
		value    Structured
		expected []string
	}{
		{
			name:     "object with list",
			value:    ObjectOf(map[string]any{"categories": []any{"Project Update", "Urgent"}, "confidence": 0.85}),
			expected: []string{"Project Update", "Urgent"},
		},
		{
			name:     "object with single category",
			value:    ObjectOf(map[string]any{"category": "Newsletter"}),
			expected: []string{"Newsletter"},
		},
		{
			name:     "bare list",
			value:    ListOf([]any{"To-Do", " ", 3.0}),
			expected: []string{"To-Do", "3"},
		},
		{
			name:     "raw envelope",
			value:    RawText("not json"),
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.value.CategoryLabels()
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestActionItems(t *testing.T) {
	tests := []struct {
		name     string
		value    Structured
		expected []string
	}{
		{
			name: "list of objects",
			value: ListOf([]any{
				map[string]any{"task": "Investigate payment errors", "assignee": "on-call"},
				map[string]any{"raw": "free text"},
			}),
			expected: []string{"Investigate payment errors", "free text"},
		},
		{
			name:     "nested under tasks",
			value:    ObjectOf(map[string]any{"tasks": []any{map[string]any{"task": "Ship it"}}}),
			expected: []string{"Ship it"},
		},
		{
			name:     "single object",
			value:    ObjectOf(map[string]any{"task": "Reply to Bob", "due": "Friday"}),
			expected: []string{"Reply to Bob"},
		},
		{
			name:     "list of strings",
			value:    ListOf([]any{"Book room", nil}),
			expected: []string{"Book room"},
		},
		{
			name:     "object without task fields",
			value:    ObjectOf(map[string]any{"note": "nothing to do"}),
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := tt.value.ActionItems()
			got := make([]string, 0, len(items))
			for _, item := range items {
				got = append(got, item.Text())
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestDraftReply(t *testing.T) {
	d := ObjectOf(map[string]any{
		"subject":   "Re: Launch",
		"body":      "Sounds good.",
		"followups": []any{"Confirm date"},
	}).DraftReply()
	if d.Subject != "Re: Launch" || d.Body != "Sounds good." {
		t.Errorf("unexpected draft %+v", d)
	}
	if len(d.Followups) != 1 || d.Followups[0] != "Confirm date" {
		t.Errorf("unexpected followups %v", d.Followups)
	}

	raw := RawText("Plain reply").DraftReply()
	if raw.Body != "Plain reply" || raw.Subject != "" {
		t.Errorf("expected raw body fallback, got %+v", raw)
	}

	list := ListOf([]any{"a"}).DraftReply()
	if list.Body != `["a"]` {
		t.Errorf("expected JSON body for list, got %q", list.Body)
	}
}

func TestRaw(t *testing.T) {
	if text, ok := RawText("x").Raw(); !ok || text != "x" {
		t.Errorf("expected raw text, got %q %v", text, ok)
	}
	if text, ok := RawList("y").Raw(); !ok || text != "y" {
		t.Errorf("expected raw list text, got %q %v", text, ok)
	}
	if _, ok := ObjectOf(map[string]any{"raw": "x", "other": 1.0}).Raw(); ok {
		t.Error("expected multi-key object not to be a raw envelope")
	}
}

func TestDecodeJSONKeepsNumbers(t *testing.T) {
	v, err := DecodeJSON([]byte(`{"id": 9007199254740993}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected object, got %T", v)
	}
	if obj["id"] != json.Number("9007199254740993") {
		t.Errorf("expected exact id, got %v", obj["id"])
	}

	if _, err := DecodeJSON([]byte(`{"a": 1} {"b": 2}`)); err == nil {
		t.Error("expected error for trailing value")
	}
	if _, err := DecodeJSON([]byte(`{"a": 1`)); err == nil {
		t.Error("expected error for truncated object")
	}
}
