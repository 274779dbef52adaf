package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Shape tags which half of a Structured value is populated.
type Shape string

const (
	ShapeObject Shape = "object"
	ShapeList   Shape = "list"
)

// Structured is a model-produced JSON value whose layout is not fixed:
// the model may answer with an object or an array. It is stored exactly as
// received; the typed views below (CategoryLabels, ActionItems, DraftReply)
// are the only places that branch on the shape.
type Structured struct {
	Shape  Shape
	Object map[string]any
	List   []any
}

// ObjectOf wraps a JSON object.
func ObjectOf(m map[string]any) Structured {
	if m == nil {
		m = map[string]any{}
	}
	return Structured{Shape: ShapeObject, Object: m}
}

// ListOf wraps a JSON array.
func ListOf(l []any) Structured {
	if l == nil {
		l = []any{}
	}
	return Structured{Shape: ShapeList, List: l}
}

// RawText wraps unparseable model output as {"raw": text}.
func RawText(text string) Structured {
	return ObjectOf(map[string]any{"raw": text})
}

// RawList wraps unparseable model output as [{"raw": text}].
func RawList(text string) Structured {
	return ListOf([]any{map[string]any{"raw": text}})
}

// Normalize tags a decoded JSON value. Only objects and arrays are
// accepted; scalars report false.
func Normalize(v any) (Structured, bool) {
	switch t := v.(type) {
	case map[string]any:
		return ObjectOf(t), true
	case []any:
		return ListOf(t), true
	default:
		return Structured{}, false
	}
}

// IsZero reports whether no value has been set.
func (s Structured) IsZero() bool {
	return s.Shape == ""
}

// Value returns the underlying object or array.
func (s Structured) Value() any {
	switch s.Shape {
	case ShapeObject:
		return s.Object
	case ShapeList:
		return s.List
	default:
		return nil
	}
}

// Raw returns the wrapped text when s is a {"raw": ...} envelope,
// either on its own or as the single element of a list.
func (s Structured) Raw() (string, bool) {
	obj := s.Object
	if s.Shape == ShapeList && len(s.List) == 1 {
		obj, _ = s.List[0].(map[string]any)
	}
	if len(obj) != 1 {
		return "", false
	}
	raw, ok := obj["raw"].(string)
	return raw, ok
}

// MarshalJSON encodes the underlying value unchanged; an unset value
// encodes as null.
func (s Structured) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Value())
}

// DecodeJSON decodes a single JSON value into generic Go values. Numbers
// are kept as json.Number so large integer ids survive unchanged.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// UnmarshalJSON accepts null, an object or an array.
func (s *Structured) UnmarshalJSON(data []byte) error {
	v, err := DecodeJSON(data)
	if err != nil {
		return err
	}
	if v == nil {
		*s = Structured{}
		return nil
	}
	n, ok := Normalize(v)
	if !ok {
		return fmt.Errorf("structured value must be an object or array, got %T", v)
	}
	*s = n
	return nil
}

// String renders the value as compact JSON.
func (s Structured) String() string {
	b, err := json.Marshal(s.Value())
	if err != nil {
		return fmt.Sprintf("%v", s.Value())
	}
	return string(b)
}

// CategoryLabels extracts category names. An object contributes its
// "categories" list (or a lone "category" string); a list contributes
// each element.
func (s Structured) CategoryLabels() []string {
	var items []any
	switch s.Shape {
	case ShapeObject:
		switch c := s.Object["categories"].(type) {
		case []any:
			items = c
		case string:
			items = []any{c}
		default:
			if single, ok := s.Object["category"].(string); ok {
				items = []any{single}
			}
		}
	case ShapeList:
		items = s.List
	}

	labels := make([]string, 0, len(items))
	for _, item := range items {
		label := strings.TrimSpace(stringValue(item))
		if label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

// ActionItem is one task extracted from an email.
type ActionItem struct {
	Task     string `json:"task,omitempty"`
	Raw      string `json:"raw,omitempty"`
	Assignee string `json:"assignee,omitempty"`
	Due      string `json:"due,omitempty"`
	Context  string `json:"context,omitempty"`
}

// Text returns the task description, falling back to the raw text.
func (a ActionItem) Text() string {
	if a.Task != "" {
		return a.Task
	}
	return a.Raw
}

// actionListKeys are the object keys a model commonly nests its task list
// under instead of answering with a bare array.
var actionListKeys = []string{"tasks", "action_items", "actions", "items"}

// ActionItems converts the value into action items. A list yields one item
// per element; an object either holds a nested list under a well-known key
// or is itself a single item.
func (s Structured) ActionItems() []ActionItem {
	var elems []any
	switch s.Shape {
	case ShapeList:
		elems = s.List
	case ShapeObject:
		for _, k := range actionListKeys {
			if nested, ok := s.Object[k].([]any); ok {
				elems = nested
				break
			}
		}
		if elems == nil {
			elems = []any{s.Object}
		}
	}

	items := make([]ActionItem, 0, len(elems))
	for _, e := range elems {
		switch v := e.(type) {
		case map[string]any:
			item := ActionItem{
				Task:     stringValue(v["task"]),
				Raw:      stringValue(v["raw"]),
				Assignee: stringValue(v["assignee"]),
				Due:      stringValue(v["due"]),
				Context:  stringValue(v["context"]),
			}
			if item.Text() == "" {
				continue
			}
			items = append(items, item)
		case nil:
		default:
			if text := stringValue(v); text != "" {
				items = append(items, ActionItem{Task: text})
			}
		}
	}
	return items
}

// DraftReply is the typed view of a generated draft.
type DraftReply struct {
	Subject   string
	Body      string
	Followups []string
}

// DraftReply reads subject, body and follow-ups. The body falls back from
// "body" to "text" to "raw", and finally to the JSON of the whole value.
func (s Structured) DraftReply() DraftReply {
	var d DraftReply
	if s.Shape == ShapeObject {
		d.Subject = stringValue(s.Object["subject"])
		for _, k := range []string{"body", "text", "raw"} {
			if body := stringValue(s.Object[k]); body != "" {
				d.Body = body
				break
			}
		}
		if f, ok := s.Object["followups"].([]any); ok {
			for _, item := range f {
				if text := stringValue(item); text != "" {
					d.Followups = append(d.Followups, text)
				}
			}
		}
	}
	if d.Body == "" && !s.IsZero() {
		d.Body = s.String()
	}
	return d
}

// stringValue renders a decoded JSON scalar as text.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, bool, json.Number:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
