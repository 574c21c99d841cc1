// Package transcript reads and writes every historical format of a recording
// transcript column. Decode is the only reader; nothing else in the module
// parses transcript payloads.
package transcript

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// Section is one titled block of clinical notes attached to a transcript
type Section struct {
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Content string `json:"content" yaml:"content"`
}

// Payload is the normalized shape of a transcript, whatever format it was stored in
type Payload struct {
	Text         string    `json:"text" yaml:"text"`
	NoteSections []Section `json:"note_sections,omitempty" yaml:"note_sections,omitempty"`
}

// sectionSeparator joins section contents when text is derived from sections
const sectionSeparator = "\n\n"

// Decode normalizes a stored transcript. It never fails: input that cannot
// be parsed is returned verbatim as the text.
//
// Accepted shapes:
//   - empty, whitespace or JSON null: empty payload
//   - a JSON string: the text
//   - a JSON array: note sections, text joined from their contents
//   - a JSON object: "transcript" (or "content") as text and "notes" as sections
//   - anything else: the raw input as text
func Decode(raw string) Payload {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return Payload{}
	}

	var v any
	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return Payload{Text: raw}
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return Payload{Text: raw}
	}

	switch val := v.(type) {
	case string:
		return Payload{Text: val}
	case []any:
		sections := decodeSections(val)
		return Payload{Text: JoinSections(sections), NoteSections: sections}
	case map[string]any:
		return decodeObject(val, raw)
	default:
		return Payload{Text: raw}
	}
}

func decodeObject(obj map[string]any, raw string) Payload {
	var (
		p     Payload
		found bool
	)

	for _, key := range []string{"transcript", "content"} {
		if v, ok := obj[key]; ok && v != nil {
			p.Text = stringify(v)
			found = true
			break
		}
	}

	if notes, ok := obj["notes"].([]any); ok {
		p.NoteSections = decodeSections(notes)
		found = true
	}

	if !found {
		return Payload{Text: raw}
	}
	return p
}

func decodeSections(items []any) []Section {
	sections := make([]Section, 0, len(items))
	for _, item := range items {
		switch el := item.(type) {
		case nil:
			continue
		case string:
			sections = append(sections, Section{Content: el})
		case map[string]any:
			s := Section{}
			if title, ok := el["title"]; ok && title != nil {
				s.Title = stringify(title)
			}
			switch {
			case el["content"] != nil:
				s.Content = stringify(el["content"])
			case el["text"] != nil:
				s.Content = stringify(el["text"])
			default:
				s.Content = stringify(el)
			}
			sections = append(sections, s)
		default:
			sections = append(sections, Section{Content: stringify(el)})
		}
	}
	return sections
}

// stringify returns strings as-is and JSON-encodes everything else
func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return strings.TrimRight(buf.String(), "\n")
}

// JoinSections joins the non-empty section contents with a blank line
func JoinSections(sections []Section) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		if strings.TrimSpace(s.Content) == "" {
			continue
		}
		parts = append(parts, s.Content)
	}
	return strings.Join(parts, sectionSeparator)
}

// Best returns the richer of the text and the joined sections
func (p Payload) Best() string {
	joined := JoinSections(p.NoteSections)
	if len(strings.TrimSpace(joined)) > len(strings.TrimSpace(p.Text)) {
		return joined
	}
	return p.Text
}

// IsEmpty reports whether the payload carries no text and no sections
func (p Payload) IsEmpty() bool {
	return strings.TrimSpace(p.Text) == "" && len(p.NoteSections) == 0
}
