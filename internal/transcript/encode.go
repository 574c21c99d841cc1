package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Format is one of the wire formats a transcript has been stored in
type Format string

const (
	// FormatString is a bare JSON string holding the text
	FormatString Format = "string"
	// FormatSections is a JSON array of {title, content} sections
	FormatSections Format = "sections"
	// FormatObject is {"transcript": text, "notes": sections}, the canonical form
	FormatObject Format = "object"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatString:
		return FormatString, nil
	case FormatSections:
		return FormatSections, nil
	case FormatObject, "":
		return FormatObject, nil
	default:
		return "", fmt.Errorf("unknown transcript format: %s (valid: string, sections, object)", s)
	}
}

type objectWire struct {
	Transcript string    `json:"transcript"`
	Notes      []Section `json:"notes"`
}

// Encode writes p in the given format. FormatString drops the sections and
// FormatSections drops any text not represented by a section.
func Encode(p Payload, format Format) (string, error) {
	var v any
	switch format {
	case FormatString:
		v = p.Text
	case FormatSections:
		sections := p.NoteSections
		if sections == nil {
			sections = []Section{}
		}
		v = sections
	case FormatObject:
		notes := p.NoteSections
		if notes == nil {
			notes = []Section{}
		}
		v = objectWire{Transcript: p.Text, Notes: notes}
	default:
		return "", fmt.Errorf("unknown transcript format: %s", format)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode transcript: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Canonical re-encodes raw into the object format. The second return value
// is false when raw is already canonical or empty.
func Canonical(raw string) (string, bool, error) {
	p := Decode(raw)
	if p.IsEmpty() {
		return raw, false, nil
	}
	out, err := Encode(p, FormatObject)
	if err != nil {
		return raw, false, err
	}
	return out, out != strings.TrimSpace(raw), nil
}
