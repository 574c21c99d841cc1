package transcript

import (
	"reflect"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantText string
		wantSecs []Section
	}{
		{name: "empty", raw: "", wantText: ""},
		{name: "whitespace", raw: "  \n ", wantText: ""},
		{name: "json null", raw: "null", wantText: ""},
		{name: "plain text", raw: "hello there", wantText: "hello there"},
		{name: "broken json", raw: `{"transcript": "unterminated`, wantText: `{"transcript": "unterminated`},
		{name: "json string", raw: `"hello"`, wantText: "hello"},
		{name: "trailing bracket", raw: `["a"]]`, wantText: `["a"]]`},
		{name: "trailing brace", raw: `{"transcript":"x"}}`, wantText: `{"transcript":"x"}}`},
		{name: "second value", raw: `"a" "b"`, wantText: `"a" "b"`},
		{name: "number", raw: "42", wantText: "42"},
		{
			name:     "sections array",
			raw:      `[{"title":"A","content":"B"},{"title":"C","text":"D"}]`,
			wantText: "B\n\nD",
			wantSecs: []Section{{Title: "A", Content: "B"}, {Title: "C", Content: "D"}},
		},
		{
			name:     "array of strings",
			raw:      `["first","second"]`,
			wantText: "first\n\nsecond",
			wantSecs: []Section{{Content: "first"}, {Content: "second"}},
		},
		{
			name:     "section without content falls back to the element",
			raw:      `[{"title":"Plan","items":[1,2]}]`,
			wantText: `{"items":[1,2],"title":"Plan"}`,
			wantSecs: []Section{{Title: "Plan", Content: `{"items":[1,2],"title":"Plan"}`}},
		},
		{
			name:     "object with transcript and notes",
			raw:      `{"transcript":"hello","notes":[{"title":"A","content":"B"}]}`,
			wantText: "hello",
			wantSecs: []Section{{Title: "A", Content: "B"}},
		},
		{
			name:     "object with content",
			raw:      `{"content":"spoken words"}`,
			wantText: "spoken words",
		},
		{
			name:     "unrecognized object",
			raw:      `{"foo":"bar"}`,
			wantText: `{"foo":"bar"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.raw)
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
			if len(got.NoteSections) != len(tt.wantSecs) {
				t.Fatalf("NoteSections = %v, want %v", got.NoteSections, tt.wantSecs)
			}
			for i := range tt.wantSecs {
				if got.NoteSections[i] != tt.wantSecs[i] {
					t.Errorf("NoteSections[%d] = %+v, want %+v", i, got.NoteSections[i], tt.wantSecs[i])
				}
			}
		})
	}
}

func TestDecode_NeverPanics(t *testing.T) {
	inputs := []string{
		"[", "]", "{", "}", `{"notes": "not-an-array"}`, `[null, 1, true]`,
		`{"transcript": null}`, "\x00\xff", `{"transcript": {"nested": true}}`,
	}
	for _, raw := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Decode(%q) panicked: %v", raw, r)
				}
			}()
			_ = Decode(raw)
		}()
	}
}

func TestRoundTrip(t *testing.T) {
	original := Payload{
		Text:         "hello",
		NoteSections: []Section{{Title: "A", Content: "B"}},
	}

	tests := []struct {
		format Format
		want   Payload
	}{
		// object keeps both fields
		{format: FormatObject, want: original},
		// the array format carries sections only, text is derived from them
		{format: FormatSections, want: Payload{Text: "B", NoteSections: original.NoteSections}},
		// the string format carries the text only
		{format: FormatString, want: Payload{Text: "hello"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			encoded, err := Encode(original, tt.format)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got := Decode(encoded)
			if got.Text != tt.want.Text {
				t.Errorf("Text = %q, want %q", got.Text, tt.want.Text)
			}
			if len(got.NoteSections) != len(tt.want.NoteSections) {
				t.Fatalf("NoteSections = %v, want %v", got.NoteSections, tt.want.NoteSections)
			}
			if len(tt.want.NoteSections) > 0 && !reflect.DeepEqual(got.NoteSections, tt.want.NoteSections) {
				t.Errorf("NoteSections = %v, want %v", got.NoteSections, tt.want.NoteSections)
			}
		})
	}
}

func TestPayload_Best(t *testing.T) {
	tests := []struct {
		name string
		p    Payload
		want string
	}{
		{name: "text only", p: Payload{Text: "abc"}, want: "abc"},
		{name: "sections richer", p: Payload{Text: "short", NoteSections: []Section{{Content: "a much longer section"}}}, want: "a much longer section"},
		{name: "text richer", p: Payload{Text: "a much longer transcript", NoteSections: []Section{{Content: "tiny"}}}, want: "a much longer transcript"},
		{name: "empty", p: Payload{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Best(); got != tt.want {
				t.Errorf("Best() = %q, want %q", got, tt.want)
			}
		})
	}
}
