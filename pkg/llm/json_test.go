package llm

import (
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"id": "s1"}`,
			want:  `{"id": "s1"}`,
		},
		{
			name:  "bare array",
			input: `[1, 2, 3]`,
			want:  `[1, 2, 3]`,
		},
		{
			name:  "markdown fenced",
			input: "Here you go:\n```json\n[{\"id\": \"agent\"}]\n```\nLet me know!",
			want:  `[{"id": "agent"}]`,
		},
		{
			name:  "think tags stripped",
			input: "<think>\nthe user wants fields\n</think>\n[{\"id\": \"agent\"}]",
			want:  `[{"id": "agent"}]`,
		},
		{
			name:  "prose around object",
			input: `Sure! The schema is {"id": "s1", "fields": []} as requested.`,
			want:  `{"id": "s1", "fields": []}`,
		},
		{
			name:  "braces inside strings",
			input: `[{"formula": "metadata.cat === '}' ? 1 : 0"}]`,
			want:  `[{"formula": "metadata.cat === '}' ? 1 : 0"}]`,
		},
		{
			name:  "escaped quotes inside strings",
			input: `{"note": "she said \"hi\" {twice}"}`,
			want:  `{"note": "she said \"hi\" {twice}"}`,
		},
		{
			name:    "no json at all",
			input:   "I'm sorry, I can't produce that.",
			wantErr: true,
		},
		{
			name:    "unbalanced json",
			input:   `{"id": "s1"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ExtractJSON(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSON(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseJSONResponse(t *testing.T) {
	type field struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}

	fields, err := ParseJSONResponse[[]field]("```json\n[{\"id\": \"agent\", \"type\": \"string\"}]\n```")
	if err != nil {
		t.Fatalf("ParseJSONResponse: %v", err)
	}
	if len(fields) != 1 || fields[0].ID != "agent" || fields[0].Type != "string" {
		t.Errorf("parsed = %+v", fields)
	}

	// Valid JSON of the wrong shape is an unmarshal error.
	if _, err := ParseJSONResponse[[]field](`{"id": "agent"}`); err == nil {
		t.Error("expected error for shape mismatch")
	}
}
