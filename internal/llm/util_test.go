package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json fence around classification array",
			input:    "```json\n[{\"index\": 0, \"type\": \"EMAIL\"}]\n```",
			expected: `[{"index": 0, "type": "EMAIL"}]`,
		},
		{
			name:     "bare fence around results object",
			input:    "```\n{\"results\": []}\n```",
			expected: `{"results": []}`,
		},
		{
			name:     "leading commentary",
			input:    "Here are the classifications:\n[{\"index\": 2, \"type\": \"CITY\"}]",
			expected: `[{"index": 2, "type": "CITY"}]`,
		},
		{
			name:     "trailing commentary after decision",
			input:    "{\"shouldAdd\": true}\nThe section has one stored entry and no visible rows.",
			expected: `{"shouldAdd": true}`,
		},
		{
			name:     "commentary with braces after the array",
			input:    "[{\"index\": 0}] (field {1} left as UNKNOWN)",
			expected: `[{"index": 0}]`,
		},
		{
			name:     "brackets inside strings do not end the object",
			input:    `{"reason": "label said [optional] }"} trailing`,
			expected: `{"reason": "label said [optional] }"}`,
		},
		{
			name:     "no JSON at all",
			input:    "  I cannot classify these fields.  ",
			expected: "I cannot classify these fields.",
		},
		{
			name:     "truncated completion keeps the partial array",
			input:    "Result: [{\"index\": 0, \"type\": \"EMAIL\"",
			expected: `[{"index": 0, "type": "EMAIL"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestRemoveTrailingCommas(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "object and array",
			input:    `[{"index": 0,},]`,
			expected: `[{"index": 0}]`,
		},
		{
			name:     "comma before newline",
			input:    "{\n  \"type\": \"PHONE\",\n}",
			expected: "{\n  \"type\": \"PHONE\"\n}",
		},
		{
			name:     "escaped quote keeps string state",
			input:    `{"label": "say \"hi,\"", }`,
			expected: `{"label": "say \"hi,\"" }`,
		},
		{
			name:     "valid JSON unchanged",
			input:    `{"a": [1, 2], "b": "x, y"}`,
			expected: `{"a": [1, 2], "b": "x, y"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RemoveTrailingCommas(tt.input))
		})
	}
}

func TestExtractJSON_RecoversNearValidOutput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "fenced array with trailing comma",
			input:    "```json\n[{\"index\": 0, \"type\": \"EMAIL\", \"confidence\": 0.9},]\n```",
			expected: `[{"index": 0, "type": "EMAIL", "confidence": 0.9}]`,
		},
		{
			name:     "commentary around a results object with trailing commas",
			input:    "Sure! Here is the JSON:\n```json\n{\"results\": [\n  {\"index\": 0, \"type\": \"FIRST_NAME\", \"confidence\": 0.95},\n],}\n```\nLet me know if you need more.",
			expected: "{\"results\": [\n  {\"index\": 0, \"type\": \"FIRST_NAME\", \"confidence\": 0.95}\n]}",
		},
		{
			name:     "comma inside string untouched",
			input:    `{"reason": "a,}", "shouldAdd": true,}`,
			expected: `{"reason": "a,}", "shouldAdd": true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.input)
			assert.Equal(t, tt.expected, got)
			require.True(t, json.Valid([]byte(got)), "recovered output is not valid JSON: %s", got)
		})
	}
}
