package chat

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractReplyContentText(t *testing.T) {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: "Your balance is $123.45."},
		},
	}

	reply, ok := extractReply(result)
	require.True(t, ok)
	assert.Equal(t, "Your balance is $123.45.", reply)
}

func TestExtractReplyNestedJSONText(t *testing.T) {
	// A text leaf that is itself a JSON document gets unwrapped.
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: `{"message":"hi there"}`},
		},
	}

	reply, ok := extractReply(result)
	require.True(t, ok)
	assert.Equal(t, "hi there", reply)
}

func TestExtractReplyJSONArrayText(t *testing.T) {
	// An array-valued text leaf is recursed into, not returned literally.
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: `[{"message":"hi"}]`},
		},
	}

	reply, ok := extractReply(result)
	require.True(t, ok)
	assert.Equal(t, "hi", reply)
}

func TestFindTextRulePriority(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{
			name: "string leaf",
			in:   "plain reply",
			want: "plain reply",
		},
		{
			name: "message beats text",
			in: map[string]any{
				"message": "from message",
				"text":    "from text",
			},
			want: "from message",
		},
		{
			name: "text field",
			in:   map[string]any{"text": "from text"},
			want: "from text",
		},
		{
			name: "artifacts message",
			in: map[string]any{
				"artifacts": map[string]any{"message": "from artifacts"},
			},
			want: "from artifacts",
		},
		{
			name: "results message data text",
			in: map[string]any{
				"results": map[string]any{
					"message": map[string]any{
						"data": map[string]any{"text": "from results"},
					},
				},
			},
			want: "from results",
		},
		{
			name: "content array",
			in: map[string]any{
				"content": []any{
					map[string]any{"type": "image", "url": "x"},
					map[string]any{"type": "text", "text": "from content"},
				},
			},
			want: "from content",
		},
		{
			name: "recursive scan falls through nesting",
			in: map[string]any{
				"outputs": []any{
					map[string]any{
						"b": map[string]any{"message": "deep reply"},
					},
				},
			},
			want: "deep reply",
		},
		{
			name: "recursive scan visits keys in order",
			in: map[string]any{
				"b": map[string]any{"message": "second"},
				"a": map[string]any{"message": "first"},
			},
			want: "first",
		},
		{
			name: "empty message is skipped",
			in: map[string]any{
				"message": "",
				"nested":  map[string]any{"text": "fallback"},
			},
			want: "fallback",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := findText(tc.in)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFindTextNoMatch(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"nil", nil},
		{"empty string", ""},
		{"number", 42.0},
		{"map of numbers", map[string]any{"count": 3.0, "ok": true}},
		{"empty strings only", map[string]any{"message": "", "text": ""}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := findText(tc.in)
			assert.False(t, ok)
		})
	}
}
