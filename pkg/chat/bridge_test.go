package chat

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toolNames(names ...string) []mcp.Tool {
	tools := make([]mcp.Tool, len(names))
	for i, n := range names {
		tools[i] = mcp.Tool{Name: n}
	}
	return tools
}

func TestSelectTool(t *testing.T) {
	tests := []struct {
		name  string
		tools []mcp.Tool
		want  string
	}{
		{
			name:  "exact run wins",
			tools: toolNames("unstructured", "run_flow", "run"),
			want:  "run",
		},
		{
			name:  "substring run",
			tools: toolNames("unstructured", "run_flow"),
			want:  "run_flow",
		},
		{
			name:  "substring flow",
			tools: toolNames("unstructured", "my_flow"),
			want:  "my_flow",
		},
		{
			name:  "skips unstructured",
			tools: toolNames("unstructured", "helper"),
			want:  "helper",
		},
		{
			name:  "only unstructured left",
			tools: toolNames("unstructured"),
			want:  "unstructured",
		},
		{
			name:  "single tool",
			tools: toolNames("chat"),
			want:  "chat",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := selectTool(tc.tools)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, got.Name)
		})
	}
}

type staticBalance float64

func (b staticBalance) AccountBalance(context.Context, bool) float64 { return float64(b) }

func TestSendMessageUnreachableEndpointApologizes(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a closed port with retry backoff")
	}

	b := NewBridge("http://127.0.0.1:1/sse", "cust-1", staticBalance(50), nil)
	defer b.Close()

	reply := b.SendMessage(context.Background(), "what is my balance?", "session-1")
	assert.Equal(t, apologyReply, reply)
}

func TestCloseWithoutConnection(t *testing.T) {
	b := NewBridge("http://127.0.0.1:1/sse", "cust-1", staticBalance(0), nil)
	b.Close()
	b.Close()
}
