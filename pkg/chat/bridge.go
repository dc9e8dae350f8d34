// Package chat bridges the chat surface to a remote MCP tool endpoint. It
// discovers the available tools, invokes the best candidate with the live
// account state folded into the prompt, and digs the reply text out of
// whatever shape the tool returns. Errors never escape to the caller: any
// failure tears down the connection and yields a fixed apology string.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go"
	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	// apologyReply is returned whenever the connection or the tool call
	// fails.
	apologyReply = "I'm having trouble connecting to the service right now. Please try again later."

	// unexpectedFormatReply is returned when the tool answered but no
	// reply text could be located in the response.
	unexpectedFormatReply = "I processed your request, but the response format was unexpected."

	clientName    = "neobank-ai-client"
	clientVersion = "1.0.0"
)

// BalanceSource supplies the current account balance for prompt
// enrichment. Satisfied by *bank.Service.
type BalanceSource interface {
	AccountBalance(ctx context.Context, forceRefresh bool) float64
}

// Bridge holds the single shared connection to the remote tool endpoint.
// The mutex serializes concurrent chat calls, so two callers can never
// open duplicate connections while an attempt is in flight.
type Bridge struct {
	endpoint   string
	customerID string
	balances   BalanceSource
	logger     *slog.Logger

	mu     sync.Mutex
	client *mcpclient.Client
}

// NewBridge creates a disconnected bridge. The first SendMessage call
// establishes the connection.
func NewBridge(endpoint, customerID string, balances BalanceSource, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bridge{
		endpoint:   endpoint,
		customerID: customerID,
		balances:   balances,
		logger:     logger,
	}
}

// SendMessage forwards a user message to the remote tool and returns the
// reply text. It never returns an error: failures reset the connection
// and come back as a user-facing apology, an unrecognizable response
// shape as a fixed notice.
func (b *Bridge) SendMessage(ctx context.Context, message, sessionID string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	reply, err := b.send(ctx, message, sessionID)
	if err != nil {
		b.logger.Error("chat request failed", "error", err)
		b.teardown()
		return apologyReply
	}

	return reply
}

// Close releases the connection, if any.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.teardown()
}

func (b *Bridge) send(ctx context.Context, message, sessionID string) (string, error) {
	client, err := b.ensureClient(ctx)
	if err != nil {
		return "", fmt.Errorf("connecting to tool endpoint: %w", err)
	}

	tools, err := client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return "", fmt.Errorf("listing tools: %w", err)
	}
	if len(tools.Tools) == 0 {
		return "", fmt.Errorf("no tools available on endpoint %s", b.endpoint)
	}

	tool := selectTool(tools.Tools)
	b.logger.Debug("selected tool", "tool", tool.Name)

	// Fold the latest cached balance into the prompt so the remote flow
	// answers from the same truth the UI shows.
	balance := b.balances.AccountBalance(ctx, false)

	req := mcp.CallToolRequest{}
	req.Params.Name = tool.Name
	req.Params.Arguments = map[string]any{
		"input_value": fmt.Sprintf("[System Note: The current account balance is $%.2f] %s", balance, message),
		"session_id":  sessionID,
		"customer_id": b.customerID,
		// The remote flow's input names are unknown, so the identifiers
		// are offered under every spelling it might expect.
		"tweaks": map[string]any{
			"Customer ID":     b.customerID,
			"customer_id":     b.customerID,
			"CustomerId":      b.customerID,
			"user_id":         b.customerID,
			"balance":         balance,
			"current_balance": balance,
		},
	}

	result, err := client.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("calling tool %s: %w", tool.Name, err)
	}

	if reply, ok := extractReply(result); ok {
		return reply, nil
	}

	b.logger.Warn("could not find reply text in tool response", "tool", tool.Name)
	return unexpectedFormatReply, nil
}

// ensureClient returns the shared client, connecting if necessary. The
// connection attempt is retried once before giving up.
func (b *Bridge) ensureClient(ctx context.Context) (*mcpclient.Client, error) {
	if b.client != nil {
		return b.client, nil
	}

	var connected *mcpclient.Client
	err := retry.Do(
		func() error {
			c, err := b.connect(ctx)
			if err != nil {
				return err
			}
			connected = c
			return nil
		},
		retry.Attempts(2),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	b.client = connected
	return b.client, nil
}

func (b *Bridge) connect(ctx context.Context) (*mcpclient.Client, error) {
	b.logger.Info("connecting to MCP endpoint", "endpoint", b.endpoint)

	c, err := mcpclient.NewSSEMCPClient(b.endpoint)
	if err != nil {
		return nil, fmt.Errorf("creating SSE client: %w", err)
	}

	if err := c.Start(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("starting transport: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}

	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, fmt.Errorf("initializing session: %w", err)
	}

	b.logger.Info("connected to MCP endpoint")
	return c, nil
}

// teardown discards the connection so the next call reconnects from
// scratch.
func (b *Bridge) teardown() {
	if b.client == nil {
		return
	}
	if err := b.client.Close(); err != nil {
		b.logger.Debug("closing MCP client", "error", err)
	}
	b.client = nil
}

// selectTool picks the invocation target: an exact "run" match, else a
// name containing "run" or "flow", else anything not named "unstructured"
// (usually a helper), else the first tool.
func selectTool(tools []mcp.Tool) *mcp.Tool {
	for i := range tools {
		if tools[i].Name == "run" {
			return &tools[i]
		}
	}
	for i := range tools {
		if strings.Contains(tools[i].Name, "run") || strings.Contains(tools[i].Name, "flow") {
			return &tools[i]
		}
	}
	for i := range tools {
		if tools[i].Name != "unstructured" {
			return &tools[i]
		}
	}
	return &tools[0]
}
