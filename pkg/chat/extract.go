package chat

import (
	"encoding/json"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
)

// extractReply searches a tool result for a human-readable reply. The
// result shape is treated as opaque: it is flattened to generic JSON and
// walked with findText.
func extractReply(result *mcp.CallToolResult) (string, bool) {
	raw, err := json.Marshal(result)
	if err != nil {
		return "", false
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", false
	}

	return findText(generic)
}

// findText recursively searches an arbitrarily nested JSON value for
// reply text. The rule order encodes real response-shape priority and is
// tried top-down:
//
//  1. a string leaf is the reply itself;
//  2. a "message" string field;
//  3. a "text" string field;
//  4. the artifacts.message shape;
//  5. the results.message.data.text shape;
//  6. "content" arrays of {type: "text", text} items, where a text leaf
//     that is itself JSON-encoded is parsed and recursed into first;
//  7. a generic recursive scan of all entries (sorted keys, so the scan
//     order is deterministic).
//
// Empty strings count as no match.
func findText(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, val != ""

	case map[string]any:
		if s, ok := val["message"].(string); ok && s != "" {
			return s, true
		}
		if s, ok := val["text"].(string); ok && s != "" {
			return s, true
		}
		if artifacts, ok := val["artifacts"].(map[string]any); ok {
			if s, ok := artifacts["message"].(string); ok && s != "" {
				return s, true
			}
		}
		if s, ok := resultsMessageText(val); ok {
			return s, true
		}
		if content, ok := val["content"].([]any); ok {
			if s, ok := contentText(content); ok {
				return s, true
			}
		}

		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s, ok := findText(val[k]); ok {
				return s, true
			}
		}

	case []any:
		for _, item := range val {
			if s, ok := findText(item); ok {
				return s, true
			}
		}
	}

	return "", false
}

func resultsMessageText(val map[string]any) (string, bool) {
	results, ok := val["results"].(map[string]any)
	if !ok {
		return "", false
	}
	message, ok := results["message"].(map[string]any)
	if !ok {
		return "", false
	}
	data, ok := message["data"].(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := data["text"].(string)
	return s, ok && s != ""
}

// contentText handles the tool-call content array. A text leaf may itself
// be a JSON-encoded object or array; it is parsed and recursed into before
// being treated as literal text.
func contentText(content []any) (string, bool) {
	for _, item := range content {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if entry["type"] != "text" {
			continue
		}

		text, _ := entry["text"].(string)

		var parsed any
		if err := json.Unmarshal([]byte(text), &parsed); err == nil {
			switch parsed.(type) {
			case map[string]any, []any:
				if s, ok := findText(parsed); ok {
					return s, true
				}
			}
		}

		return text, text != ""
	}

	return "", false
}
