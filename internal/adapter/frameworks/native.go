// Package frameworks implements the framework adapter port for the supported
// AI agent integrations: plain REST, MCP tool calls, LangChain/LangGraph
// interrupts (single and batched HITL variants) and suspend/resume workflow
// engines.
package frameworks

import (
	"encoding/json"
	"fmt"
	"strings"
)

// getString returns the string at key, or "" when absent or not a string.
func getString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// getBool returns the bool at key, falling back to def when absent.
func getBool(m map[string]any, key string, def bool) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return def
}

// getFloatPtr returns a pointer to the numeric value at key, or nil when the
// key is absent. Non-numeric values come back as a pointer so validation can
// reject them with a proper message.
func getFloatPtr(m map[string]any, key string) (*float64, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, true
	}
	switch n := v.(type) {
	case float64:
		return &n, true
	case float32:
		f := float64(n)
		return &f, true
	case int:
		f := float64(n)
		return &f, true
	case int64:
		f := float64(n)
		return &f, true
	default:
		return nil, false
	}
}

// getMap returns the object at key, or nil when absent or not an object.
func getMap(m map[string]any, key string) map[string]any {
	sub, _ := m[key].(map[string]any)
	return sub
}

// formatToolCall renders a tool call as the human-readable proposed action
// shown to reviewers.
func formatToolCall(toolName string, toolArgs map[string]any) string {
	args, err := json.MarshalIndent(toolArgs, "", "  ")
	if err != nil {
		args = []byte("{}")
	}
	return fmt.Sprintf("Tool: %s\nArguments:\n%s", toolName, args)
}

// parseModifiedArgs extracts structured tool arguments from a reviewer's
// modified action text. The fallback chain is: parse the whole string as
// JSON, then the substring between the first "{" and last "}", then give up
// and return the original arguments unchanged. It never fails: a reviewer's
// free-text edit must not crash the resuming agent.
func parseModifiedArgs(text string, original map[string]any) map[string]any {
	if original == nil {
		original = map[string]any{}
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(text), &args); err == nil {
		return args
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &args); err == nil {
			return args
		}
	}

	return original
}
