package models

import (
	"encoding/json"
	"fmt"
	"os"
)

// Role identifies the actor behind a trace event.
type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolCall   Role = "tool_call"
	RoleToolResult Role = "tool_result"
	RoleSystem     Role = "system"
)

// TraceEvent is a single step in an agent run. Events are immutable once
// recorded; optional fields are left zero when they don't apply to the role.
type TraceEvent struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content,omitempty"`
	ToolName  string         `json:"tool_name,omitempty"`
	Args      map[string]any `json:"args,omitempty"`
	Result    any            `json:"result,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// ConversationTrace is the full recorded trace of one agent run. The event
// order is chronological and semantically meaningful. The trace is owned by
// the caller and treated as read-only by the pipeline.
type ConversationTrace struct {
	ConversationID string         `json:"conversation_id"`
	Events         []TraceEvent   `json:"events"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Conventional metadata keys carried on a trace.
const (
	MetaSystemPrompt = "system_prompt"
	MetaAgentName    = "agent_name"
	MetaSessionID    = "session_id"
)

// MetaString returns the named metadata value if it is a string, else fallback.
func (t *ConversationTrace) MetaString(key, fallback string) string {
	if t.Metadata == nil {
		return fallback
	}
	if s, ok := t.Metadata[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// SystemPrompt returns the recorded system prompt, or fallback if absent.
func (t *ConversationTrace) SystemPrompt(fallback string) string {
	return t.MetaString(MetaSystemPrompt, fallback)
}

// LoadTrace reads a ConversationTrace from a JSON file.
func LoadTrace(path string) (*ConversationTrace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}

	var trace ConversationTrace
	if err := json.Unmarshal(data, &trace); err != nil {
		return nil, fmt.Errorf("parse trace %s: %w", path, err)
	}

	return &trace, nil
}
