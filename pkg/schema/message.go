package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Message represents a message in a conversation with an agent.
type Message struct {
	Role    string         `json:"role"`             // "user", "assistant", "tool", "system"
	Content []ContentBlock `json:"content"`          // Array of content blocks
	Tokens  uint           `json:"tokens,omitempty"` // Number of tokens
	Meta    map[string]any `json:"meta,omitzero"`    // Provider-specific metadata
}

// ContentBlock represents a single piece of content within a message.
// Exactly one of the fields should be non-nil.
type ContentBlock struct {
	Text       *string     `json:"text,omitempty"`        // Text content
	Thinking   *string     `json:"thinking,omitempty"`    // Reasoning content
	ToolCall   *ToolCall   `json:"tool_call,omitempty"`   // Tool invocation (agent → tool)
	ToolResult *ToolResult `json:"tool_result,omitempty"` // Tool response (tool → agent)
}

// ToolCall represents a tool invocation requested by the model
type ToolCall struct {
	ID    string          `json:"id,omitempty"`    // Call ID
	Name  string          `json:"name"`            // Tool name
	Input json.RawMessage `json:"input,omitempty"` // JSON-encoded arguments
}

// ToolResult represents the result of running a tool
type ToolResult struct {
	ID      string          `json:"id,omitempty"`      // Matches the ToolCall ID
	Name    string          `json:"name,omitempty"`    // Tool name
	Content json.RawMessage `json:"content,omitempty"` // JSON-encoded result
	IsError bool            `json:"is_error,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// CONSTANTS

// Message role constants
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleSystem    = "system"
	RoleThinking  = "thinking"
)

// Message metadata keys
const (
	MetaOutputKey = "output_key"
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewMessage creates a message with the given role and a single text block
func NewMessage(role, text string) *Message {
	return &Message{
		Role:    role,
		Content: []ContentBlock{NewText(text)},
	}
}

// NewText creates a text content block
func NewText(text string) ContentBlock {
	return ContentBlock{Text: types.Ptr(text)}
}

// NewToolCall creates a content block requesting a tool call
func NewToolCall(id, name string, input json.RawMessage) ContentBlock {
	return ContentBlock{
		ToolCall: &ToolCall{
			ID:    id,
			Name:  name,
			Input: input,
		},
	}
}

// NewToolResult creates a content block containing a successful tool result
func NewToolResult(id, name string, v any) ContentBlock {
	data, err := json.Marshal(v)
	if err != nil {
		return NewToolError(id, name, err)
	}
	return ContentBlock{
		ToolResult: &ToolResult{
			ID:      id,
			Name:    name,
			Content: json.RawMessage(data),
		},
	}
}

// NewToolError creates a content block containing a tool error result.
// The payload is an object with an "error" key.
func NewToolError(id, name string, err error) ContentBlock {
	data, _ := json.Marshal(map[string]any{
		"error": err.Error(),
	})
	return ContentBlock{
		ToolResult: &ToolResult{
			ID:      id,
			Name:    name,
			Content: json.RawMessage(data),
			IsError: true,
		},
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - MESSAGE

// Text returns the concatenated text content from all text blocks in the message
func (m Message) Text() string {
	var result strings.Builder
	for _, block := range m.Content {
		if block.Text != nil {
			result.WriteString(*block.Text)
		}
	}
	return result.String()
}

// ToolCalls returns all tool call blocks in the message
func (m Message) ToolCalls() []ToolCall {
	var result []ToolCall
	for _, block := range m.Content {
		if block.ToolCall != nil {
			result = append(result, *block.ToolCall)
		}
	}
	return result
}

// ToolResults returns all tool result blocks in the message
func (m Message) ToolResults() []ToolResult {
	var result []ToolResult
	for _, block := range m.Content {
		if block.ToolResult != nil {
			result = append(result, *block.ToolResult)
		}
	}
	return result
}

// OutputKey returns the output key the message was recorded under, if any
func (m Message) OutputKey() string {
	if v, ok := m.Meta[MetaOutputKey].(string); ok {
		return v
	}
	return ""
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - TOOL RESULT

// Payload decodes the result content. Content which is not a JSON object
// is returned under the "output" key.
func (r ToolResult) Payload() map[string]any {
	if len(r.Content) == 0 {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal(r.Content, &v); err != nil {
		return map[string]any{"output": string(r.Content)}
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{"output": v}
}

// Failed returns true when the result reports a failure: the IsError flag,
// an "error" key, or a "status" of "error" in any letter case.
func (r ToolResult) Failed() bool {
	if r.IsError {
		return true
	}
	return PayloadFailed(r.Payload())
}

// PayloadFailed returns true when a tool result payload has an "error" key
// or a "status" field equal to "error", ignoring case.
func PayloadFailed(payload map[string]any) bool {
	if _, exists := payload["error"]; exists {
		return true
	}
	if status, exists := payload["status"]; exists && status != nil {
		return strings.EqualFold(fmt.Sprint(status), "error")
	}
	return false
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (m Message) String() string {
	return types.Stringify(m)
}
