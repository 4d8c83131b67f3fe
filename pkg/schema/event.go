package schema

import (
	"time"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Event is one item of the sequence produced by an agent turn. It carries
// zero or more content blocks (text fragments, tool calls, tool results)
// and optionally an error code and message.
type Event struct {
	Author       string         `json:"author"`
	Content      []ContentBlock `json:"content,omitempty"`
	Partial      bool           `json:"partial,omitempty"` // Text is a streamed fragment
	ErrorCode    string         `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Time         time.Time      `json:"time"`
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Error codes set on events
const (
	ErrorCodeMaxTokens     = "MAX_TOKENS"
	ErrorCodeSafety        = "SAFETY"
	ErrorCodeMaxIterations = "MAX_ITERATIONS"
	ErrorCodeUnknown       = "UNKNOWN_ERROR"
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewEvent returns an event from author with the given content
func NewEvent(author string, content ...ContentBlock) *Event {
	return &Event{
		Author:  author,
		Content: content,
		Time:    time.Now(),
	}
}

// NewTextEvent returns an event carrying a text fragment
func NewTextEvent(author, text string, partial bool) *Event {
	event := NewEvent(author, NewText(text))
	event.Partial = partial
	return event
}

// NewErrorEvent returns an event carrying an error code and message
func NewErrorEvent(author, code, message string) *Event {
	event := NewEvent(author)
	event.ErrorCode = code
	event.ErrorMessage = message
	return event
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Text returns the concatenated text fragments of the event
func (e Event) Text() string {
	return Message{Content: e.Content}.Text()
}

// ToolCalls returns the tool calls carried by the event
func (e Event) ToolCalls() []ToolCall {
	return Message{Content: e.Content}.ToolCalls()
}

// ToolResults returns the tool results carried by the event
func (e Event) ToolResults() []ToolResult {
	return Message{Content: e.Content}.ToolResults()
}

// IsError returns true if the event carries an error code or message
func (e Event) IsError() bool {
	return e.ErrorCode != "" || e.ErrorMessage != ""
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (e Event) String() string {
	return types.Stringify(e)
}
