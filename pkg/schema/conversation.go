package schema

import (
	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Conversation is an append-only sequence of messages exchanged with an agent
type Conversation []*Message

// Usage reports token counts for a single model call
type Usage struct {
	InputTokens  uint `json:"input_tokens,omitempty"`
	OutputTokens uint `json:"output_tokens,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Append adds messages to the conversation. Nil messages are ignored.
func (c *Conversation) Append(messages ...*Message) {
	for _, message := range messages {
		if message != nil {
			*c = append(*c, message)
		}
	}
}

// Last returns the most recent message, or nil for an empty conversation
func (c Conversation) Last() *Message {
	if len(c) == 0 {
		return nil
	}
	return c[len(c)-1]
}

// Tokens returns the total number of tokens in the conversation
func (c Conversation) Tokens() uint {
	total := uint(0)
	for _, msg := range c {
		total += msg.Tokens
	}
	return total
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (c Conversation) String() string {
	return types.Stringify(c)
}

func (u Usage) String() string {
	return types.Stringify(u)
}
