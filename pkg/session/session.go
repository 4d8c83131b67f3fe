package session

import (
	"context"
	"time"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
	schema "github.com/zhaohuiwang/adk-samples/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Store creates and retrieves sessions
type Store interface {
	// Create a new session for an agent and user
	Create(ctx context.Context, agentName, userID string) (*Session, error)

	// Get a session by identifier
	Get(ctx context.Context, id string) (*Session, error)

	// Write persists the current state of a session
	Write(s *Session) error
}

// Session is the conversation between one user and one agent. Messages
// are only ever appended.
type Session struct {
	ID        string              `json:"id"`
	AgentName string              `json:"agent_name"`
	UserID    string              `json:"user_id"`
	Messages  schema.Conversation `json:"messages"`
	Created   time.Time           `json:"created"`
	Modified  time.Time           `json:"modified"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Append adds messages to the end of the conversation
func (s *Session) Append(messages ...*schema.Message) {
	before := len(s.Messages)
	s.Messages.Append(messages...)
	if len(s.Messages) != before {
		s.Modified = time.Now()
	}
}

// Len returns the number of messages in the session
func (s *Session) Len() int {
	return len(s.Messages)
}

// Output returns the text of the last message recorded under the output
// key, and false if there is none
func (s *Session) Output(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if msg := s.Messages[i]; msg != nil && msg.OutputKey() == key {
			return msg.Text(), true
		}
	}
	return "", false
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (s *Session) String() string {
	return types.Stringify(s)
}
