package session

import (
	"context"
	"strings"
	"sync"
	"time"

	// Packages
	uuid "github.com/google/uuid"
	adk "github.com/zhaohuiwang/adk-samples"
	schema "github.com/zhaohuiwang/adk-samples/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// MemoryStore is an in-memory implementation of Store.
// It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

var _ Store = (*MemoryStore)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewMemoryStore creates a new empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Create creates a new session with a unique ID and returns it.
func (m *MemoryStore) Create(_ context.Context, agentName, userID string) (*Session, error) {
	s, err := newSession(agentName, userID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s

	return s, nil
}

// Get retrieves a session by ID.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, adk.ErrNotFound.Withf("session %q", id)
	}
	return s, nil
}

// Len returns the number of sessions
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Write is a no-op for the memory store since sessions are held
// as pointers in memory and mutations are visible immediately.
func (m *MemoryStore) Write(_ *Session) error {
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func newSession(agentName, userID string) (*Session, error) {
	agentName = strings.TrimSpace(agentName)
	userID = strings.TrimSpace(userID)
	if agentName == "" {
		return nil, adk.ErrBadParameter.With("agent name is required")
	} else if userID == "" {
		return nil, adk.ErrBadParameter.With("user id is required")
	}

	now := time.Now()
	return &Session{
		ID:        uuid.New().String(),
		AgentName: agentName,
		UserID:    userID,
		Messages:  make(schema.Conversation, 0),
		Created:   now,
		Modified:  now,
	}, nil
}
