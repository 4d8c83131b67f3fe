package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	// Packages
	uuid "github.com/google/uuid"
	adk "github.com/zhaohuiwang/adk-samples"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	jsonExt              = ".json"
	DirPerm  os.FileMode = 0o700 // Directory permission for session store
	FilePerm os.FileMode = 0o600 // File permission for session files
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// FileStore keeps each session in a JSON file named after its identifier,
// so a session survives the process and can be inspected after a run
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

var _ Store = (*FileStore)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewFileStore returns a store in dir, which is created when missing
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, adk.ErrBadParameter.With("directory is required")
	}
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return nil, adk.ErrInternalServerError.Withf("mkdir: %v", err)
	}
	return &FileStore{dir: dir}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Create writes a new empty session
func (f *FileStore) Create(_ context.Context, agentName, userID string) (*Session, error) {
	s, err := newSession(agentName, userID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.write(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Get reads a session. Each call returns a new value, so changes must be
// written back with Write.
func (f *FileStore) Get(_ context.Context, id string) (*Session, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.read(id)
}

// Write replaces the file of the session
func (f *FileStore) Write(s *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.write(s)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (f *FileStore) path(id string) string {
	return filepath.Join(f.dir, id+jsonExt)
}

// write replaces the file through a temporary file in the same directory,
// so a reader never sees a partly written session
func (f *FileStore) write(s *Session) (err error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return adk.ErrInternalServerError.Withf("marshal: %v", err)
	}
	tmp, err := os.CreateTemp(f.dir, "."+s.ID+"-*")
	if err != nil {
		return adk.ErrInternalServerError.Withf("write: %v", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return adk.ErrInternalServerError.Withf("write: %v", err)
	}
	if err := tmp.Chmod(FilePerm); err != nil {
		tmp.Close()
		return adk.ErrInternalServerError.Withf("write: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return adk.ErrInternalServerError.Withf("write: %v", err)
	}
	if err := os.Rename(tmp.Name(), f.path(s.ID)); err != nil {
		return adk.ErrInternalServerError.Withf("write: %v", err)
	}
	return nil
}

func (f *FileStore) read(id string) (*Session, error) {
	// Identifiers are UUIDs, which also keeps reads inside the directory
	if _, err := uuid.Parse(id); err != nil {
		return nil, adk.ErrNotFound.Withf("session %q", id)
	}
	data, err := os.ReadFile(f.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, adk.ErrNotFound.Withf("session %q", id)
		}
		return nil, adk.ErrInternalServerError.Withf("read: %v", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, adk.ErrInternalServerError.Withf("unmarshal: %v", err)
	}
	return &s, nil
}
