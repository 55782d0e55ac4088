package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Session represents the persisted CLI session (signed-in viewer and
// last opened thread).
type Session struct {
	// UserID is the signed-in viewer.
	UserID string `yaml:"user_id,omitempty"`
	// UserName is the human-readable display name (for prompts).
	UserName string `yaml:"user_name,omitempty"`
	// LastJobID is the most recently opened job thread.
	LastJobID string `yaml:"last_job,omitempty"`
	// UpdatedAt is when the session was last modified.
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
}

// IsEmpty returns true if no session is set.
func (s *Session) IsEmpty() bool {
	return s.UserID == "" && s.LastJobID == ""
}

// HasViewer returns true if a viewer is set.
func (s *Session) HasViewer() bool {
	return s.UserID != ""
}

// Clear removes all session state.
func (s *Session) Clear() {
	s.UserID = ""
	s.UserName = ""
	s.LastJobID = ""
	s.UpdatedAt = time.Now()
}

// SetViewer sets the signed-in viewer.
func (s *Session) SetViewer(id, name string) {
	s.UserID = id
	s.UserName = name
	// A new viewer invalidates the last opened thread
	s.LastJobID = ""
	s.UpdatedAt = time.Now()
}

// SetLastJob records the most recently opened thread.
func (s *Session) SetLastJob(jobID string) {
	s.LastJobID = jobID
	s.UpdatedAt = time.Now()
}

// String returns a human-readable representation of the session.
func (s *Session) String() string {
	if s.IsEmpty() {
		return "(no session)"
	}
	var parts []string
	if s.HasViewer() {
		name := s.UserName
		if name == "" {
			name = s.UserID
		}
		parts = append(parts, fmt.Sprintf("viewer:%s", name))
	}
	if s.LastJobID != "" {
		parts = append(parts, fmt.Sprintf("job:%s", s.LastJobID))
	}
	if len(parts) == 0 {
		return "(no session)"
	}
	result := parts[0]
	for i := 1; i < len(parts); i++ {
		result += " " + parts[i]
	}
	return result
}

// SessionStore manages loading and saving the session.
type SessionStore struct {
	path string
	mu   sync.RWMutex
}

// NewSessionStore creates a new session store.
// If path is empty, uses the default path (~/.config/tutorchat/session.yaml).
func NewSessionStore(path string) *SessionStore {
	if path == "" {
		homeDir, _ := os.UserHomeDir()
		path = filepath.Join(homeDir, ".config", "tutorchat", "session.yaml")
	}
	return &SessionStore{path: path}
}

// DefaultSessionStore returns a session store using the default path.
func DefaultSessionStore() *SessionStore {
	return NewSessionStore("")
}

// Path returns the session file path.
func (s *SessionStore) Path() string {
	return s.path
}

// Load reads the session from disk.
// Returns an empty session if the file doesn't exist.
func (s *SessionStore) Load() (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session := &Session{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return session, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	if err := yaml.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	return session, nil
}

// Save writes the session to disk.
func (s *SessionStore) Save(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Ensure directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := yaml.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Clear removes the session file.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
