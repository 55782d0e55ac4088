package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSession_IsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		want    bool
	}{
		{
			name:    "empty session",
			session: Session{},
			want:    true,
		},
		{
			name:    "with viewer only",
			session: Session{UserID: "42"},
			want:    false,
		},
		{
			name:    "with last job only",
			session: Session{LastJobID: "job_7"},
			want:    false,
		},
		{
			name:    "with both",
			session: Session{UserID: "42", LastJobID: "job_7"},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.IsEmpty(); got != tt.want {
				t.Errorf("Session.IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSession_SetViewer(t *testing.T) {
	session := &Session{LastJobID: "job_7"}
	session.SetViewer("42", "ada")

	if session.UserID != "42" {
		t.Errorf("UserID = %v, want 42", session.UserID)
	}
	if session.UserName != "ada" {
		t.Errorf("UserName = %v, want ada", session.UserName)
	}
	// A viewer change drops the remembered thread
	if session.LastJobID != "" {
		t.Errorf("LastJobID = %v, want empty", session.LastJobID)
	}
}

func TestSession_String(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		want    string
	}{
		{
			name:    "empty",
			session: Session{},
			want:    "(no session)",
		},
		{
			name:    "viewer with name",
			session: Session{UserID: "42", UserName: "ada"},
			want:    "viewer:ada",
		},
		{
			name:    "viewer without name",
			session: Session{UserID: "42"},
			want:    "viewer:42",
		},
		{
			name:    "viewer and job",
			session: Session{UserID: "42", UserName: "ada", LastJobID: "job_7"},
			want:    "viewer:ada job:job_7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.String(); got != tt.want {
				t.Errorf("Session.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSessionStore_SaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewSessionStore(filepath.Join(tmpDir, "session.yaml"))

	session := &Session{
		UserID:    "42",
		UserName:  "ada",
		LastJobID: "job_7",
	}

	// Save
	if err := store.Save(session); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Load
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.UserID != session.UserID {
		t.Errorf("UserID = %v, want %v", loaded.UserID, session.UserID)
	}
	if loaded.UserName != session.UserName {
		t.Errorf("UserName = %v, want %v", loaded.UserName, session.UserName)
	}
	if loaded.LastJobID != session.LastJobID {
		t.Errorf("LastJobID = %v, want %v", loaded.LastJobID, session.LastJobID)
	}
}

func TestSessionStore_LoadEmpty(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewSessionStore(filepath.Join(tmpDir, "session.yaml"))

	// Load non-existent file should return empty session
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !loaded.IsEmpty() {
		t.Error("Load() should return empty session for non-existent file")
	}
}

func TestSessionStore_Clear(t *testing.T) {
	tmpDir := t.TempDir()
	sessionPath := filepath.Join(tmpDir, "session.yaml")
	store := NewSessionStore(sessionPath)

	session := &Session{
		UserID:   "42",
		UserName: "ada",
	}

	// Save first
	if err := store.Save(session); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(sessionPath); os.IsNotExist(err) {
		t.Fatal("session file should exist after save")
	}

	// Clear
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	// Verify file is removed
	if _, err := os.Stat(sessionPath); !os.IsNotExist(err) {
		t.Error("session file should be removed after clear")
	}

	// Load after clear should return empty
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() after Clear() error = %v", err)
	}
	if !loaded.IsEmpty() {
		t.Error("Load() after Clear() should return empty session")
	}
}
