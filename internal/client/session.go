// Package client is the CLI side of the RPC surface: the stored session,
// authenticated clients and the remote invite directory.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fjsui0423-max/pachi-money/internal/api"
)

// Session is what a successful login leaves on disk.
type Session struct {
	Token       string `json:"token"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Expired reports whether the token has run out at now.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt != 0 && now.Unix() >= s.ExpiresAt
}

// SessionFromAPI converts a login response.
func SessionFromAPI(s *api.Session) *Session {
	return &Session{
		Token:       s.Token,
		UserID:      s.User.ID,
		Email:       s.User.Email,
		DisplayName: s.User.DisplayName,
		ExpiresAt:   s.ExpiresAt,
	}
}

// SessionFile stores one session as JSON.
type SessionFile struct {
	path string
}

// NewSessionFile returns a SessionFile at path.
func NewSessionFile(path string) *SessionFile {
	return &SessionFile{path: path}
}

// Load returns the stored session, or nil when there is none or it has
// expired.
func (f *SessionFile) Load() (*Session, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", f.path, err)
	}
	if s.Token == "" || s.Expired(time.Now()) {
		return nil, nil
	}
	return &s, nil
}

// Save replaces the stored session.
func (f *SessionFile) Save(s *Session) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return os.Rename(tmp, f.path)
}

// Clear removes the stored session.
func (f *SessionFile) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
