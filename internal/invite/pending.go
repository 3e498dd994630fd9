package invite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Pending persists the invite token between opening a link and resolving
// it. It must survive a process restart of the same client.
type Pending interface {
	// Get returns the held token and whether one is held.
	Get() (string, bool, error)
	Set(token string) error
	Clear() error
}

// FilePending keeps the token in a single file.
type FilePending struct {
	path string
}

// NewFilePending returns a FilePending writing to path.
func NewFilePending(path string) *FilePending {
	return &FilePending{path: path}
}

func (p *FilePending) Get() (string, bool, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read pending invite: %w", err)
	}
	token := strings.TrimSpace(string(data))
	return token, token != "", nil
}

func (p *FilePending) Set(token string) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("failed to create pending invite directory: %w", err)
	}
	// Write then rename so a crash never leaves a torn token behind.
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write pending invite: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("failed to store pending invite: %w", err)
	}
	return nil
}

func (p *FilePending) Clear() error {
	err := os.Remove(p.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear pending invite: %w", err)
	}
	return nil
}

// MemoryPending holds the token in memory.
type MemoryPending struct {
	mu    sync.Mutex
	token string
}

func (p *MemoryPending) Get() (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token, p.token != "", nil
}

func (p *MemoryPending) Set(token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
	return nil
}

func (p *MemoryPending) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	return nil
}
