package session

import (
	"os"
	"path/filepath"
	"strings"
)

// The current-session pointer lets CLI invocations omit an explicit
// --session flag. It is a convenience default resolved once at command
// entry: every core operation still takes the session id explicitly, and an
// explicit id always wins over the pointer.

const currentFile = "current"

func (s *Store) currentPath() string {
	return filepath.Join(filepath.Dir(s.dir), currentFile)
}

// SetCurrent records id as the default session for flag-less invocations.
func (s *Store) SetCurrent(id string) error {
	return os.WriteFile(s.currentPath(), []byte(id+"\n"), 0600)
}

// Current returns the recorded default session id, or "" when none is set.
func (s *Store) Current() (string, error) {
	data, err := os.ReadFile(s.currentPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// ClearCurrent removes the pointer. Idempotent.
func (s *Store) ClearCurrent() error {
	if err := os.Remove(s.currentPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
