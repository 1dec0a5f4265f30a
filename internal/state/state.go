// Package state resolves the XDG directories conclave writes to.
package state

import (
	"os"
	"path/filepath"
)

const appDir = "conclave"

// StateDir returns the directory for session records and audit logs,
// honoring XDG_STATE_HOME.
func StateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", appDir)
}

// ConfigDir returns the directory for the config file and user chain
// definitions, honoring XDG_CONFIG_HOME.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appDir)
}
