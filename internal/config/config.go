// Package config provides configuration loading for conclave.
//
// Configuration is read from <config dir>/conclave.toml, then overridden by
// CONCLAVE_* environment variables. Unset options fall back to defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/deeklead/conclave/internal/state"
)

// ErrInvalid indicates a config file with out-of-range values.
var ErrInvalid = errors.New("invalid config")

// Config holds the orchestration thresholds and locations.
type Config struct {
	// StateDir is where session records and the audit log live.
	StateDir string `toml:"state_dir"`

	// MaxLoops bounds total advancement attempts per session.
	MaxLoops int `toml:"max_loops"`

	// SessionTimeout bounds wall-clock session lifetime, measured from
	// the session's recorded start and evaluated lazily.
	SessionTimeout duration `toml:"session_timeout"`

	// MaxConsecutiveErrors trips the circuit breaker.
	MaxConsecutiveErrors int `toml:"max_consecutive_errors"`

	// MaxRoleRepeats trips the breaker when one role keeps re-running.
	MaxRoleRepeats int `toml:"max_role_repeats"`

	// Cooldown keeps the breaker open after a trip.
	Cooldown duration `toml:"cooldown"`

	// LockTimeout bounds the wait for a session's advisory lock.
	LockTimeout duration `toml:"lock_timeout"`

	// StrictRoles disables the watchdog's auto-completion of stalled
	// roles. Default off: liveness is preferred over strictness, and
	// auto-completed roles are marked with a sentinel payload.
	StrictRoles bool `toml:"strict_roles"`

	// Verbose mirrors audit events to stderr.
	Verbose bool `toml:"verbose"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		StateDir:             state.StateDir(),
		MaxLoops:             50,
		SessionTimeout:       duration(2 * time.Hour),
		MaxConsecutiveErrors: 3,
		MaxRoleRepeats:       5,
		Cooldown:             duration(time.Minute),
		LockTimeout:          duration(5 * time.Second),
	}
}

// File returns the config file path.
func File() string {
	return filepath.Join(state.ConfigDir(), "conclave.toml")
}

// ChainsDir returns the directory scanned for user chain definitions.
func ChainsDir() string {
	return filepath.Join(state.ConfigDir(), "chains")
}

// Load reads the config file if present, applies environment overrides, and
// validates the result. A missing file is not an error.
func Load() (*Config, error) {
	return load(File())
}

func load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is from trusted config location
	if err == nil {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxLoops <= 0 {
		return fmt.Errorf("%w: max_loops must be positive", ErrInvalid)
	}
	if c.MaxConsecutiveErrors <= 0 {
		return fmt.Errorf("%w: max_consecutive_errors must be positive", ErrInvalid)
	}
	if c.MaxRoleRepeats <= 0 {
		return fmt.Errorf("%w: max_role_repeats must be positive", ErrInvalid)
	}
	if c.SessionTimeout.value() <= 0 {
		return fmt.Errorf("%w: session_timeout must be positive", ErrInvalid)
	}
	return nil
}

// duration is a time.Duration that decodes from TOML strings like "90s".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

func (d duration) value() time.Duration {
	return time.Duration(d)
}

// Duration accessors, so callers work in time.Duration.

func (c *Config) Timeout() time.Duration        { return c.SessionTimeout.value() }
func (c *Config) CooldownWindow() time.Duration { return c.Cooldown.value() }
func (c *Config) LockWait() time.Duration       { return c.LockTimeout.value() }
