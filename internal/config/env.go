package config

import (
	"os"
	"strconv"
	"time"
)

// Environment overrides. Each CONCLAVE_* variable, when set and parseable,
// replaces the corresponding config file value.
const (
	EnvStateDir       = "CONCLAVE_STATE_DIR"
	EnvMaxLoops       = "CONCLAVE_MAX_LOOPS"
	EnvSessionTimeout = "CONCLAVE_SESSION_TIMEOUT"
	EnvMaxErrors      = "CONCLAVE_MAX_ERRORS"
	EnvMaxRoleRepeats = "CONCLAVE_MAX_ROLE_REPEATS"
	EnvCooldown       = "CONCLAVE_COOLDOWN"
	EnvStrictRoles    = "CONCLAVE_STRICT_ROLES"
	EnvVerbose        = "CONCLAVE_VERBOSE"
)

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvStateDir); v != "" {
		cfg.StateDir = v
	}
	if n, ok := envInt(EnvMaxLoops); ok {
		cfg.MaxLoops = n
	}
	if d, ok := envDuration(EnvSessionTimeout); ok {
		cfg.SessionTimeout = duration(d)
	}
	if n, ok := envInt(EnvMaxErrors); ok {
		cfg.MaxConsecutiveErrors = n
	}
	if n, ok := envInt(EnvMaxRoleRepeats); ok {
		cfg.MaxRoleRepeats = n
	}
	if d, ok := envDuration(EnvCooldown); ok {
		cfg.Cooldown = duration(d)
	}
	if v := os.Getenv(EnvStrictRoles); v != "" {
		cfg.StrictRoles = isTruthy(v)
	}
	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Verbose = isTruthy(v)
	}
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envDuration(name string) (time.Duration, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

func isTruthy(v string) bool {
	switch v {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
