package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

var (
	// ErrNotFound indicates no persisted record exists for the session id.
	ErrNotFound = errors.New("session not found")

	// ErrAlreadyExists indicates a live session already holds the id.
	ErrAlreadyExists = errors.New("session already exists")

	// ErrLockTimeout indicates the per-session lock could not be acquired
	// within the bounded wait. Callers should treat this as retryable.
	ErrLockTimeout = errors.New("session lock timeout")
)

// DefaultLockTimeout bounds the wait for the per-session advisory lock.
const DefaultLockTimeout = 5 * time.Second

// lockRetryDelay is the poll interval while waiting on the lock.
const lockRetryDelay = 25 * time.Millisecond

// Store persists one Record per session id under <dir>/sessions.
//
// Mutual exclusion is scoped per session id via a flock sidecar file, so
// unrelated sessions never contend. The lock covers the full
// read-modify-write cycle, not just the write: two external processes (the
// agent reporting a completion and the watchdog firing at the same turn
// boundary) serialize on it rather than losing an update.
type Store struct {
	dir         string
	lockTimeout time.Duration
}

// NewStore creates a store rooted at stateDir.
func NewStore(stateDir string, lockTimeout time.Duration) (*Store, error) {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	dir := filepath.Join(stateDir, "sessions")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating sessions directory: %w", err)
	}
	return &Store{dir: dir, lockTimeout: lockTimeout}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) lockPath(id string) string {
	return filepath.Join(s.dir, id+".lock")
}

// withLock runs fn while holding the session's advisory lock. The wait is
// bounded; expiry surfaces as ErrLockTimeout.
func (s *Store) withLock(id string, fn func() error) error {
	fileLock := flock.New(s.lockPath(id))

	ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrLockTimeout, id)
		}
		return fmt.Errorf("acquiring session lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLockTimeout, id)
	}
	defer func() { _ = fileLock.Unlock() }()

	return fn()
}

// read loads and decodes the record without locking. A malformed record is
// quarantined and reported as ErrNotFound, never silently replaced with a
// fresh session.
func (s *Store) read(id string) (*Record, error) {
	data, err := os.ReadFile(s.path(id)) //nolint:gosec // G304: path is constructed from the trusted state dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("reading session record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		s.quarantine(id)
		return nil, fmt.Errorf("%w: %s (corrupt record quarantined)", ErrNotFound, id)
	}

	return &rec, nil
}

// quarantine moves a corrupt record aside for inspection.
func (s *Store) quarantine(id string) {
	dst := fmt.Sprintf("%s.corrupt-%d", s.path(id), time.Now().Unix())
	_ = os.Rename(s.path(id), dst) // best-effort
}

// write persists the record atomically: temp file then rename, so no
// reader ever observes a partial write and a failed write leaves the prior
// record untouched.
func (s *Store) write(id string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session record: %w", err)
	}

	tmpPath := s.path(id) + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("writing session record: %w", err)
	}
	if err := os.Rename(tmpPath, s.path(id)); err != nil {
		_ = os.Remove(tmpPath) // best-effort cleanup
		return fmt.Errorf("replacing session record: %w", err)
	}

	return nil
}

// Create persists a new record. Fails with ErrAlreadyExists when a live
// (active) session already holds the id; an inactive leftover record is
// replaced.
func (s *Store) Create(rec *Record) error {
	id := rec.Session.ID
	return s.withLock(id, func() error {
		existing, err := s.read(id)
		if err == nil && existing.Session.Active {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, id)
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		return s.write(id, rec)
	})
}

// Load returns the current persisted record for id.
func (s *Store) Load(id string) (*Record, error) {
	return s.read(id)
}

// Mutate performs an exclusive-locked read-modify-write: load the current
// record, apply fn, persist atomically. When fn returns an error nothing is
// written.
func (s *Store) Mutate(id string, fn func(*Record) error) (*Record, error) {
	var out *Record
	err := s.withLock(id, func() error {
		rec, err := s.read(id)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		rec.Session.UpdatedAt = time.Now()
		if err := s.write(id, rec); err != nil {
			return err
		}
		out = rec
		return nil
	})
	return out, err
}

// Destroy removes the persisted record. Idempotent: destroying a session
// that does not exist is not an error. The record is removed under the lock
// so an in-flight Mutate either completes first or observes ErrNotFound,
// never a resurrected record.
//
// The lock sidecar is never unlinked: a waiter holding the old inode and a
// later caller on a recreated file could otherwise lock the same session
// concurrently. Records are the unit of cleanup.
func (s *Store) Destroy(id string) error {
	err := s.withLock(id, func() error {
		if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing session record: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if cur, _ := s.Current(); cur == id {
		_ = s.ClearCurrent()
	}
	return nil
}

// List returns all decodable records in the store.
func (s *Store) List() ([]*Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading sessions directory: %w", err)
	}

	var records []*Record
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		rec, err := s.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue // corrupt records are quarantined by read
		}
		records = append(records, rec)
	}

	return records, nil
}
