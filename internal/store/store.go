package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"specsync/internal/errors"
	"specsync/internal/spec"
)

// Write retry policy for transient I/O failures. Exhaustion fails the
// mutation; previously committed state on disk is untouched because the
// temp-file rename never happened.
const (
	saveAttempts     = 3
	saveInitialDelay = 50 * time.Millisecond
)

// Store reads and writes the specification document with atomic-replace
// semantics. All methods are safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	path     string
	checksum string // hex SHA-256 of the last written document
}

// New creates a Store for the document at path. The parent directory is
// created if missing.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store: path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Store{path: path}, nil
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the document is present on disk.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads and parses the document. A missing file is reported via
// os.ErrNotExist; unparseable content is reported as a CorruptStoreError so
// the caller can recover from a retained version entry.
func (s *Store) Load() (*spec.Specification, error) {
	fl := newFileLock(filepath.Dir(s.path))
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read store document: %w", err)
	}

	var doc spec.Specification
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewCorruptStoreError(s.path, err)
	}
	if doc.Features == nil {
		doc.Features = make(map[string]spec.Feature)
	}
	return &doc, nil
}

// Save writes the specification atomically: marshal, write to a temporary
// file, rename into place. On success the checksum of the written bytes is
// recorded for the watcher handshake. Transient failures are retried with
// exponential backoff.
func (s *Store) Save(doc *spec.Specification) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal specification: %w", err)
	}
	data = append(data, '\n')

	fl := newFileLock(filepath.Dir(s.path))
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquire store lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	delay := saveInitialDelay
	var lastErr error
	for attempt := 0; attempt < saveAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay *= 2
		}
		if lastErr = s.writeAtomic(data); lastErr == nil {
			s.mu.Lock()
			s.checksum = ChecksumOf(data)
			s.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("write store document after %d attempts: %w", saveAttempts, lastErr)
}

func (s *Store) writeAtomic(data []byte) error {
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// LastChecksum returns the hex SHA-256 of the most recently written
// document, or "" if this process has not written yet.
func (s *Store) LastChecksum() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checksum
}

// CurrentChecksum hashes the document currently on disk.
func (s *Store) CurrentChecksum() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("read store document: %w", err)
	}
	return ChecksumOf(data), nil
}

// ChecksumOf returns the hex SHA-256 of the given bytes.
func ChecksumOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
