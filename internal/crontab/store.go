package crontab

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// Store holds the raw text of a cron table.
type Store interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// ---- user crontab ----------------------------------------------------------

// UserStore reads and writes a user's crontab through the crontab(1) binary.
type UserStore struct {
	// Binary defaults to "crontab" looked up in PATH.
	Binary string
	// User selects another user's table (crontab -u). Empty means the caller.
	User string
}

func (s *UserStore) Read(ctx context.Context) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.binary(), s.args("-l")...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// crontab -l exits non-zero when the user has no table yet.
		if strings.Contains(strings.ToLower(stderr.String()), "no crontab for") {
			return nil, nil
		}
		return nil, fmt.Errorf("crontab -l: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func (s *UserStore) Write(ctx context.Context, data []byte) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.binary(), s.args("-")...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("crontab -: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (s *UserStore) binary() string {
	if s.Binary == "" {
		return "crontab"
	}
	return s.Binary
}

func (s *UserStore) args(op string) []string {
	if s.User == "" {
		return []string{op}
	}
	return []string{"-u", s.User, op}
}

// ---- plain file ------------------------------------------------------------

// FileStore keeps the table in a plain file, e.g. /etc/cron.d/cronkeeper.
// A missing file reads as an empty table.
type FileStore struct {
	Path string
}

func (s *FileStore) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// Write replaces the file atomically (temp file + rename in the same directory).
func (s *FileStore) Write(_ context.Context, data []byte) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create crontab dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return fmt.Errorf("create temp crontab: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write crontab %s: %w", s.Path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod crontab %s: %w", s.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close crontab %s: %w", s.Path, err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("replace crontab %s: %w", s.Path, err)
	}
	return nil
}

// ---- in memory -------------------------------------------------------------

// MemoryStore keeps the table in memory.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStore returns a store holding initial.
func NewMemoryStore(initial string) *MemoryStore {
	return &MemoryStore{data: []byte(initial)}
}

func (s *MemoryStore) Read(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.data), nil
}

func (s *MemoryStore) Write(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = bytes.Clone(data)
	return nil
}

// String returns the current table text.
func (s *MemoryStore) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.data)
}
