package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore persists the credential for the command line client. The file is
// written with mode 0600 and honours the same max age as the browser cookie.
type FileStore struct {
	path   string
	maxAge time.Duration
	now    func() time.Time

	mu sync.Mutex
}

type fileRecord struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

func NewFileStore(path string, maxAge time.Duration) *FileStore {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &FileStore{path: path, maxAge: maxAge, now: time.Now}
}

// DefaultFilePath is $XDG_CONFIG_HOME/cmsctl/session.json or its platform equivalent.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cmsctl", "session.json"), nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.read()
	if err != nil {
		return "", err
	}
	return rec.Token, nil
}

func (s *FileStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(fileRecord{Token: token, SavedAt: s.now().UTC()})
}

func (s *FileStore) ClearToken(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: clear %s: %w", s.path, err)
	}
	return nil
}

// read returns an empty record when the file is missing or has outlived maxAge.
func (s *FileStore) read() (fileRecord, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return fileRecord{}, nil
	}
	if err != nil {
		return fileRecord{}, fmt.Errorf("session: read %s: %w", s.path, err)
	}
	var rec fileRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return fileRecord{}, fmt.Errorf("session: decode %s: %w", s.path, err)
	}
	if !rec.SavedAt.IsZero() && s.now().Sub(rec.SavedAt) >= s.maxAge {
		return fileRecord{}, nil
	}
	return rec, nil
}

func (s *FileStore) write(rec fileRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session: mkdir: %w", err)
	}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("session: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("session: replace %s: %w", s.path, err)
	}
	return nil
}
