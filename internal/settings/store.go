package settings

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/starford/komaokuri/internal/apperr"
)

// FileStore keeps the exported settings document at a fixed path.
type FileStore struct {
	path string

	mu      sync.Mutex
	lastSum string
}

// NewFileStore creates a store for the document at path. The parent
// directory is created if needed.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("settings path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the document path.
func (s *FileStore) Path() string { return s.path }

// SaveSettings atomically writes doc as JSON.
func (s *FileStore) SaveSettings(_ context.Context, doc Document) error {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename settings: %w", err)
	}
	s.lastSum = sum(buf.Bytes())
	return nil
}

// Load reads and validates the document.
func (s *FileStore) Load() (Document, error) {
	doc, _, err := s.load()
	return doc, err
}

// loadChanged reads the document and reports whether it differs from the
// last content this store wrote or loaded.
func (s *FileStore) loadChanged() (Document, bool, error) {
	doc, cs, err := s.load()
	if err != nil {
		return Document{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs == s.lastSum {
		return doc, false, nil
	}
	s.lastSum = cs
	return doc, true, nil
}

func (s *FileStore) load() (Document, string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, "", fmt.Errorf("%w: %s", apperr.ErrNotFound, s.path)
		}
		return Document{}, "", fmt.Errorf("read settings: %w", err)
	}
	doc, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Document{}, "", err
	}
	return doc, sum(data), nil
}

func sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
