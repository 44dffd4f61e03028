package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// fileDocument is the on-disk shape:
//
//	worlds:
//	  lobby:
//	    - join&message%_self_%~(Hello)~
type fileDocument struct {
	Worlds map[string][]string `yaml:"worlds"`
}

// FileStore keeps every program in one YAML file. SetLines only changes
// the in-memory document; Save writes it out.
type FileStore struct {
	path string

	mu  sync.RWMutex
	doc fileDocument
}

// OpenFileStore loads path, starting empty when the file does not exist.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, doc: fileDocument{Worlds: make(map[string][]string)}}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read program file: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("failed to parse program file %s: %w", path, err)
	}
	if s.doc.Worlds == nil {
		s.doc.Worlds = make(map[string][]string)
	}
	return s, nil
}

func (s *FileStore) Lines(_ context.Context, worldID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.doc.Worlds[worldID]...), nil
}

func (s *FileStore) SetLines(_ context.Context, worldID string, lines []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Worlds[worldID] = append([]string{}, lines...)
	return nil
}

// Save writes the document atomically through a temporary file.
func (s *FileStore) Save(_ context.Context) error {
	s.mu.RLock()
	data, err := yaml.Marshal(&s.doc)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode programs: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create program directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write programs: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace program file: %w", err)
	}
	return nil
}
