// Package templates stores uploaded PDF templates on disk and lists them.
//
// Files are named "<uuid>__<sanitized original name>" so the listing can be
// rebuilt from the directory alone, without a separate index.
package templates

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go-formfill/internal/utils"
)

// ErrNotFound is returned when no template exists for an id.
var ErrNotFound = errors.New("template not found")

// Template describes one stored template PDF.
type Template struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Store keeps template PDFs in a single directory.
type Store struct {
	dir string
	mu  sync.RWMutex
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create template directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save stores uploaded template bytes under a fresh id.
func (s *Store) Save(originalName string, data []byte) (Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := utils.GenerateUUID()
	name := utils.SanitizeFilename(originalName)
	path := filepath.Join(s.dir, id+"__"+name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Template{}, fmt.Errorf("cannot store template: %w", err)
	}
	return Template{ID: id, Name: name, Size: int64(len(data)), UploadedAt: time.Now()}, nil
}

// List returns all stored templates, newest first.
func (s *Store) List() ([]Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read template directory: %w", err)
	}
	list := make([]Template, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, name, ok := strings.Cut(entry.Name(), "__")
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		list = append(list, Template{ID: id, Name: name, Size: info.Size(), UploadedAt: info.ModTime()})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UploadedAt.After(list[j].UploadedAt) })
	return list, nil
}

// Path resolves a template id to its file path.
func (s *Store) Path(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("cannot read template directory: %w", err)
	}
	prefix := id + "__"
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			return filepath.Join(s.dir, entry.Name()), nil
		}
	}
	return "", ErrNotFound
}

// Read loads the template bytes for an id.
func (s *Store) Read(id string) ([]byte, error) {
	path, err := s.Path(id)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}
