// Package schema persists per-template field schemas as JSON documents.
//
// Each saved document records the template id, save timestamp, and the
// ordered field list. A schema may be saved globally for a template or
// scoped to one user; lookups try the user-scoped document first and fall
// back to the global one. Unknown top-level attributes in a stored document
// survive a save/load round trip.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go-formfill/internal/fields"
	"go-formfill/internal/utils"
)

// ErrNotFound is returned when no schema exists for a template.
var ErrNotFound = errors.New("no field schema saved for template")

// Saved is one persisted schema document.
type Saved struct {
	TemplateID string              `json:"templateId"`
	SavedAt    time.Time           `json:"savedAt"`
	Fields     []fields.Descriptor `json:"fields"`

	// extra carries top-level attributes this version does not model.
	extra map[string]json.RawMessage
}

func (s Saved) MarshalJSON() ([]byte, error) {
	doc := make(map[string]json.RawMessage, len(s.extra)+3)
	for k, v := range s.extra {
		doc[k] = v
	}
	var err error
	if doc["templateId"], err = json.Marshal(s.TemplateID); err != nil {
		return nil, err
	}
	if doc["savedAt"], err = json.Marshal(s.SavedAt); err != nil {
		return nil, err
	}
	if doc["fields"], err = json.Marshal(s.Fields); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func (s *Saved) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if raw, ok := doc["templateId"]; ok {
		if err := json.Unmarshal(raw, &s.TemplateID); err != nil {
			return err
		}
	}
	if raw, ok := doc["savedAt"]; ok {
		if err := json.Unmarshal(raw, &s.SavedAt); err != nil {
			return err
		}
	}
	if raw, ok := doc["fields"]; ok {
		if err := json.Unmarshal(raw, &s.Fields); err != nil {
			return err
		}
	}
	delete(doc, "templateId")
	delete(doc, "savedAt")
	delete(doc, "fields")
	s.extra = doc
	return nil
}

// Store keeps schema documents as one JSON file per template (and per
// template+user for user-scoped overrides).
type Store struct {
	dir string
	mu  sync.RWMutex
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create schema directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save persists a field schema for templateID. An empty userID saves the
// global schema; otherwise a user-scoped override is written. Unknown
// attributes of a previously saved document are preserved.
func (s *Store) Save(templateID, userID string, list []fields.Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := Saved{TemplateID: templateID, Fields: list}
	if prev, err := s.read(s.path(templateID, userID)); err == nil {
		doc.extra = prev.extra
	}
	doc.SavedAt = time.Now().UTC()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode schema: %w", err)
	}
	return os.WriteFile(s.path(templateID, userID), data, 0o644)
}

// Get returns the schema for templateID, preferring a user-scoped override
// and falling back to the global document. Returns ErrNotFound when
// neither exists.
func (s *Store) Get(templateID, userID string) (*Saved, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if userID != "" {
		if doc, err := s.read(s.path(templateID, userID)); err == nil {
			return doc, nil
		}
	}
	doc, err := s.read(s.path(templateID, ""))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Resolve returns just the field list for templateID, with the same
// user-to-global fallback as Get.
func (s *Store) Resolve(templateID, userID string) ([]fields.Descriptor, error) {
	doc, err := s.Get(templateID, userID)
	if err != nil {
		return nil, err
	}
	return doc.Fields, nil
}

// Delete removes the schema documents for templateID (global and the given
// user scope). Missing files are not an error.
func (s *Store) Delete(templateID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, p := range []string{s.path(templateID, userID), s.path(templateID, "")} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Store) path(templateID, userID string) string {
	name := utils.SanitizeFilename(templateID)
	if userID != "" {
		name += "__" + utils.SanitizeFilename(userID)
	}
	return filepath.Join(s.dir, name+".json")
}

func (s *Store) read(path string) (*Saved, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Saved
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("corrupt schema document %s: %w", filepath.Base(path), err)
	}
	return &doc, nil
}
