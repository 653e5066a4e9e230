// Package notes serves presenter talking points keyed by workflow context.
package notes

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed defs
var defaultDefs embed.FS

// Note is a single presenter talking point tied to a phase, scenario or
// feature.
type Note struct {
	NoteID        string   `yaml:"note_id" json:"note_id"`
	Title         string   `yaml:"title" json:"title"`
	Content       string   `yaml:"content" json:"content"`
	ContextType   string   `yaml:"context_type" json:"context_type"`
	ContextID     string   `yaml:"context_id" json:"context_id"`
	Timing        string   `yaml:"timing,omitempty" json:"timing,omitempty"` // before, during, after
	Tips          []string `yaml:"tips,omitempty" json:"tips,omitempty"`
	EmphasisLevel int      `yaml:"emphasis_level" json:"emphasis_level"`
}

type notesFile struct {
	Notes []Note `yaml:"notes"`
}

// Service indexes presenter notes by "{contextType}:{contextId}".
type Service struct {
	mu        sync.RWMutex
	dir       string
	byContext map[string][]Note
}

// NewService loads the embedded default notes plus any *.yaml files found in
// dir (which may be empty or missing).
func NewService(dir string) (*Service, error) {
	s := &Service{dir: dir}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads all notes from the embedded defaults and the configured
// directory.
func (s *Service) Reload() error {
	byContext := make(map[string][]Note)

	err := fs.WalkDir(defaultDefs, "defs", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".yaml") {
			return err
		}
		data, err := defaultDefs.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read embedded notes %s: %w", path, err)
		}
		return addNotes(byContext, data, path)
	})
	if err != nil {
		return err
	}

	if s.dir != "" {
		entries, err := os.ReadDir(s.dir)
		if err == nil {
			for _, entry := range entries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
					continue
				}
				data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
				if err != nil {
					return fmt.Errorf("read notes %s: %w", entry.Name(), err)
				}
				if err := addNotes(byContext, data, entry.Name()); err != nil {
					return err
				}
			}
		}
	}

	s.mu.Lock()
	s.byContext = byContext
	s.mu.Unlock()
	return nil
}

func addNotes(byContext map[string][]Note, data []byte, name string) error {
	var f notesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse notes %s: %w", name, err)
	}
	for _, n := range f.Notes {
		key := n.ContextType + ":" + n.ContextID
		byContext[key] = append(byContext[key], n)
	}
	return nil
}

// ForContext returns the notes for one context, optionally filtered by
// timing, sorted by emphasis descending.
func (s *Service) ForContext(contextType, contextID, timing string) []Note {
	s.mu.RLock()
	notes := append([]Note(nil), s.byContext[contextType+":"+contextID]...)
	s.mu.RUnlock()

	if timing != "" {
		filtered := notes[:0]
		for _, n := range notes {
			if n.Timing == timing {
				filtered = append(filtered, n)
			}
		}
		notes = filtered
	}
	sortByEmphasis(notes)
	return notes
}

// ByType returns all notes for a context type, sorted by emphasis descending.
func (s *Service) ByType(contextType string) []Note {
	s.mu.RLock()
	var notes []Note
	for key, list := range s.byContext {
		if strings.HasPrefix(key, contextType+":") {
			notes = append(notes, list...)
		}
	}
	s.mu.RUnlock()
	sortByEmphasis(notes)
	return notes
}

// All returns every loaded note.
func (s *Service) All() []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var notes []Note
	for _, list := range s.byContext {
		notes = append(notes, list...)
	}
	return notes
}

// ByID returns the note with the given id, or nil.
func (s *Service) ByID(noteID string) *Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, list := range s.byContext {
		for i := range list {
			if list[i].NoteID == noteID {
				n := list[i]
				return &n
			}
		}
	}
	return nil
}

func sortByEmphasis(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].EmphasisLevel > notes[j].EmphasisLevel
	})
}
