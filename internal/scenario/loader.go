package scenario

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defs
var defaultDefs embed.FS

// LoadDir parses every *.yaml scenario definition in dir. An invalid
// definition fails the whole load; fixed scenarios are validated at startup,
// not silently dropped.
func LoadDir(dir string) ([]Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenarios dir: %w", err)
	}
	var scenarios []Scenario
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read scenario %s: %w", entry.Name(), err)
		}
		s, err := parseScenario(data, entry.Name())
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, *s)
	}
	return scenarios, nil
}

// LoadDefaults parses the scenario definitions embedded in the binary.
func LoadDefaults() ([]Scenario, error) {
	var scenarios []Scenario
	err := fs.WalkDir(defaultDefs, "defs", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".yaml") {
			return err
		}
		data, err := defaultDefs.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read embedded scenario %s: %w", path, err)
		}
		s, perr := parseScenario(data, path)
		if perr != nil {
			return perr
		}
		scenarios = append(scenarios, *s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scenarios, nil
}

func parseScenario(data []byte, name string) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", name, err)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	return &s, nil
}
