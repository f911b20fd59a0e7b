package entity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template defines a reusable monster archetype loaded from YAML.
type Template struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	MaxHP int    `yaml:"max_hp"`
	AC    int    `yaml:"ac"`
	// Color is an optional fixed palette color; zero means "assign from the
	// session palette like any other entity".
	Color int `yaml:"color"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, MaxHP >= 1, and
// AC >= 1; returns an error on the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("monster template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("monster template %q: name must not be empty", t.ID)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("monster template %q: max_hp must be >= 1", t.ID)
	}
	if t.AC < 1 {
		return fmt.Errorf("monster template %q: ac must be >= 1", t.ID)
	}
	return nil
}

// LoadTemplateFromBytes parses a single monster template from raw YAML bytes.
//
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing monster template: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadTemplates loads every .yaml/.yml file in dir as a monster template.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns templates keyed by ID, or an error on the first
// unreadable or invalid file. Duplicate IDs are an error.
func LoadTemplates(dir string) (map[string]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading template dir %q: %w", dir, err)
	}

	templates := make(map[string]*Template)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading template file %q: %w", e.Name(), err)
		}
		t, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("template file %q: %w", e.Name(), err)
		}
		if _, exists := templates[t.ID]; exists {
			return nil, fmt.Errorf("duplicate monster template id %q in %q", t.ID, e.Name())
		}
		templates[t.ID] = t
	}
	return templates, nil
}
