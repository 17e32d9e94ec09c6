// Package templates is the catalog of starter strategies offered when a
// draft is created.
package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/AaronLay10/OrbFi/internal/blocks"
	"github.com/AaronLay10/OrbFi/internal/serializer"
)

//go:embed library
var embedded embed.FS

// ManifestFile is the catalog index inside a template directory.
const ManifestFile = "manifest.yaml"

// Template is a named starter document.
type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
	Category    string `json:"category"`
	Document    []byte `json:"-"`
}

type manifest struct {
	Version   int             `yaml:"version"`
	Templates []manifestEntry `yaml:"templates"`
}

type manifestEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Prompt      string `yaml:"prompt"`
	Category    string `yaml:"category"`
	File        string `yaml:"file"`
}

// Library is an immutable, ordered set of templates.
type Library struct {
	templates []*Template
	byID      map[string]*Template
}

// Source yields the library currently in effect.
type Source interface {
	Current() *Library
}

// Load returns the built-in catalog.
func Load() (*Library, error) {
	return LoadFS(embedded, "library")
}

// LoadDir reads a catalog from a directory on disk.
func LoadDir(dir string) (*Library, error) {
	return LoadFS(os.DirFS(dir), ".")
}

// LoadFS reads dir/manifest.yaml and every document it lists.
func LoadFS(fsys fs.FS, dir string) (*Library, error) {
	b, err := fs.ReadFile(fsys, path.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	var m manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestFile, err)
	}
	if m.Version != 1 {
		return nil, fmt.Errorf("unsupported %s version: %d", ManifestFile, m.Version)
	}

	lib := &Library{byID: make(map[string]*Template, len(m.Templates))}
	for _, e := range m.Templates {
		if e.ID == "" || e.File == "" {
			return nil, fmt.Errorf("template entry needs id and file: %+v", e)
		}
		if _, dup := lib.byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate template id: %s", e.ID)
		}

		doc, err := fs.ReadFile(fsys, path.Join(dir, e.File))
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", e.ID, err)
		}

		t := &Template{
			ID:          e.ID,
			Name:        e.Name,
			Description: e.Description,
			Prompt:      e.Prompt,
			Category:    e.Category,
			Document:    doc,
		}
		lib.templates = append(lib.templates, t)
		lib.byID[t.ID] = t
	}
	return lib, nil
}

// Current makes a fixed library a Source.
func (l *Library) Current() *Library { return l }

// Get returns the template with the given id.
func (l *Library) Get(id string) (*Template, bool) {
	t, ok := l.byID[id]
	return t, ok
}

// All returns every template in catalog order.
func (l *Library) All() []*Template {
	out := make([]*Template, len(l.templates))
	copy(out, l.templates)
	return out
}

// Len is the number of templates.
func (l *Library) Len() int { return len(l.templates) }

// ByCategory returns the templates in a category, in catalog order.
func (l *Library) ByCategory(category string) []*Template {
	var out []*Template
	for _, t := range l.templates {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// Categories lists categories in order of first appearance.
func (l *Library) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range l.templates {
		if _, ok := seen[t.Category]; ok {
			continue
		}
		seen[t.Category] = struct{}{}
		out = append(out, t.Category)
	}
	return out
}

// Validate imports every template against reg and returns one error per
// template that does not load.
func (l *Library) Validate(reg *blocks.Registry) []error {
	var errs []error
	for _, t := range l.templates {
		if _, err := serializer.Import(t.Document, reg); err != nil {
			errs = append(errs, fmt.Errorf("template %s: %w", t.ID, err))
		}
	}
	return errs
}

// Merge returns a library with over's templates replacing l's by id.
// Templates only in over are appended.
func (l *Library) Merge(over *Library) *Library {
	out := &Library{byID: make(map[string]*Template, len(l.templates)+len(over.templates))}
	for _, t := range l.templates {
		if o, ok := over.byID[t.ID]; ok {
			t = o
		}
		out.templates = append(out.templates, t)
		out.byID[t.ID] = t
	}
	for _, t := range over.templates {
		if _, ok := out.byID[t.ID]; ok {
			continue
		}
		out.templates = append(out.templates, t)
		out.byID[t.ID] = t
	}
	return out
}
