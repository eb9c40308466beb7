// Package preset provides the read-only catalog of named starting designs.
package preset

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/onlyil/sharingan-design/internal/document"
)

//go:embed presets.yaml
var builtinYAML []byte

var (
	ErrNotFound     = errors.New("preset not found")
	ErrEmptyCatalog = errors.New("preset catalog is empty")
)

// Preset is a named design. Paths are stored in the legacy path layout and
// become shapes with fresh ids each time Design is called.
type Preset struct {
	Name             string                    `yaml:"name" json:"name"`
	Image            string                    `yaml:"image,omitempty" json:"image,omitempty"`
	BezierPaths      []document.BezierPath     `yaml:"bezierPaths" json:"bezierPaths"`
	SymmetrySettings document.SymmetrySettings `yaml:"symmetrySettings" json:"symmetrySettings"`
	ColorSettings    document.ColorSettings    `yaml:"colorSettings" json:"colorSettings"`
}

// Design converts p into an editable design moving at speed.
func (p Preset) Design(speed document.Speed) document.Design {
	shapes := make([]document.Shape, 0, len(p.BezierPaths))
	for _, path := range p.BezierPaths {
		shapes = append(shapes, document.BezierPathToShape(path))
	}
	return document.Design{
		Shapes:           shapes,
		SymmetrySettings: p.SymmetrySettings,
		ColorSettings:    p.ColorSettings,
		AnimationSpeed:   speed,
	}
}

type file struct {
	Presets []Preset `yaml:"presets"`
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) ([]Preset, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	if len(f.Presets) == 0 {
		return nil, ErrEmptyCatalog
	}

	seen := make(map[string]bool, len(f.Presets))
	for i, p := range f.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("preset %d: missing name", i)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("preset %q: duplicate name", p.Name)
		}
		seen[p.Name] = true
		if len(p.BezierPaths) == 0 {
			return nil, fmt.Errorf("preset %q: no paths", p.Name)
		}
		if p.SymmetrySettings.Axes < 1 {
			return nil, fmt.Errorf("preset %q: axes must be at least 1", p.Name)
		}
		if p.ColorSettings.PupilSize <= 0 || p.ColorSettings.PupilSize >= 1 {
			return nil, fmt.Errorf("preset %q: pupil size must be between 0 and 1", p.Name)
		}
	}
	return f.Presets, nil
}

// Catalog is safe for concurrent use; Replace swaps the whole list.
type Catalog struct {
	mu      sync.RWMutex
	presets []Preset
	version uint64
}

func NewCatalog(presets []Preset) (*Catalog, error) {
	if len(presets) == 0 {
		return nil, ErrEmptyCatalog
	}
	return &Catalog{presets: presets}, nil
}

// Builtin returns the catalog compiled into the binary.
func Builtin() *Catalog {
	presets, err := Parse(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("builtin presets: %v", err))
	}
	return &Catalog{presets: presets}
}

// LoadFile reads a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	presets, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return NewCatalog(presets)
}

func readFile(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	return Parse(data)
}

func (c *Catalog) List() []Preset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Preset, len(c.presets))
	copy(out, c.presets)
	return out
}

func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.presets))
	for i, p := range c.presets {
		names[i] = p.Name
	}
	return names
}

func (c *Catalog) Get(name string) (Preset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.presets {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Default is the first preset, used for resets and empty designs.
func (c *Catalog) Default() Preset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.presets[0]
}

// Complete gives a design without shapes the default preset's shapes, the
// same way the editor does when it loads one.
func (c *Catalog) Complete(d document.Design) document.Design {
	if len(d.Shapes) == 0 {
		d.Shapes = c.Default().Design(d.AnimationSpeed).Shapes
	}
	return d
}

func (c *Catalog) Replace(presets []Preset) error {
	if len(presets) == 0 {
		return ErrEmptyCatalog
	}
	c.mu.Lock()
	c.presets = presets
	c.version++
	c.mu.Unlock()
	return nil
}

// Version changes every time the presets are replaced.
func (c *Catalog) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}
