package data

import (
	"fmt"
	"os"

	"github.com/lanerunner/lanerunner/internal/config"
	"github.com/lanerunner/lanerunner/internal/core/pool"
	"gopkg.in/yaml.v3"
)

// HazardVariant is one obstacle prototype. Width/Height/Depth double as the
// render scale and the collision box.
type HazardVariant struct {
	Kind    pool.Kind `yaml:"-"` // assigned from file order, starting at 1
	Name    string    `yaml:"name"`
	Width   float64   `yaml:"width"`
	Height  float64   `yaml:"height"`
	Depth   float64   `yaml:"depth"`
	YOffset float64   `yaml:"y_offset"` // local Y above the segment root
}

// Scale returns the variant's base scale for its pool handles.
func (v *HazardVariant) Scale() pool.Vec3 {
	return pool.Vec3{X: v.Width, Y: v.Height, Z: v.Depth}
}

// HazardCatalog indexes variants by kind and by exact name.
type HazardCatalog struct {
	variants []HazardVariant
	byName   map[string]*HazardVariant
}

// Get returns the variant for kind, or nil.
func (c *HazardCatalog) Get(kind pool.Kind) *HazardVariant {
	i := int(kind) - 1
	if i < 0 || i >= len(c.variants) {
		return nil
	}
	return &c.variants[i]
}

// ByName returns the variant with exactly this name, or nil.
func (c *HazardCatalog) ByName(name string) *HazardVariant {
	return c.byName[name]
}

// Kinds lists variant kinds in catalog order.
func (c *HazardCatalog) Kinds() []pool.Kind {
	kinds := make([]pool.Kind, len(c.variants))
	for i := range c.variants {
		kinds[i] = c.variants[i].Kind
	}
	return kinds
}

// Count returns the number of variants loaded.
func (c *HazardCatalog) Count() int {
	return len(c.variants)
}

// --- YAML loading ---

type hazardFile struct {
	Hazards []HazardVariant `yaml:"hazards"`
}

// LoadHazardCatalog loads the hazard variant list from YAML.
func LoadHazardCatalog(path string) (*HazardCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hazards: read %s: %w", path, err)
	}
	c, err := ParseHazardCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("hazards: %s: %w", path, err)
	}
	return c, nil
}

// ParseHazardCatalog decodes and validates a catalog document.
func ParseHazardCatalog(raw []byte) (*HazardCatalog, error) {
	var f hazardFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if len(f.Hazards) >= 1<<16-1 {
		return nil, fmt.Errorf("%w: %d hazard variants exceed the kind range", config.ErrInvalid, len(f.Hazards))
	}

	c := &HazardCatalog{
		variants: f.Hazards,
		byName:   make(map[string]*HazardVariant, len(f.Hazards)),
	}
	for i := range c.variants {
		v := &c.variants[i]
		v.Kind = pool.Kind(i + 1)
		switch {
		case v.Name == "":
			return nil, fmt.Errorf("%w: hazard #%d has no name", config.ErrInvalid, i)
		case c.byName[v.Name] != nil:
			return nil, fmt.Errorf("%w: duplicate hazard name %q", config.ErrInvalid, v.Name)
		case v.Width <= 0 || v.Height <= 0 || v.Depth <= 0:
			return nil, fmt.Errorf("%w: hazard %q needs positive width/height/depth", config.ErrInvalid, v.Name)
		}
		c.byName[v.Name] = v
	}
	return c, nil
}
