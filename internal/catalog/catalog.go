// Package catalog holds the unit type catalog: immutable stat records keyed
// by type id, resolved once when a match snapshot is built.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// ErrUnknownType is returned when a type id is not in the catalog.
var ErrUnknownType = errors.New("unknown unit type")

// TypeID identifies a unit type.
type TypeID string

// UnitType is the immutable stat record for one unit type.
type UnitType struct {
	ID           TypeID `yaml:"id" json:"id"`
	Name         string `yaml:"name" json:"name"`
	MaxAP        int    `yaml:"max_ap" json:"max_ap"`
	MaxMP        int    `yaml:"max_mp" json:"max_mp"`
	MaxSteps     int    `yaml:"max_steps" json:"max_steps"`
	ProjectsZOC  bool   `yaml:"projects_zoc" json:"projects_zoc"`
	Vision       int    `yaml:"vision" json:"vision"`
	DeployCost   int    `yaml:"deploy_cost" json:"deploy_cost"`
	AttackAPCost int    `yaml:"attack_ap_cost" json:"attack_ap_cost"`
}

// Catalog maps type ids to their stats. Safe for concurrent reads.
type Catalog struct {
	types map[TypeID]*UnitType
}

type document struct {
	Units []UnitType `yaml:"units"`
}

// New builds a catalog from explicit records, validating each one.
func New(types ...UnitType) (*Catalog, error) {
	c := &Catalog{types: make(map[TypeID]*UnitType, len(types))}
	for i := range types {
		t := types[i]
		if err := validate(t); err != nil {
			return nil, err
		}
		if _, dup := c.types[t.ID]; dup {
			return nil, fmt.Errorf("duplicate unit type %q", t.ID)
		}
		c.types[t.ID] = &t
	}
	return c, nil
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Units) == 0 {
		return nil, errors.New("parse catalog: no unit types defined")
	}
	return New(doc.Units...)
}

// Load reads a YAML catalog from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}
	return c
}

func validate(t UnitType) error {
	switch {
	case t.ID == "":
		return errors.New("unit type with empty id")
	case t.MaxSteps <= 0:
		return fmt.Errorf("unit type %q: max_steps must be positive", t.ID)
	case t.MaxAP < 0 || t.MaxMP < 0:
		return fmt.Errorf("unit type %q: negative AP/MP maximum", t.ID)
	case t.Vision < 0:
		return fmt.Errorf("unit type %q: negative vision", t.ID)
	case t.AttackAPCost < 0 || t.DeployCost < 0:
		return fmt.Errorf("unit type %q: negative cost", t.ID)
	}
	return nil
}

// Get returns the stats for a type id.
func (c *Catalog) Get(id TypeID) (*UnitType, error) {
	t, ok := c.types[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, id)
	}
	return t, nil
}

// Has reports whether the type id exists.
func (c *Catalog) Has(id TypeID) bool {
	_, ok := c.types[id]
	return ok
}

// IDs returns every type id in sorted order.
func (c *Catalog) IDs() []TypeID {
	ids := make([]TypeID, 0, len(c.types))
	for id := range c.types {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
