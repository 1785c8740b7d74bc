// Package sign provides traffic-sign class metadata and canonical sign
// shape generation.
package sign

import (
	"encoding/json"
	"fmt"
	"os"
)

// Shape identifies the geometric outline of a sign class.
type Shape string

const (
	ShapeCircle           Shape = "circle"
	ShapeTriangle         Shape = "triangle"
	ShapeTriangleInverted Shape = "triangle_inverted"
	ShapeDiamond          Shape = "diamond"
	ShapeSquare           Shape = "square"
	ShapeRect             Shape = "rect"
	ShapePentagon         Shape = "pentagon"
	ShapeOctagon          Shape = "octagon"
)

// ParseShape validates a shape name.
func ParseShape(name string) (Shape, error) {
	switch Shape(name) {
	case ShapeCircle, ShapeTriangle, ShapeTriangleInverted, ShapeDiamond,
		ShapeSquare, ShapeRect, ShapePentagon, ShapeOctagon:
		return Shape(name), nil
	default:
		return "", fmt.Errorf("unknown sign shape %q", name)
	}
}

// ClassMetadata describes one sign class.
type ClassMetadata struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Shape    Shape   `json:"shape"`
	HeightMM float64 `json:"height_mm"`
	WidthMM  float64 `json:"width_mm"`
}

// HWRatio returns the height/width aspect ratio of the physical sign.
func (c ClassMetadata) HWRatio() float64 {
	return c.HeightMM / c.WidthMM
}

// Validate checks a class entry for consistency.
func (c ClassMetadata) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("class %d: name is required", c.ID)
	}
	if c.HeightMM <= 0 || c.WidthMM <= 0 {
		return fmt.Errorf("class %q: physical size must be positive", c.Name)
	}
	if _, err := ParseShape(string(c.Shape)); err != nil {
		return fmt.Errorf("class %q: %w", c.Name, err)
	}
	return nil
}

// Registry is an immutable lookup table of sign class metadata, built once
// at startup and passed explicitly to consumers.
type Registry struct {
	classes []ClassMetadata
	byName  map[string]int
}

// NewRegistry builds the default registry: the eleven no-color traffic sign
// classes with their physical dimensions in millimeters.
func NewRegistry() *Registry {
	classes := []ClassMetadata{
		{Name: "circle", Shape: ShapeCircle, HeightMM: 750, WidthMM: 750},
		{Name: "triangle", Shape: ShapeTriangle, HeightMM: 789, WidthMM: 900},
		{Name: "up-triangle", Shape: ShapeTriangleInverted, HeightMM: 1072.3, WidthMM: 1220},
		{Name: "diamond-s", Shape: ShapeDiamond, HeightMM: 600, WidthMM: 600},
		{Name: "diamond-l", Shape: ShapeDiamond, HeightMM: 915, WidthMM: 915},
		{Name: "square", Shape: ShapeSquare, HeightMM: 600, WidthMM: 600},
		{Name: "rect-s", Shape: ShapeRect, HeightMM: 610, WidthMM: 458},
		{Name: "rect-m", Shape: ShapeRect, HeightMM: 915, WidthMM: 762},
		{Name: "rect-l", Shape: ShapeRect, HeightMM: 1220, WidthMM: 915},
		{Name: "pentagon", Shape: ShapePentagon, HeightMM: 915, WidthMM: 915},
		{Name: "octagon", Shape: ShapeOctagon, HeightMM: 915, WidthMM: 915},
	}
	reg, err := newRegistry(classes)
	if err != nil {
		// The built-in table is static; a failure here is a programming error.
		panic(err)
	}
	return reg
}

// LoadRegistry reads class metadata from a JSON file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var classes []ClassMetadata
	if err := json.Unmarshal(data, &classes); err != nil {
		return nil, fmt.Errorf("invalid metadata file %s: %w", path, err)
	}
	reg, err := newRegistry(classes)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata file %s: %w", path, err)
	}
	return reg, nil
}

func newRegistry(classes []ClassMetadata) (*Registry, error) {
	reg := &Registry{
		classes: make([]ClassMetadata, len(classes)),
		byName:  make(map[string]int, len(classes)),
	}
	for i, c := range classes {
		c.ID = i
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, dup := reg.byName[c.Name]; dup {
			return nil, fmt.Errorf("duplicate class name %q", c.Name)
		}
		reg.classes[i] = c
		reg.byName[c.Name] = i
	}
	return reg, nil
}

// NumClasses returns the number of registered classes.
func (r *Registry) NumClasses() int {
	return len(r.classes)
}

// Class returns metadata for a class ID.
func (r *Registry) Class(id int) (ClassMetadata, error) {
	if id < 0 || id >= len(r.classes) {
		return ClassMetadata{}, fmt.Errorf("class id %d out of range [0, %d)", id, len(r.classes))
	}
	return r.classes[id], nil
}

// ClassByName returns metadata for a class name.
func (r *Registry) ClassByName(name string) (ClassMetadata, error) {
	idx, ok := r.byName[name]
	if !ok {
		return ClassMetadata{}, fmt.Errorf("unknown class %q", name)
	}
	return r.classes[idx], nil
}

// Names returns the class names in ID order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.classes))
	for i, c := range r.classes {
		names[i] = c.Name
	}
	return names
}
