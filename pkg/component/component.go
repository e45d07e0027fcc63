// Package component holds the parsed per-component records the analysis
// runs on: identity, category, level, bounding box and owned solid bodies.
// Components are built once by a Store and never mutated afterwards.
package component

import (
	"fmt"
	"math"

	"github.com/chazu/liftplan/pkg/kernel"
)

// ID is the stable integer identity of a component in the source model.
type ID int64

// ---------------------------------------------------------------------------
// Bounding boxes
// ---------------------------------------------------------------------------

// BBox is an axis-aligned bounding box in model units.
type BBox struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// ZMin returns the bottom elevation.
func (b BBox) ZMin() float64 { return b.Min[2] }

// ZMax returns the top elevation.
func (b BBox) ZMax() float64 { return b.Max[2] }

// Finite reports whether every coordinate is finite.
func (b BBox) Finite() bool {
	return kernel.Finite(b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
}

// HasFootprint reports whether the XY projection has positive area.
func (b BBox) HasFootprint() bool {
	return b.Max[0] > b.Min[0] && b.Max[1] > b.Min[1]
}

// Extend returns the smallest box enclosing both b and o.
func (b BBox) Extend(o BBox) BBox {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], o.Min[i])
		b.Max[i] = math.Max(b.Max[i], o.Max[i])
	}
	return b
}

func (b BBox) String() string {
	return fmt.Sprintf("[%g %g %g]..[%g %g %g]",
		b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
}

// ---------------------------------------------------------------------------
// Records and components
// ---------------------------------------------------------------------------

// Record is a pre-parsed component as delivered by a loader. Bodies are
// the cuboids making up the component's solid geometry. Bounds, when set,
// overrides the box derived from the bodies.
type Record struct {
	ID       ID       `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Level    string   `json:"level"`
	Bodies   []BBox   `json:"bodies"`
	Bounds   *BBox    `json:"bounds,omitempty"`
}

// Component is an accepted, immutable component. It exclusively owns its
// solids; other packages only read them.
type Component struct {
	ID       ID
	Name     string
	Category Category
	Level    string
	Bounds   BBox

	// ZMin and ZMax cache the vertical extent of Bounds.
	ZMin, ZMax float64

	// Solids holds one kernel solid per body.
	Solids []kernel.Solid

	// Solid is the union of Solids. Bodies may overlap; the union counts
	// shared space once.
	Solid kernel.Solid

	// Volume is the enclosed volume of the union of all bodies.
	Volume float64
}

func (c *Component) String() string {
	if c.Name == "" {
		return fmt.Sprintf("#%d", c.ID)
	}
	return fmt.Sprintf("#%d (%s)", c.ID, c.Name)
}
