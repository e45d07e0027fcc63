// Package kernel defines the abstract solid kernel interface.
// Implementations (boxset, sdfx) provide solid construction, boolean
// intersection and volume measurement behind this interface, so the
// collision engine can swap backends without changing anything else.
package kernel

import (
	"errors"
	"math"
)

var (
	// ErrDegenerate is returned when a solid has no interior or inverted bounds.
	ErrDegenerate = errors.New("kernel: degenerate solid")

	// ErrUnstable is returned when a computation produced a non-finite value.
	ErrUnstable = errors.New("kernel: numerically unstable result")
)

// Solid is an opaque handle to a kernel solid.
// Implementations wrap their internal representation. Solids are never
// mutated after construction and may be shared between goroutines.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract solid kernel interface.
type Kernel interface {
	// Name identifies the backend in logs and reports.
	Name() string

	// Box creates a box with its minimum corner at the origin.
	Box(x, y, z float64) (Solid, error)

	// Translate moves a solid by (x, y, z).
	Translate(s Solid, x, y, z float64) Solid

	// Union returns the union of two solids.
	Union(a, b Solid) Solid

	// Intersection returns the boolean intersection of two solids.
	Intersection(a, b Solid) Solid

	// Volume measures the enclosed volume. It returns an error wrapping
	// ErrDegenerate or ErrUnstable when the measurement cannot be trusted.
	Volume(s Solid) (float64, error)
}

// BoxAt builds a box spanning [min, max] using k.
func BoxAt(k Kernel, min, max [3]float64) (Solid, error) {
	s, err := k.Box(max[0]-min[0], max[1]-min[1], max[2]-min[2])
	if err != nil {
		return nil, err
	}
	return k.Translate(s, min[0], min[1], min[2]), nil
}

// Finite reports whether every coordinate is a finite number.
func Finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
