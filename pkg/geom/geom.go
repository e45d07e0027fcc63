// Package geom provides the geometric predicates shared by the support
// builder and the collision engine: bounding-box overlap tests on the XY
// footprint and the Z range, and exact solid intersection tests.
//
// All functions are pure. Results depend only on their arguments, never on
// the order in which a component's bodies happen to be stored.
package geom

import (
	"fmt"
	"math"

	"github.com/chazu/liftplan/pkg/component"
	"github.com/chazu/liftplan/pkg/kernel"
)

// OverlapXY reports whether the XY projections of a and b overlap on both
// axes. Intervals are closed and widened by eps on each side, so touching
// footprints overlap when eps is zero. A negative eps demands an overlap
// longer than 2*|eps| on each axis.
func OverlapXY(a, b component.BBox, eps float64) bool {
	for i := 0; i < 2; i++ {
		if a.Max[i]+eps < b.Min[i]-eps || b.Max[i]+eps < a.Min[i]-eps {
			return false
		}
	}
	return true
}

// OverlapZ reports whether b sits on a within tol (|a.zmax - b.zmin| <= tol)
// or the two Z ranges overlap once widened by tol.
func OverlapZ(a, b component.BBox, tol float64) bool {
	if math.Abs(a.ZMax()-b.ZMin()) <= tol {
		return true
	}
	return a.ZMin() <= b.ZMax()+tol && b.ZMin() <= a.ZMax()+tol
}

// RestsOn reports contact from below: lower's top is within tol of upper's
// bottom and lower starts strictly below upper.
func RestsOn(lower, upper component.BBox, tol float64) bool {
	return math.Abs(lower.ZMax()-upper.ZMin()) <= tol && lower.ZMin() < upper.ZMin()
}

// IntersectionVolume returns the summed intersection volume of every body
// pair (a[i], b[j]), visited in index order. Pairs whose bounding boxes are
// disjoint are skipped without calling the kernel.
func IntersectionVolume(k kernel.Kernel, a, b []kernel.Solid) (float64, error) {
	var total float64
	for _, sa := range a {
		for _, sb := range b {
			v, err := pairVolume(k, sa, sb)
			if err != nil {
				return 0, err
			}
			total += v
		}
	}
	return total, nil
}

// SolidsIntersect reports whether the bodies of a and b share more than
// volTol of volume. Kernel failures are returned as errors, never as a
// "no intersection" result.
func SolidsIntersect(k kernel.Kernel, a, b []kernel.Solid, volTol float64) (bool, error) {
	v, err := IntersectionVolume(k, a, b)
	if err != nil {
		return false, err
	}
	return v > volTol, nil
}

func pairVolume(k kernel.Kernel, a, b kernel.Solid) (float64, error) {
	amin, amax := a.BoundingBox()
	bmin, bmax := b.BoundingBox()
	for i := 0; i < 3; i++ {
		if amax[i] < bmin[i] || bmax[i] < amin[i] {
			return 0, nil
		}
	}
	v, err := k.Volume(k.Intersection(a, b))
	if err != nil {
		return 0, fmt.Errorf("geom: intersection volume: %w", err)
	}
	if v < 0 || !kernel.Finite(v) {
		return 0, fmt.Errorf("geom: intersection volume %g: %w", v, kernel.ErrUnstable)
	}
	return v, nil
}
