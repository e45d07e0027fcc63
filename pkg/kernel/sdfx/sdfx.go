// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
//
// Signed distance fields have no closed-form volume, so Volume samples the
// field at cell centres over the solid's bounding box. Axis-aligned box
// intersections are measured exactly because their bounding box coincides
// with the solid; other shapes converge as the cell count grows.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/liftplan/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultCells controls the sampling resolution of Volume along each axis.
const DefaultCells = 32

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
// bb is tracked separately because sdfx does not tighten the bounding box
// of an intersection.
type sdfxSolid struct {
	s  sdf.SDF3
	bb sdf.Box3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	min = [3]float64{s.bb.Min.X, s.bb.Min.Y, s.bb.Min.Z}
	max = [3]float64{s.bb.Max.X, s.bb.Max.Y, s.bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// New returns a new SdfxKernel sampling volumes with the given number of
// cells per axis. Non-positive values select DefaultCells.
func New(cells int) *SdfxKernel {
	if cells <= 0 {
		cells = DefaultCells
	}
	return &SdfxKernel{cells: cells}
}

// Name identifies the backend.
func (k *SdfxKernel) Name() string { return "sdfx" }

// unwrap extracts the underlying solid from a kernel.Solid.
func unwrap(s kernel.Solid) *sdfxSolid {
	return s.(*sdfxSolid)
}

// Box creates a box with the given dimensions. The resulting solid has its
// minimum corner at the origin (0,0,0) so that placement translations put
// the corner where the caller asks. sdf.Box3D centers the box at the
// origin, so we translate by half-dimensions.
func (k *SdfxKernel) Box(x, y, z float64) (kernel.Solid, error) {
	if !kernel.Finite(x, y, z) {
		return nil, fmt.Errorf("sdfx: box %vx%vx%v: %w", x, y, z, kernel.ErrUnstable)
	}
	if x <= 0 || y <= 0 || z <= 0 {
		return nil, fmt.Errorf("sdfx: box %vx%vx%v: %w", x, y, z, kernel.ErrDegenerate)
	}
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: Box3D: %w", err)
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return &sdfxSolid{
		s:  sdf.Transform3D(s, m),
		bb: sdf.Box3{Min: v3.Vec{}, Max: v3.Vec{X: x, Y: y, Z: z}},
	}, nil
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	src := unwrap(s)
	d := v3.Vec{X: x, Y: y, Z: z}
	return &sdfxSolid{
		s:  sdf.Transform3D(src.s, sdf.Translate3d(d)),
		bb: sdf.Box3{Min: src.bb.Min.Add(d), Max: src.bb.Max.Add(d)},
	}
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	return &sdfxSolid{
		s: sdf.Union3D(sa.s, sb.s),
		bb: sdf.Box3{
			Min: v3.Vec{X: math.Min(sa.bb.Min.X, sb.bb.Min.X), Y: math.Min(sa.bb.Min.Y, sb.bb.Min.Y), Z: math.Min(sa.bb.Min.Z, sb.bb.Min.Z)},
			Max: v3.Vec{X: math.Max(sa.bb.Max.X, sb.bb.Max.X), Y: math.Max(sa.bb.Max.Y, sb.bb.Max.Y), Z: math.Max(sa.bb.Max.Z, sb.bb.Max.Z)},
		},
	}
}

// Intersection returns the intersection of two solids. The bounding box
// is the overlap of both inputs and may be empty.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	return &sdfxSolid{
		s: sdf.Intersect3D(sa.s, sb.s),
		bb: sdf.Box3{
			Min: v3.Vec{X: math.Max(sa.bb.Min.X, sb.bb.Min.X), Y: math.Max(sa.bb.Min.Y, sb.bb.Min.Y), Z: math.Max(sa.bb.Min.Z, sb.bb.Min.Z)},
			Max: v3.Vec{X: math.Min(sa.bb.Max.X, sb.bb.Max.X), Y: math.Min(sa.bb.Max.Y, sb.bb.Max.Y), Z: math.Min(sa.bb.Max.Z, sb.bb.Max.Z)},
		},
	}
}

// Volume estimates the enclosed volume by sampling the field at the
// centre of each cell of a uniform grid over the bounding box.
func (k *SdfxKernel) Volume(s kernel.Solid) (float64, error) {
	src := unwrap(s)
	lo, hi := src.bb.Min, src.bb.Max
	if !kernel.Finite(lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z) {
		return 0, fmt.Errorf("sdfx: volume: bounds %v..%v: %w", lo, hi, kernel.ErrUnstable)
	}

	dx := (hi.X - lo.X) / float64(k.cells)
	dy := (hi.Y - lo.Y) / float64(k.cells)
	dz := (hi.Z - lo.Z) / float64(k.cells)
	if dx <= 0 || dy <= 0 || dz <= 0 {
		// Empty or flat overlap; touching faces enclose nothing.
		return 0, nil
	}

	inside := 0
	for i := 0; i < k.cells; i++ {
		px := lo.X + (float64(i)+0.5)*dx
		for j := 0; j < k.cells; j++ {
			py := lo.Y + (float64(j)+0.5)*dy
			for l := 0; l < k.cells; l++ {
				pz := lo.Z + (float64(l)+0.5)*dz
				d := src.s.Evaluate(v3.Vec{X: px, Y: py, Z: pz})
				if math.IsNaN(d) {
					return 0, fmt.Errorf("sdfx: volume: field is NaN at (%g, %g, %g): %w", px, py, pz, kernel.ErrUnstable)
				}
				if d < 0 {
					inside++
				}
			}
		}
	}
	return float64(inside) * dx * dy * dz, nil
}
