// Package boxset implements kernel.Kernel exactly for solids that are
// unions of axis-aligned boxes. Precast members (beams, columns, wall
// panels, slabs) are cuboids or short unions of cuboids, so this is the
// default backend: intersection volumes are computed in closed form and
// never depend on a sampling resolution.
package boxset

import (
	"fmt"
	"math"

	"github.com/chazu/liftplan/pkg/kernel"
)

// Compile-time interface checks.
var _ kernel.Kernel = (*Kernel)(nil)
var _ kernel.Solid = (*Solid)(nil)

// cuboid is a closed axis-aligned box [min, max].
type cuboid struct {
	min, max [3]float64
}

func (c cuboid) volume() float64 {
	return (c.max[0] - c.min[0]) * (c.max[1] - c.min[1]) * (c.max[2] - c.min[2])
}

// empty reports whether the cuboid encloses no volume.
func (c cuboid) empty() bool {
	return c.max[0] <= c.min[0] || c.max[1] <= c.min[1] || c.max[2] <= c.min[2]
}

func (c cuboid) intersect(o cuboid) cuboid {
	var r cuboid
	for i := 0; i < 3; i++ {
		r.min[i] = math.Max(c.min[i], o.min[i])
		r.max[i] = math.Min(c.max[i], o.max[i])
	}
	return r
}

// subtract returns c minus o as up to six interior-disjoint cuboids.
func (c cuboid) subtract(o cuboid) []cuboid {
	cut := c.intersect(o)
	if cut.empty() {
		return []cuboid{c}
	}
	var out []cuboid
	rest := c
	for axis := 0; axis < 3; axis++ {
		if rest.min[axis] < cut.min[axis] {
			slab := rest
			slab.max[axis] = cut.min[axis]
			out = append(out, slab)
			rest.min[axis] = cut.min[axis]
		}
		if cut.max[axis] < rest.max[axis] {
			slab := rest
			slab.min[axis] = cut.max[axis]
			out = append(out, slab)
			rest.max[axis] = cut.max[axis]
		}
	}
	return out
}

// Solid is a union of interior-disjoint cuboids.
type Solid struct {
	parts []cuboid
}

// BoundingBox returns the axis-aligned bounding box. An empty solid
// reports an inverted box at the origin.
func (s *Solid) BoundingBox() (min, max [3]float64) {
	if len(s.parts) == 0 {
		return min, max
	}
	min, max = s.parts[0].min, s.parts[0].max
	for _, p := range s.parts[1:] {
		for i := 0; i < 3; i++ {
			min[i] = math.Min(min[i], p.min[i])
			max[i] = math.Max(max[i], p.max[i])
		}
	}
	return min, max
}

// Parts returns the number of disjoint cuboids making up the solid.
func (s *Solid) Parts() int {
	return len(s.parts)
}

// Kernel is the exact box-union kernel. The zero value is ready to use.
type Kernel struct{}

// New returns a box-union kernel.
func New() *Kernel {
	return &Kernel{}
}

// Name identifies the backend.
func (k *Kernel) Name() string { return "boxset" }

func unwrap(s kernel.Solid) *Solid {
	return s.(*Solid)
}

// Box creates a box with its minimum corner at the origin.
func (k *Kernel) Box(x, y, z float64) (kernel.Solid, error) {
	if !kernel.Finite(x, y, z) {
		return nil, fmt.Errorf("boxset: box %vx%vx%v: %w", x, y, z, kernel.ErrUnstable)
	}
	if x <= 0 || y <= 0 || z <= 0 {
		return nil, fmt.Errorf("boxset: box %vx%vx%v: %w", x, y, z, kernel.ErrDegenerate)
	}
	return &Solid{parts: []cuboid{{max: [3]float64{x, y, z}}}}, nil
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	src := unwrap(s)
	d := [3]float64{x, y, z}
	parts := make([]cuboid, len(src.parts))
	for i, p := range src.parts {
		for a := 0; a < 3; a++ {
			p.min[a] += d[a]
			p.max[a] += d[a]
		}
		parts[i] = p
	}
	return &Solid{parts: parts}
}

// Union returns the union of two solids. Parts of b overlapping a are
// split so the result stays interior-disjoint.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	parts := append([]cuboid(nil), sa.parts...)
	for _, p := range sb.parts {
		pending := []cuboid{p}
		for _, q := range sa.parts {
			var next []cuboid
			for _, r := range pending {
				next = append(next, r.subtract(q)...)
			}
			pending = next
		}
		parts = append(parts, pending...)
	}
	return &Solid{parts: parts}
}

// Intersection returns the intersection of two solids. Pairwise
// intersections of interior-disjoint parts are themselves disjoint.
func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	sa, sb := unwrap(a), unwrap(b)
	var parts []cuboid
	for _, p := range sa.parts {
		for _, q := range sb.parts {
			if r := p.intersect(q); !r.empty() {
				parts = append(parts, r)
			}
		}
	}
	return &Solid{parts: parts}
}

// Volume returns the exact enclosed volume.
func (k *Kernel) Volume(s kernel.Solid) (float64, error) {
	var total float64
	for _, p := range unwrap(s).parts {
		if !kernel.Finite(p.min[0], p.min[1], p.min[2], p.max[0], p.max[1], p.max[2]) {
			return 0, fmt.Errorf("boxset: volume: part %v..%v: %w", p.min, p.max, kernel.ErrUnstable)
		}
		total += p.volume()
	}
	if math.IsInf(total, 0) {
		return 0, fmt.Errorf("boxset: volume overflow: %w", kernel.ErrUnstable)
	}
	return total, nil
}
