//go:build manifold

// Package manifold provides a CGo-based solid kernel binding to the
// Manifold library (https://github.com/elalish/manifold). Manifold gives
// exact mesh booleans, so intersection volumes of arbitrary closed solids
// are measured rather than sampled.
//
// This package requires the Manifold C library (manifoldc, v3 or later).
// Build with: go build -tags=manifold
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"math"
	"runtime"

	"github.com/chazu/liftplan/pkg/kernel"
)

// Compile-time interface checks.
var _ kernel.Kernel = (*ManifoldKernel)(nil)
var _ kernel.Solid = (*manifoldSolid)(nil)

// manifoldSolid wraps a C ManifoldManifold pointer.
type manifoldSolid struct {
	ptr *C.ManifoldManifold
}

func (s *manifoldSolid) BoundingBox() (min, max [3]float64) {
	alloc := C.manifold_alloc_box()
	bbox := C.manifold_bounding_box(alloc, s.ptr)
	defer C.manifold_delete_box(bbox)

	min[0] = float64(C.manifold_box_min_x(bbox))
	min[1] = float64(C.manifold_box_min_y(bbox))
	min[2] = float64(C.manifold_box_min_z(bbox))
	max[0] = float64(C.manifold_box_max_x(bbox))
	max[1] = float64(C.manifold_box_max_y(bbox))
	max[2] = float64(C.manifold_box_max_z(bbox))
	return min, max
}

// newSolid wraps ptr and frees it when the Go value is collected.
func newSolid(ptr *C.ManifoldManifold) *manifoldSolid {
	s := &manifoldSolid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *manifoldSolid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

// ManifoldKernel implements kernel.Kernel using the Manifold C library.
type ManifoldKernel struct{}

func New() (kernel.Kernel, error) {
	return &ManifoldKernel{}, nil
}

func (k *ManifoldKernel) Name() string { return "manifold" }

// Box creates a box with its minimum corner at the origin.
func (k *ManifoldKernel) Box(x, y, z float64) (kernel.Solid, error) {
	if !kernel.Finite(x, y, z) {
		return nil, fmt.Errorf("manifold: box %gx%gx%g: %w", x, y, z, kernel.ErrUnstable)
	}
	if x <= 0 || y <= 0 || z <= 0 {
		return nil, fmt.Errorf("manifold: box %gx%gx%g: %w", x, y, z, kernel.ErrDegenerate)
	}
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_cube(alloc,
		C.double(x), C.double(y), C.double(z),
		C.int(0), // center=false
	)
	return newSolid(ptr), nil
}

func (k *ManifoldKernel) Union(a, b kernel.Solid) kernel.Solid {
	sa := a.(*manifoldSolid)
	sb := b.(*manifoldSolid)
	alloc := C.manifold_alloc_manifold()
	return newSolid(C.manifold_union(alloc, sa.ptr, sb.ptr))
}

func (k *ManifoldKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	sa := a.(*manifoldSolid)
	sb := b.(*manifoldSolid)
	alloc := C.manifold_alloc_manifold()
	return newSolid(C.manifold_intersection(alloc, sa.ptr, sb.ptr))
}

func (k *ManifoldKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	ms := s.(*manifoldSolid)
	alloc := C.manifold_alloc_manifold()
	return newSolid(C.manifold_translate(alloc, ms.ptr, C.double(x), C.double(y), C.double(z)))
}

// Volume returns the enclosed volume. An empty result has zero volume.
func (k *ManifoldKernel) Volume(s kernel.Solid) (float64, error) {
	ms := s.(*manifoldSolid)
	if C.manifold_is_empty(ms.ptr) != 0 {
		return 0, nil
	}
	v := float64(C.manifold_volume(ms.ptr))
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("manifold: volume %g: %w", v, kernel.ErrUnstable)
	}
	return v, nil
}
