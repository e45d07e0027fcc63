package kernel

import (
	"math"
	"testing"
)

// --- Compile-time interface check with a stub kernel ---

// stubSolid is a minimal Solid implementation for testing.
type stubSolid struct {
	minBB, maxBB [3]float64
}

func (s *stubSolid) BoundingBox() (min, max [3]float64) {
	return s.minBB, s.maxBB
}

// stubKernel is a minimal Kernel implementation that proves the interface
// is satisfiable. Boolean operations return their first argument.
type stubKernel struct{}

func (k *stubKernel) Name() string { return "stub" }

func (k *stubKernel) Box(x, y, z float64) (Solid, error) {
	if x <= 0 || y <= 0 || z <= 0 {
		return nil, ErrDegenerate
	}
	return &stubSolid{maxBB: [3]float64{x, y, z}}, nil
}

func (k *stubKernel) Translate(s Solid, x, y, z float64) Solid {
	min, max := s.BoundingBox()
	d := [3]float64{x, y, z}
	for i := range d {
		min[i] += d[i]
		max[i] += d[i]
	}
	return &stubSolid{minBB: min, maxBB: max}
}

func (k *stubKernel) Union(a, _ Solid) Solid        { return a }
func (k *stubKernel) Intersection(a, _ Solid) Solid { return a }

func (k *stubKernel) Volume(s Solid) (float64, error) {
	min, max := s.BoundingBox()
	return (max[0] - min[0]) * (max[1] - min[1]) * (max[2] - min[2]), nil
}

// Compile-time checks that the stubs implement the interfaces.
var _ Solid = (*stubSolid)(nil)
var _ Kernel = (*stubKernel)(nil)

func TestBoxAtPlacesMinCorner(t *testing.T) {
	var k Kernel = &stubKernel{}
	s, err := BoxAt(k, [3]float64{1, 2, 3}, [3]float64{4, 6, 8})
	if err != nil {
		t.Fatalf("BoxAt() error = %v", err)
	}
	min, max := s.BoundingBox()
	if min != [3]float64{1, 2, 3} {
		t.Errorf("BoxAt min = %v, want [1 2 3]", min)
	}
	if max != [3]float64{4, 6, 8} {
		t.Errorf("BoxAt max = %v, want [4 6 8]", max)
	}
}

func TestBoxAtRejectsInvertedBounds(t *testing.T) {
	var k Kernel = &stubKernel{}
	if _, err := BoxAt(k, [3]float64{5, 0, 0}, [3]float64{1, 1, 1}); err == nil {
		t.Fatal("BoxAt() with inverted X bounds should fail")
	}
}

func TestFinite(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want bool
	}{
		{"empty", nil, true},
		{"plain", []float64{0, -1, 1e300}, true},
		{"nan", []float64{1, math.NaN()}, false},
		{"inf", []float64{math.Inf(-1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Finite(tt.in...); got != tt.want {
				t.Errorf("Finite(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
