package geom

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/liftplan/pkg/component"
	"github.com/chazu/liftplan/pkg/kernel"
	"github.com/chazu/liftplan/pkg/kernel/boxset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bb(x0, y0, z0, x1, y1, z1 float64) component.BBox {
	return component.BBox{Min: [3]float64{x0, y0, z0}, Max: [3]float64{x1, y1, z1}}
}

func solids(t *testing.T, k kernel.Kernel, boxes ...component.BBox) []kernel.Solid {
	t.Helper()
	out := make([]kernel.Solid, len(boxes))
	for i, b := range boxes {
		s, err := kernel.BoxAt(k, b.Min, b.Max)
		require.NoError(t, err)
		out[i] = s
	}
	return out
}

func TestOverlapXY(t *testing.T) {
	base := bb(0, 0, 0, 10, 10, 1)
	tests := []struct {
		name  string
		other component.BBox
		eps   float64
		want  bool
	}{
		{"contained", bb(2, 2, 5, 4, 4, 6), 0, true},
		{"touching edge", bb(10, 0, 0, 20, 10, 1), 0, true},
		{"touching corner", bb(10, 10, 0, 20, 20, 1), 0, true},
		{"gap", bb(10.5, 0, 0, 20, 10, 1), 0, false},
		{"gap bridged by eps", bb(10.5, 0, 0, 20, 10, 1), 0.3, true},
		{"touching rejected by negative eps", bb(10, 0, 0, 20, 10, 1), -0.01, false},
		{"overlap only in x", bb(5, 11, 0, 6, 12, 1), 0, false},
		{"z ignored", bb(0, 0, 100, 1, 1, 101), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverlapXY(base, tt.other, tt.eps))
			assert.Equal(t, tt.want, OverlapXY(tt.other, base, tt.eps), "symmetry")
		})
	}
}

func TestOverlapZ(t *testing.T) {
	lower := bb(0, 0, 0, 1, 1, 3)
	assert.True(t, OverlapZ(lower, bb(0, 0, 3, 1, 1, 4), 0))
	assert.True(t, OverlapZ(lower, bb(0, 0, 3.8, 1, 1, 4), 1.0))
	assert.False(t, OverlapZ(lower, bb(0, 0, 4.5, 1, 1, 5), 1.0))
	assert.True(t, OverlapZ(lower, bb(0, 0, 1, 1, 1, 2), 0), "ranges overlap")
}

func TestRestsOn(t *testing.T) {
	column := bb(0, 0, 0, 1, 1, 3)
	tests := []struct {
		name  string
		upper component.BBox
		tol   float64
		want  bool
	}{
		{"flush", bb(0, 0, 3, 4, 4, 3.3), 0, true},
		{"small gap within tol", bb(0, 0, 3.5, 4, 4, 3.8), 1, true},
		{"slight overlap within tol", bb(0, 0, 2.9, 4, 4, 3.2), 0.2, true},
		{"gap beyond tol", bb(0, 0, 5, 4, 4, 5.3), 1, false},
		{"same bottom is not resting", bb(0, 0, 0, 4, 4, 3), 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RestsOn(column, tt.upper, tt.tol))
		})
	}
	assert.False(t, RestsOn(bb(0, 0, 3, 4, 4, 3.3), column, 1), "upper does not rest under lower")
}

func TestIntersectionVolume_SumsBodyPairs(t *testing.T) {
	k := boxset.New()
	a := solids(t, k, bb(0, 0, 0, 2, 2, 2), bb(10, 0, 0, 12, 2, 2))
	b := solids(t, k, bb(1, 0, 0, 11, 2, 1))

	v, err := IntersectionVolume(k, a, b)
	require.NoError(t, err)
	assert.InDelta(t, 2.0+2.0, v, 1e-12)

	rev, err := IntersectionVolume(k, b, a)
	require.NoError(t, err)
	assert.Equal(t, v, rev)
}

func TestSolidsIntersect_Tolerance(t *testing.T) {
	k := boxset.New()
	a := solids(t, k, bb(0, 0, 0, 1, 1, 1))

	sliver := solids(t, k, bb(0, 0, 0.9999995, 1, 1, 2))
	hit, err := SolidsIntersect(k, a, sliver, 1e-6)
	require.NoError(t, err)
	assert.False(t, hit, "intersection below tolerance")

	deep := solids(t, k, bb(0, 0, 0.5, 1, 1, 2))
	hit, err = SolidsIntersect(k, a, deep, 1e-6)
	require.NoError(t, err)
	assert.True(t, hit)

	touching := solids(t, k, bb(1, 0, 0, 2, 1, 1))
	hit, err = SolidsIntersect(k, a, touching, 0)
	require.NoError(t, err)
	assert.False(t, hit, "coincident faces enclose no volume")
}

func TestSolidsIntersect_KernelFailureIsAnError(t *testing.T) {
	k := boxset.New()
	a := solids(t, k, bb(0, 0, 0, 1, 1, 1))
	broken := []kernel.Solid{k.Translate(a[0], math.NaN(), 0, 0)}

	hit, err := SolidsIntersect(k, a, broken, 1e-6)
	assert.False(t, hit)
	require.Error(t, err)
	assert.True(t, errors.Is(err, kernel.ErrUnstable))
}

func TestComputationError(t *testing.T) {
	err := error(&ComputationError{A: 1, B: 2, Cause: kernel.ErrUnstable})
	var ce *ComputationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, component.ID(2), ce.B)
	assert.ErrorIs(t, err, kernel.ErrUnstable)
	assert.Contains(t, err.Error(), "intersect 1")
}
