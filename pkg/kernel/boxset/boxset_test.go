package boxset

import (
	"math"
	"testing"

	"github.com/chazu/liftplan/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(t *testing.T, k *Kernel, min, max [3]float64) kernel.Solid {
	t.Helper()
	s, err := kernel.BoxAt(k, min, max)
	require.NoError(t, err)
	return s
}

func volume(t *testing.T, k *Kernel, s kernel.Solid) float64 {
	t.Helper()
	v, err := k.Volume(s)
	require.NoError(t, err)
	return v
}

func TestBox_RejectsDegenerate(t *testing.T) {
	k := New()

	_, err := k.Box(0, 1, 1)
	assert.ErrorIs(t, err, kernel.ErrDegenerate)

	_, err = k.Box(1, math.Inf(1), 1)
	assert.ErrorIs(t, err, kernel.ErrUnstable)
}

func TestBoundingBox_AfterTranslate(t *testing.T) {
	k := New()
	s := box(t, k, [3]float64{1, 2, 3}, [3]float64{2, 4, 6})

	min, max := s.BoundingBox()
	assert.Equal(t, [3]float64{1, 2, 3}, min)
	assert.Equal(t, [3]float64{2, 4, 6}, max)
}

func TestIntersection_PartialOverlap(t *testing.T) {
	k := New()
	a := box(t, k, [3]float64{0, 0, 0}, [3]float64{10, 10, 10})
	b := box(t, k, [3]float64{5, 5, 5}, [3]float64{15, 15, 15})

	assert.InDelta(t, 125.0, volume(t, k, k.Intersection(a, b)), 1e-12)
}

func TestIntersection_TouchingFacesIsEmpty(t *testing.T) {
	k := New()
	a := box(t, k, [3]float64{0, 0, 0}, [3]float64{10, 10, 1})
	b := box(t, k, [3]float64{0, 0, 1}, [3]float64{10, 10, 2})

	inter := k.Intersection(a, b)
	assert.Equal(t, 0, inter.(*Solid).Parts())
	assert.Equal(t, 0.0, volume(t, k, inter))
}

func TestUnion_OverlapIsNotDoubleCounted(t *testing.T) {
	k := New()
	a := box(t, k, [3]float64{0, 0, 0}, [3]float64{10, 10, 10})
	b := box(t, k, [3]float64{5, 5, 5}, [3]float64{15, 15, 15})

	u := k.Union(a, b)
	assert.InDelta(t, 2000.0-125.0, volume(t, k, u), 1e-9)

	min, max := u.BoundingBox()
	assert.Equal(t, [3]float64{0, 0, 0}, min)
	assert.Equal(t, [3]float64{15, 15, 15}, max)
}

func TestUnion_ContainedBoxAddsNothing(t *testing.T) {
	k := New()
	outer := box(t, k, [3]float64{0, 0, 0}, [3]float64{10, 10, 10})
	inner := box(t, k, [3]float64{2, 2, 2}, [3]float64{4, 4, 4})

	u := k.Union(outer, inner)
	assert.Equal(t, 1, u.(*Solid).Parts())
	assert.InDelta(t, 1000.0, volume(t, k, u), 1e-9)
}

func TestIntersection_LShapeMissesNotch(t *testing.T) {
	k := New()
	// L-shaped wall: the bounding box covers the notch at x>5, z>5.
	foot := box(t, k, [3]float64{0, 0, 0}, [3]float64{10, 1, 5})
	leg := box(t, k, [3]float64{0, 0, 5}, [3]float64{5, 1, 10})
	l := k.Union(foot, leg)

	probe := box(t, k, [3]float64{6, 0, 6}, [3]float64{9, 1, 9})
	assert.Equal(t, 0.0, volume(t, k, k.Intersection(l, probe)))
}

func TestVolume_NonFiniteIsUnstable(t *testing.T) {
	k := New()
	a := box(t, k, [3]float64{0, 0, 0}, [3]float64{1, 1, 1})
	shifted := k.Translate(a, math.NaN(), 0, 0)

	_, err := k.Volume(k.Intersection(shifted, a))
	assert.ErrorIs(t, err, kernel.ErrUnstable)
}
