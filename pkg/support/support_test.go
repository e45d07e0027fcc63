package support

import (
	"math"
	"math/rand"
	"testing"

	"github.com/chazu/liftplan/pkg/component"
	"github.com/chazu/liftplan/pkg/geom"
	"github.com/chazu/liftplan/pkg/kernel/boxset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id component.ID, x0, y0, z0, x1, y1, z1 float64) component.Record {
	b := component.BBox{Min: [3]float64{x0, y0, z0}, Max: [3]float64{x1, y1, z1}}
	return component.Record{ID: id, Bodies: []component.BBox{b}}
}

func store(t *testing.T, recs ...component.Record) *component.Store {
	t.Helper()
	s, rejected := component.NewStore(boxset.New(), recs)
	require.Empty(t, rejected)
	return s
}

// frame is two columns carrying a beam, with a slab on the beam and a
// separate column standing beside the frame.
func frame(t *testing.T) *component.Store {
	return store(t,
		rec(1, 0, 0, 0, 0.4, 0.4, 3),
		rec(2, 5.6, 0, 0, 6, 0.4, 3),
		rec(3, 0, 0, 3, 6, 0.4, 3.6),
		rec(4, 0, 0, 3.6, 6, 3, 3.8),
		rec(5, 10, 10, 0, 10.4, 10.4, 3),
	)
}

func TestBuild_Frame(t *testing.T) {
	adj := Build(frame(t), Options{Tolerance: 0.01, RequireXYOverlap: true})

	assert.Equal(t, Adjacency{
		1: {3},
		2: {3},
		3: {4},
		4: nil,
		5: nil,
	}, adj)
	assert.Equal(t, 3, adj.Edges())
}

func TestBuild_DefaultToleranceReachesThroughThinMembers(t *testing.T) {
	// With the default tolerance of 1.0 the columns also reach the slab
	// 0.6 above their tops.
	adj := Build(frame(t), DefaultOptions())
	assert.Equal(t, []component.ID{3, 4}, adj.Supports(1))
	assert.Equal(t, []component.ID{3, 4}, adj.Supports(2))
}

func TestBuild_GapBeyondTolerance(t *testing.T) {
	s := store(t,
		rec(1, 0, 0, 0, 1, 1, 1),
		rec(2, 0, 0, 1.5, 1, 1, 2),
	)
	assert.Equal(t, []component.ID{2}, Build(s, Options{Tolerance: 1, RequireXYOverlap: true}).Supports(1))
	assert.Empty(t, Build(s, Options{Tolerance: 0.1, RequireXYOverlap: true}).Supports(1))
}

func TestBuild_XYOverlapRequirement(t *testing.T) {
	// 2 sits at the right height but off to the side of 1.
	s := store(t,
		rec(1, 0, 0, 0, 1, 1, 1),
		rec(2, 3, 0, 1, 4, 1, 2),
	)
	assert.Empty(t, Build(s, Options{Tolerance: 0.01, RequireXYOverlap: true}).Supports(1))
	assert.Equal(t, []component.ID{2}, Build(s, Options{Tolerance: 0.01}).Supports(1))
}

func TestBuild_IndexMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var recs []component.Record
	for i := 0; i < 150; i++ {
		x, y := float64(rng.Intn(20)), float64(rng.Intn(20))
		z := float64(rng.Intn(6)) * 0.5
		w, d, h := 0.5+float64(rng.Intn(4)), 0.5+float64(rng.Intn(4)), 0.5
		recs = append(recs, rec(component.ID(i+1), x, y, z, x+w, y+d, z+h))
	}
	s := store(t, recs...)

	for _, eps := range []float64{0, 0.25, -0.1} {
		opts := Options{Tolerance: 0.01, XYEpsilon: eps, RequireXYOverlap: true}
		brute := Build(s, opts)
		opts.UseIndex = true
		indexed := Build(s, opts)
		assert.Equal(t, brute, indexed, "eps=%v", eps)
		assert.NotZero(t, brute.Edges())
	}
}

func TestBuild_SupportSoundness(t *testing.T) {
	s := frame(t)
	opts := DefaultOptions()
	adj := Build(s, opts)
	for p, cs := range adj {
		for _, c := range cs {
			pc, cc := s.Get(p), s.Get(c)
			assert.NotEqual(t, p, c)
			assert.True(t, geom.OverlapXY(pc.Bounds, cc.Bounds, opts.XYEpsilon))
			assert.LessOrEqual(t, math.Abs(pc.ZMax-cc.ZMin), opts.Tolerance)
		}
	}
}

func TestSupporters(t *testing.T) {
	adj := Adjacency{1: {3}, 2: {3}, 3: {4}, 4: nil}
	assert.Equal(t, Adjacency{1: nil, 2: nil, 3: {1, 2}, 4: {3}}, adj.Supporters())
}

func TestDiagnose(t *testing.T) {
	s := store(t,
		rec(1, 0, 0, 0, 1, 1, 1),
		rec(2, 0, 0, 1, 1, 1, 2),
		rec(3, 5, 5, 4, 6, 6, 5), // hangs in mid-air
		rec(4, 8, 8, 0, 9, 9, 1), // stands alone on the ground
	)
	adj := Build(s, Options{Tolerance: 0.01, RequireXYOverlap: true})
	d := Diagnose(s, adj, 0.01)

	assert.Equal(t, []component.ID{3}, d.Floating)
	assert.Equal(t, []component.ID{2, 3, 4}, d.Tops)
	assert.Empty(t, d.Cycles)
	assert.False(t, d.Empty())
}

func TestCycles(t *testing.T) {
	adj := Adjacency{
		1: {2},
		2: {3},
		3: {1},
		4: {5},
		5: nil,
		6: {7},
		7: {6},
	}
	assert.Equal(t, [][]component.ID{{1, 2, 3}, {6, 7}}, Cycles(adj))
	assert.Empty(t, Cycles(Adjacency{1: {2}, 2: nil}))
}
